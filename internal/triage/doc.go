// Package triage реализует классификацию issue.
//
// Один проход по issue:
//
//	GetIssue → BuildIssueText → Completer.Complete → ParseResponse
//	    → NormalizeLabels → EnsureLabel × N → AddLabels → комментарий
//	    → EditIssue(title, body) → сворачиваемый комментарий с исправлениями
//
// Ответ модели не считается надёжным: текст вокруг JSON отбрасывается,
// labels принимаются и строкой через запятую, и массивом. Если ответ
// не разобрался, issue получает метку по умолчанию.
package triage
