package triage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/shaiso/Triage/internal/domain"
)

// DefaultMaxLabels: сколько меток просить у модели.
const DefaultMaxLabels = 5

const systemPromptText = `You are a helpful project manager. Your goals are:
1. Triage a GitHub issue by adding appropriate labels based on the issue's title and body, including comments. Apply a maximum of {{ .MaxLabels }} labels with 1 or 2 words separated by hyphens or underscores.
2. Act as a document reviewer focusing on fixing any grammar issues and typos in the issue title and body, ensuring they are in valid GitHub-flavored markdown format.
3. Provide corrected text for the issue body and title with improved formatting. Respond with a JSON object containing "labels", "corrected_text", and "title".
4. For the title, you MUST keep the same wording, correcting ONLY typos and grammar issues. If there is a word you do not know, it is special: leave it exactly as written. If there are no corrections, return the original title, but NEVER change the title wording.
If there are no labels to apply, return an empty object. Example of the expected JSON response:
{
  "labels": "label1, label2, label3",
  "corrected_text": "Here is the corrected issue body.",
  "title": "Corrected Issue Title"
}`

var systemPromptTemplate = template.Must(template.New("system").Option("missingkey=error").Parse(systemPromptText))

// SystemPrompt рендерит системный промпт.
func SystemPrompt(maxLabels int) (string, error) {
	if maxLabels <= 0 {
		maxLabels = DefaultMaxLabels
	}
	var buf bytes.Buffer
	if err := systemPromptTemplate.Execute(&buf, struct{ MaxLabels int }{maxLabels}); err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return buf.String(), nil
}

// issueText: то, что модель видит как пользовательское сообщение.
type issueText struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Comments []string `json:"comments"`
}

// BuildIssueText сериализует заголовок, тело и комментарии issue в JSON.
func BuildIssueText(issue *domain.Issue) (string, error) {
	comments := issue.Comments
	if comments == nil {
		comments = []string{}
	}
	b, err := json.Marshal(issueText{
		Title:    issue.Title,
		Body:     issue.Body,
		Comments: comments,
	})
	if err != nil {
		return "", fmt.Errorf("marshal issue text: %w", err)
	}
	return string(b), nil
}
