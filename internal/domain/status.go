package domain

// JobStatus: статус задания на триаж.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	            │     ↘ FAILED
//	            └─ retry → PENDING
type JobStatus string

const (
	// JobStatusPending: задание ждёт воркера.
	JobStatusPending JobStatus = "PENDING"

	// JobStatusRunning: задание выполняется.
	JobStatusRunning JobStatus = "RUNNING"

	// JobStatusSucceeded: issue размечен.
	JobStatusSucceeded JobStatus = "SUCCEEDED"

	// JobStatusFailed: задание завершилось ошибкой после всех попыток.
	JobStatusFailed JobStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed:
		return true
	default:
		return false
	}
}

// Valid проверяет, что статус из известного набора.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusSucceeded, JobStatusFailed:
		return true
	default:
		return false
	}
}
