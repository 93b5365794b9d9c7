package worker

import "errors"

// Ошибки воркера.
var (
	// ErrJobNotFound: задание не найдено в БД.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotPending: задание уже взято или завершено.
	ErrJobNotPending = errors.New("job is not in PENDING status")

	// ErrProcessTimeout: прогон триажа превысил таймаут.
	ErrProcessTimeout = errors.New("process timeout")
)
