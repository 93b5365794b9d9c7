package repo

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Общие ошибки репозиториев.
var (
	// ErrNotFound: запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists: запись уже существует (конфликт уникальности).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidReference: ссылка на несуществующую запись (нарушение внешнего ключа).
	ErrInvalidReference = errors.New("invalid reference")

	// ErrInvalidState: операция невозможна в текущем состоянии.
	ErrInvalidState = errors.New("invalid state")
)

// Коды SQLSTATE PostgreSQL.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translate преобразует ошибки PostgreSQL в ошибки репозитория.
// Остальные ошибки возвращаются как есть.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %w", ErrInvalidReference, err)
	}
	return err
}

// Page: параметры постраничной выборки.
type Page struct {
	Offset int
	Limit  int
}

// normalize ограничивает limit диапазоном [1, maxLimit].
func (p Page) normalize(maxLimit int) Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 || p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}
