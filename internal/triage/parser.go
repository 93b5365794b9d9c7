package triage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shaiso/Triage/internal/domain"
)

// ErrNoJSON: в ответе модели нет JSON объекта.
var ErrNoJSON = errors.New("no json object in model response")

// ParseResponse достаёт классификацию из ответа модели.
//
// Берётся подстрока от первой '{' до последней '}'.
// labels: строка через запятую или массив строк; остальные поля: строки.
// Поля неожиданного типа игнорируются.
func ParseResponse(raw string) (domain.Classification, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return domain.Classification{}, ErrNoJSON
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &fields); err != nil {
		return domain.Classification{}, fmt.Errorf("decode model response: %w", err)
	}

	return domain.Classification{
		Labels:        parseLabels(fields["labels"]),
		CorrectedText: stringField(fields["corrected_text"]),
		Title:         stringField(fields["title"]),
	}, nil
}

func parseLabels(v any) []string {
	switch labels := v.(type) {
	case string:
		if strings.TrimSpace(labels) == "" {
			return nil
		}
		return strings.Split(labels, ",")
	case []any:
		result := make([]string, 0, len(labels))
		for _, item := range labels {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	default:
		return nil
	}
}

func stringField(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
