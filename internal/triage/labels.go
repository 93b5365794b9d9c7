package triage

import (
	"math/rand/v2"
	"strings"
	"unicode/utf8"
)

// MaxLabelLength: ограничение GitHub на длину имени метки.
const MaxLabelLength = 50

const hexDigits = "0123456789ABCDEF"

// NormalizeLabels чистит метки от модели: обрезает пробелы, кавычки и '#',
// схлопывает пробелы, укорачивает до MaxLabelLength символов,
// убирает пустые и дубликаты без учёта регистра, оставляет не больше maxLabels.
func NormalizeLabels(raw []string, maxLabels int) []string {
	if maxLabels <= 0 {
		maxLabels = DefaultMaxLabels
	}

	seen := make(map[string]struct{}, len(raw))
	result := make([]string, 0, min(len(raw), maxLabels))

	for _, label := range raw {
		label = strings.TrimSpace(label)
		label = strings.Trim(label, "\"'`")
		label = strings.TrimLeft(label, "#")
		label = strings.Join(strings.Fields(label), " ")
		label = truncateRunes(label, MaxLabelLength)
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}

		key := strings.ToLower(label)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		result = append(result, label)
		if len(result) == maxLabels {
			break
		}
	}
	return result
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// RandomColor возвращает случайный цвет метки в формате RRGGBB.
func RandomColor() string {
	var b [6]byte
	for i := range b {
		b[i] = hexDigits[rand.IntN(len(hexDigits))]
	}
	return string(b[:])
}
