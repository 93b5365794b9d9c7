// Package config собирает конфигурацию сервисов.
//
// Порядок применения:
//   - значения по умолчанию
//   - YAML-файл (путь в TRIAGE_CONFIG), если задан
//   - переменные окружения
//
// Переменные окружения совпадают с теми, что читают сервисы:
// DB_URL, RABBITMQ_URL, API_PORT, GITHUB_TOKEN, LLM_PROVIDER и т.д.
package config
