// Package cli реализует инструмент командной строки Triage.
//
// # Обзор
//
// CLI: клиентская утилита для Triage. Управление ресурсами идёт через
// HTTP API; команда issue выполняет триаж локально, обращаясь к GitHub
// и chat API напрямую (поведение исходных скриптов).
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Triage API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (data, list, error envelope), bearer токен
// и обработку ошибок (*APIError).
//
//	client := cli.NewClient("http://localhost:8080", os.Getenv("API_TOKEN"))
//	jobs, err := client.ListJobs(ctx, cli.ListJobsOpts{Status: "FAILED"})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter): по умолчанию
//   - JSON с отступами: с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Warn/Error): в stderr.
// Это позволяет использовать pipe: triage job list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - issue: локальный триаж одного issue
//   - job: create, list, show, retry
//   - user: list, create, show, delete
//   - task: list, create, delete
//   - workspace: list, create, members, add-member
//
// Каждая группа создаётся через фабричную функцию (NewJobCmd и т.д.),
// принимающую clientFn и outputFn: замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
