package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shaiso/Triage/internal/domain"
	"github.com/shaiso/Triage/internal/llm"
	"github.com/shaiso/Triage/internal/telemetry"
	"github.com/shaiso/Triage/internal/tracker"
)

// Маркеры комментариев, по которым определяется, что issue уже размечен.
const (
	ClassifiedMarker  = "Issue classified with labels"
	SuggestionsMarker = "Suggested improvements for the issue"
)

// DefaultLabel ставится, когда модель не предложила ни одной метки.
const DefaultLabel = "triage"

var (
	// ErrNoCorrectedText: модель не вернула исправленный текст.
	// Метки при этом уже применены, Result заполнен.
	ErrNoCorrectedText = errors.New("model returned no corrected text")

	// ErrCompletion: запрос к chat-completion API не удался.
	ErrCompletion = errors.New("chat completion failed")
)

// Options: параметры одного прогона.
type Options struct {
	// FixTyposComment: опубликовать исправленный текст сворачиваемым комментарием.
	FixTyposComment bool
}

// Result: что было сделано с issue.
type Result struct {
	Labels        []string
	DefaultLabel  bool
	SkippedLabels []string
	TitleUpdated  bool
	BodyUpdated   bool
	Comments      int

	Classification domain.Classification
}

// Config: зависимости Service.
type Config struct {
	Tracker   tracker.Tracker
	Completer llm.Completer

	MaxLabels    int
	DefaultLabel string

	// Color выдаёт цвет для новых меток. nil: RandomColor.
	Color func() string

	Logger *slog.Logger
}

// Service выполняет триаж issue.
type Service struct {
	tracker      tracker.Tracker
	completer    llm.Completer
	maxLabels    int
	defaultLabel string
	color        func() string
	systemPrompt string
	logger       *slog.Logger
}

// New создаёт Service.
func New(cfg Config) (*Service, error) {
	if cfg.Tracker == nil || cfg.Completer == nil {
		return nil, errors.New("triage: tracker and completer are required")
	}

	maxLabels := cfg.MaxLabels
	if maxLabels <= 0 {
		maxLabels = DefaultMaxLabels
	}
	defaultLabel := cfg.DefaultLabel
	if defaultLabel == "" {
		defaultLabel = DefaultLabel
	}
	color := cfg.Color
	if color == nil {
		color = RandomColor
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	prompt, err := SystemPrompt(maxLabels)
	if err != nil {
		return nil, err
	}

	return &Service{
		tracker:      cfg.Tracker,
		completer:    cfg.Completer,
		maxLabels:    maxLabels,
		defaultLabel: defaultLabel,
		color:        color,
		systemPrompt: prompt,
		logger:       logger,
	}, nil
}

// Run классифицирует issue и применяет результат.
//
// При ошибке chat API трекер не меняется. ErrNoCorrectedText возвращается
// вместе с заполненным Result.
func (s *Service) Run(ctx context.Context, ref domain.IssueRef, opts Options) (*Result, error) {
	logger := telemetry.WithIssue(s.logger, ref.FullRepo(), ref.Number)

	issue, err := s.tracker.GetIssue(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("get issue %s: %w", ref, err)
	}

	classification, err := s.classify(ctx, logger, issue)
	if err != nil {
		return nil, err
	}

	result := &Result{Classification: classification}
	comments := append([]string(nil), issue.Comments...)

	// --- Labels ---

	labels := NormalizeLabels(classification.Labels, s.maxLabels)
	if len(labels) == 0 {
		logger.Info("no labels from model, applying default label", "label", s.defaultLabel)
		labels = []string{s.defaultLabel}
		result.DefaultLabel = true
	}

	for _, name := range labels {
		label, err := s.EnsureLabel(ctx, ref, name)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			logger.Error("failed to ensure label, skipping", "label", name, "error", err)
			telemetry.LabelFailures.Inc()
			result.SkippedLabels = append(result.SkippedLabels, name)
			continue
		}
		result.Labels = append(result.Labels, label.Name)
	}

	if len(result.Labels) > 0 {
		if err := s.tracker.AddLabels(ctx, ref, result.Labels); err != nil {
			return result, fmt.Errorf("add labels: %w", err)
		}
		telemetry.LabelsApplied.Add(float64(len(result.Labels)))
		logger.Info("labels applied", "labels", result.Labels)

		if !containsMarker(comments, ClassifiedMarker) {
			body := ClassifiedMarker + ": " + strings.Join(result.Labels, ", ")
			if err := s.tracker.CreateComment(ctx, ref, body); err != nil {
				return result, fmt.Errorf("create classification comment: %w", err)
			}
			comments = append(comments, body)
			result.Comments++
		}
	}

	// --- Title & body ---

	var edit tracker.IssueEdit
	if title := classification.Title; title != "" && title != strings.TrimSpace(issue.Title) {
		edit.Title = &title
	}
	if text := classification.CorrectedText; text != "" && text != strings.TrimSpace(issue.Body) {
		edit.Body = &text
	}
	if edit.Title != nil || edit.Body != nil {
		if err := s.tracker.EditIssue(ctx, ref, edit); err != nil {
			return result, fmt.Errorf("edit issue: %w", err)
		}
		result.TitleUpdated = edit.Title != nil
		result.BodyUpdated = edit.Body != nil
		logger.Info("issue edited", "title_updated", result.TitleUpdated, "body_updated", result.BodyUpdated)
	}

	if classification.CorrectedText == "" {
		logger.Warn("no corrected text provided by model")
		return result, ErrNoCorrectedText
	}

	if opts.FixTyposComment && !containsMarker(comments, SuggestionsMarker) {
		if err := s.tracker.CreateComment(ctx, ref, SuggestionsComment(classification.CorrectedText)); err != nil {
			return result, fmt.Errorf("create suggestions comment: %w", err)
		}
		result.Comments++
	}

	return result, nil
}

// classify спрашивает модель. Неразборчивый ответ даёт пустую классификацию.
func (s *Service) classify(ctx context.Context, logger *slog.Logger, issue *domain.Issue) (domain.Classification, error) {
	text, err := BuildIssueText(issue)
	if err != nil {
		return domain.Classification{}, err
	}

	raw, err := s.completer.Complete(ctx, s.systemPrompt, text)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("%w: %s: %w", ErrCompletion, s.completer.Name(), err)
	}
	logger.Debug("model response received", "provider", s.completer.Name(), "raw", raw)

	classification, err := ParseResponse(raw)
	if err != nil {
		logger.Warn("could not parse model response", "error", err)
		return domain.Classification{}, nil
	}
	return classification, nil
}

// EnsureLabel возвращает метку репозитория, создавая её при 404.
func (s *Service) EnsureLabel(ctx context.Context, ref domain.IssueRef, name string) (*tracker.Label, error) {
	name = truncateRunes(name, MaxLabelLength)

	label, err := s.tracker.GetLabel(ctx, ref.Owner, ref.Repo, name)
	if err == nil {
		return label, nil
	}
	if !errors.Is(err, tracker.ErrNotFound) {
		return nil, fmt.Errorf("get label %q: %w", name, err)
	}

	label, err = s.tracker.CreateLabel(ctx, ref.Owner, ref.Repo, tracker.Label{Name: name, Color: s.color()})
	if err != nil {
		return nil, fmt.Errorf("create label %q: %w", name, err)
	}
	return label, nil
}

// SuggestionsComment оборачивает исправленный текст в сворачиваемый блок.
func SuggestionsComment(correctedText string) string {
	return "<details>\n<summary>" + SuggestionsMarker + "</summary>\n\n" + correctedText + "\n</details>"
}

func containsMarker(comments []string, marker string) bool {
	for _, c := range comments {
		if strings.Contains(c, marker) {
			return true
		}
	}
	return false
}

// IsRetryable сообщает, стоит ли повторить Run после ошибки.
func IsRetryable(err error) bool {
	switch {
	case err == nil, errors.Is(err, ErrNoCorrectedText), errors.Is(err, domain.ErrInvalidRepo):
		return false
	case errors.Is(err, ErrCompletion):
		return llm.IsRetryable(err)
	default:
		return tracker.IsRetryable(err)
	}
}
