package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/Triage/internal/domain"
	"github.com/shaiso/Triage/internal/triage"
)

// IssueRunner выполняет триаж одного issue. Реализуется *triage.Service.
type IssueRunner interface {
	Run(ctx context.Context, ref domain.IssueRef, opts triage.Options) (*triage.Result, error)
}

// NewIssueCmd создаёт команду локального триажа одного issue.
//
// Команда обращается к GitHub и chat API напрямую, без triage-api.
// Ненулевой код выхода, если модель не вернула исправленный текст
// или chat API недоступен.
func NewIssueCmd(runnerFn func(ctx context.Context) (IssueRunner, error), outputFn func() *Output) *cobra.Command {
	var repo string
	var issueNumber int
	var fixTypos bool

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Triage a single issue locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			ref, err := domain.NewIssueRef(repo, issueNumber)
			if err != nil {
				return err
			}

			runner, err := runnerFn(cmd.Context())
			if err != nil {
				return err
			}

			result, runErr := runner.Run(cmd.Context(), ref, triage.Options{FixTyposComment: fixTypos})
			if runErr != nil && !errors.Is(runErr, triage.ErrNoCorrectedText) {
				return runErr
			}

			printResult(out, ref, result)

			if runErr != nil {
				out.Warn("no corrected text provided by the model")
				return runErr
			}
			out.Success(fmt.Sprintf("Issue %s triaged", ref))
			return nil
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "Repository in owner/repo form")
	cmd.Flags().IntVar(&issueNumber, "issue-number", 0, "Issue number")
	cmd.Flags().BoolVar(&fixTypos, "fix-typos-comment", false, "Post corrected text as a collapsible comment")
	_ = cmd.MarkFlagRequired("repo")
	_ = cmd.MarkFlagRequired("issue-number")

	return cmd
}

// issueResult: JSON представление результата для --json.
type issueResult struct {
	Issue         string   `json:"issue"`
	Labels        []string `json:"labels"`
	DefaultLabel  bool     `json:"default_label"`
	SkippedLabels []string `json:"skipped_labels,omitempty"`
	TitleUpdated  bool     `json:"title_updated"`
	BodyUpdated   bool     `json:"body_updated"`
	Comments      int      `json:"comments"`
}

func printResult(out *Output, ref domain.IssueRef, result *triage.Result) {
	if result == nil {
		result = &triage.Result{}
	}
	labels := result.Labels
	if labels == nil {
		labels = []string{}
	}

	rows := [][]string{
		{"Issue", ref.String()},
		{"Labels", formatLabels(result.Labels)},
		{"Default label", formatBool(result.DefaultLabel)},
		{"Title updated", formatBool(result.TitleUpdated)},
		{"Body updated", formatBool(result.BodyUpdated)},
		{"Comments posted", itoa(int64(result.Comments))},
	}
	if len(result.SkippedLabels) > 0 {
		rows = append(rows, []string{"Skipped labels", formatLabels(result.SkippedLabels)})
	}

	out.Print([]string{"FIELD", "VALUE"}, rows, issueResult{
		Issue:         ref.String(),
		Labels:        labels,
		DefaultLabel:  result.DefaultLabel,
		SkippedLabels: result.SkippedLabels,
		TitleUpdated:  result.TitleUpdated,
		BodyUpdated:   result.BodyUpdated,
		Comments:      result.Comments,
	})
}
