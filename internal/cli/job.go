package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var jobHeaders = []string{"ID", "REPO", "ISSUE", "STATUS", "ATTEMPT", "LABELS", "SOURCE", "CREATED"}

func jobRow(j JobResponse) []string {
	return []string{
		j.ID, j.Repo, strconv.Itoa(j.IssueNumber), j.Status,
		strconv.Itoa(j.Attempt), formatLabels(j.Labels), j.Source, j.CreatedAt,
	}
}

// NewJobCmd создаёт группу команд для заданий на триаж.
func NewJobCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Manage triage jobs",
	}

	cmd.AddCommand(
		newJobCreateCmd(clientFn, outputFn),
		newJobListCmd(clientFn, outputFn),
		newJobShowCmd(clientFn, outputFn),
		newJobRetryCmd(clientFn, outputFn),
	)

	return cmd
}

func newJobCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var repo string
	var issueNumber int
	var fixTypos bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Queue an issue for triage",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.CreateJob(cmd.Context(), CreateJobRequest{
				Repo:            repo,
				IssueNumber:     issueNumber,
				FixTyposComment: fixTypos,
				Source:          "cli",
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job queued: %s", job.ID))
			out.Print(jobHeaders, [][]string{jobRow(*job)}, job)
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

func newJobListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListJobsOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List triage jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			jobs, err := client.ListJobs(cmd.Context(), opts)
			if err != nil {
				return err
			}

			rows := make([][]string, len(jobs))
			for i, j := range jobs {
				rows[i] = jobRow(j)
			}
			out.Print(jobHeaders, rows, jobs)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Repo, "repo", "", "Filter by repository")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status (PENDING, RUNNING, SUCCEEDED, FAILED)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newJobShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show JOB_ID",
		Short: "Show triage job details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.GetJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			headers := []string{"FIELD", "VALUE"}
			rows := [][]string{
				{"ID", job.ID},
				{"Repo", job.Repo},
				{"Issue", strconv.Itoa(job.IssueNumber)},
				{"Status", job.Status},
				{"Attempt", strconv.Itoa(job.Attempt)},
				{"Labels", formatLabels(job.Labels)},
				{"Title updated", formatBool(job.TitleUpdated)},
				{"Body updated", formatBool(job.BodyUpdated)},
				{"Fix typos comment", formatBool(job.FixTyposComment)},
				{"Source", job.Source},
				{"Created", job.CreatedAt},
			}
			if job.StartedAt != "" {
				rows = append(rows, []string{"Started", job.StartedAt})
			}
			if job.FinishedAt != "" {
				rows = append(rows, []string{"Finished", job.FinishedAt})
			}
			if job.Error != "" {
				rows = append(rows, []string{"Error", job.Error})
			}

			out.Print(headers, rows, job)
			return nil
		},
	}
}

func newJobRetryCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "retry JOB_ID",
		Short: "Retry a failed triage job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.RetryJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job requeued: %s", job.ID))
			out.Print(jobHeaders, [][]string{jobRow(*job)}, job)
			return nil
		},
	}
}
