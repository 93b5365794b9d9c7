package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var taskHeaders = []string{"ID", "TITLE", "USER_ID", "CREATED"}

func taskRow(t TaskResponse) []string {
	return []string{itoa(t.ID), t.Title, formatUserID(t.UserID), t.CreatedAt}
}

// NewTaskCmd создаёт группу команд для tasks.
func NewTaskCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}

	cmd.AddCommand(
		newTaskListCmd(clientFn, outputFn),
		newTaskCreateCmd(clientFn, outputFn),
		newTaskDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

func newTaskListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var userID int64
	var skip, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := clientFn().ListTasks(cmd.Context(), userID, skip, limit)
			if err != nil {
				return err
			}

			rows := make([][]string, len(tasks))
			for i, t := range tasks {
				rows[i] = taskRow(t)
			}
			outputFn().Print(taskHeaders, rows, tasks)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user-id", 0, "Filter by owner")
	cmd.Flags().IntVar(&skip, "skip", 0, "Number of tasks to skip")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newTaskCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var req CreateTaskRequest
	var userID int64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			if cmd.Flags().Changed("user-id") {
				req.UserID = &userID
			}

			task, err := clientFn().CreateTask(cmd.Context(), req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Task created: %d", task.ID))
			out.Print(taskHeaders, [][]string{taskRow(*task)}, task)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "Task title")
	cmd.Flags().StringVar(&req.Description, "description", "", "Task description")
	cmd.Flags().Int64Var(&userID, "user-id", 0, "Owner user ID")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newTaskDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete TASK_ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := clientFn().DeleteTask(cmd.Context(), id); err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("Task deleted: %d", id))
			return nil
		},
	}
}
