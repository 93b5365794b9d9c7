package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var workspaceHeaders = []string{"ID", "NAME", "CREATED"}

func workspaceRow(ws WorkspaceResponse) []string {
	return []string{itoa(ws.ID), ws.Name, ws.CreatedAt}
}

// NewWorkspaceCmd создаёт группу команд для workspaces.
func NewWorkspaceCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage workspaces",
	}

	cmd.AddCommand(
		newWorkspaceListCmd(clientFn, outputFn),
		newWorkspaceCreateCmd(clientFn, outputFn),
		newWorkspaceMembersCmd(clientFn, outputFn),
		newWorkspaceAddMemberCmd(clientFn, outputFn),
	)

	return cmd
}

func newWorkspaceListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var skip, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspaces, err := clientFn().ListWorkspaces(cmd.Context(), skip, limit)
			if err != nil {
				return err
			}

			rows := make([][]string, len(workspaces))
			for i, ws := range workspaces {
				rows[i] = workspaceRow(ws)
			}
			outputFn().Print(workspaceHeaders, rows, workspaces)
			return nil
		},
	}

	cmd.Flags().IntVar(&skip, "skip", 0, "Number of workspaces to skip")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newWorkspaceCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			ws, err := clientFn().CreateWorkspace(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workspace created: %d", ws.ID))
			out.Print(workspaceHeaders, [][]string{workspaceRow(*ws)}, ws)
			return nil
		},
	}
}

func newWorkspaceMembersCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "members WORKSPACE_ID",
		Short: "List workspace members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			users, err := clientFn().ListMembers(cmd.Context(), id)
			if err != nil {
				return err
			}

			rows := make([][]string, len(users))
			for i, u := range users {
				rows[i] = userRow(u)
			}
			outputFn().Print(userHeaders, rows, users)
			return nil
		},
	}
}

func newWorkspaceAddMemberCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "add-member WORKSPACE_ID USER_ID",
		Short: "Add a user to a workspace",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			workspaceID, err := parseID(args[0])
			if err != nil {
				return err
			}
			userID, err := parseID(args[1])
			if err != nil {
				return err
			}

			m, err := clientFn().AddMember(cmd.Context(), workspaceID, userID)
			if err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("User %d added to workspace %d", m.UserID, m.WorkspaceID))
			return nil
		},
	}
}
