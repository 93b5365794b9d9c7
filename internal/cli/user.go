package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var userHeaders = []string{"ID", "USERNAME", "EMAIL", "CREATED"}

func userRow(u UserResponse) []string {
	return []string{itoa(u.ID), u.Username, u.Email, u.CreatedAt}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// NewUserCmd создаёт группу команд для пользователей.
func NewUserCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.AddCommand(
		newUserListCmd(clientFn, outputFn),
		newUserCreateCmd(clientFn, outputFn),
		newUserShowCmd(clientFn, outputFn),
		newUserDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

func newUserListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var skip, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := clientFn().ListUsers(cmd.Context(), skip, limit)
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

	cmd.Flags().IntVar(&skip, "skip", 0, "Number of users to skip")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newUserCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			user, err := clientFn().CreateUser(cmd.Context(), username, email)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("User created: %d", user.ID))
			out.Print(userHeaders, [][]string{userRow(*user)}, user)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&email, "email", "", "Email")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newUserShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show USER_ID",
		Short: "Show user details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			user, err := clientFn().GetUser(cmd.Context(), id)
			if err != nil {
				return err
			}

			outputFn().Print(userHeaders, [][]string{userRow(*user)}, user)
			return nil
		},
	}
}

func newUserDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete USER_ID",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := clientFn().DeleteUser(cmd.Context(), id); err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("User deleted: %d", id))
			return nil
		},
	}
}
