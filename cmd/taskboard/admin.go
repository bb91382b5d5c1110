package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rpggio/taskboard/internal/domain"
	"github.com/rpggio/taskboard/internal/domain/task"
	"github.com/rpggio/taskboard/internal/domain/user"
	"github.com/spf13/cobra"
)

func createUserCmd(a *app) *cobra.Command {
	var (
		password string
		email    string
		admin    bool
		inactive bool
	)
	cmd := &cobra.Command{
		Use:   "create-user <username>",
		Short: "Register a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := user.CreateRequest{Username: args[0], Password: password, IsAdmin: admin}
			if cmd.Flags().Changed("email") {
				req.Email = &email
			}
			if inactive {
				active := false
				req.IsActive = &active
			}
			u, err := a.users.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s\n", u.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant site admin")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "Create the account disabled")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func updateUserCmd(a *app) *cobra.Command {
	var (
		password string
		email    string
		active   bool
		admin    bool
	)
	cmd := &cobra.Command{
		Use:   "update-user <username>",
		Short: "Change a user's password, email, active or admin flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			var req user.UpdateRequest
			if fs.Changed("password") {
				req.Password = &password
			}
			if fs.Changed("email") {
				req.Email = &email
			}
			if fs.Changed("active") {
				req.IsActive = &active
			}
			if fs.Changed("admin") {
				req.IsAdmin = &admin
			}
			if err := a.users.Update(cmd.Context(), args[0], req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated user %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "New password")
	cmd.Flags().StringVar(&email, "email", "", "New email address")
	cmd.Flags().BoolVar(&active, "active", true, "Enable or disable the account")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant or revoke site admin")
	return cmd
}

func createProjectCmd(a *app) *cobra.Command {
	var start, owner string
	cmd := &cobra.Command{
		Use:   "create-project <title>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if start == "" {
				start = time.Now().Format(domain.InputDateLayout)
			}
			if err := requireUser(cmd, a, owner); err != nil {
				return err
			}
			p, err := a.projects.Create(cmd.Context(), args[0], start, owner)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created project %s (%s)\n", p.Title, p.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "Start date dd/mm/yyyy (default today)")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner username")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func listProjectsCmd(a *app) *cobra.Command {
	var username string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list-projects",
		Short: "List projects, optionally only those visible to a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			projects, err := a.projects.List(ctx)
			if username != "" {
				u, uerr := a.users.Get(ctx, username)
				if uerr != nil {
					return uerr
				}
				if u == nil {
					return fmt.Errorf("%w: %q", user.ErrUserNotFound, username)
				}
				projects, err = a.projects.ListVisible(ctx, username, u.IsAdmin)
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), projects)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TITLE\tOWNER\tSTART\tMEMBERS\tTASKS")
			for _, p := range projects {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", p.Title, p.Owner, p.StartDate, len(p.Members), len(p.AllTasks()))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "Only projects visible to this user")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func deleteProjectCmd(a *app) *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "delete-project <title>",
		Short: "Delete a project and its tasks (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.projects.DeleteAs(cmd.Context(), args[0], as); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted project %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "Acting username; must be the owner")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func addMemberCmd(a *app) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "add-member <project> <username>",
		Short: "Add a user to a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(cmd, a, args[1]); err != nil {
				return err
			}
			if err := a.projects.AddMember(cmd.Context(), args[0], args[1], domain.Role(role)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s\n", args[1], args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(domain.RoleMember), "Role (admin, member)")
	return cmd
}

func removeMemberCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-member <project> <username>",
		Short: "Remove a member from a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.projects.RemoveMember(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s from %s\n", args[1], args[0])
			return nil
		},
	}
}

func addTaskCmd(a *app) *cobra.Command {
	var (
		description string
		duration    int
		priority    string
		status      string
	)
	cmd := &cobra.Command{
		Use:   "add-task <project> <title>",
		Short: "Add a task to a project board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.tasks.Add(cmd.Context(), task.AddRequest{
				Project:      args[0],
				Title:        args[1],
				Description:  description,
				DurationDays: duration,
				Priority:     domain.Priority(priority),
				Status:       domain.Status(status),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s %s (%s → %s)\n", t.Title, args[0], t.Status, t.StartDate, t.EndDate)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	cmd.Flags().IntVar(&duration, "duration", 0, "Duration in days")
	cmd.Flags().StringVar(&priority, "priority", "", "CRITICAL, HIGH, MEDIUM or LOW (default LOW)")
	cmd.Flags().StringVar(&status, "status", "", "Bucket (default TODO)")
	_ = cmd.MarkFlagRequired("duration")
	return cmd
}

func moveTaskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move-task <project> <title> <status>",
		Short: "Move a task to another bucket",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tasks.Move(cmd.Context(), args[0], args[1], domain.Status(args[2])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "moved %s to %s\n", args[1], strings.ToUpper(args[2]))
			return nil
		},
	}
}

func deleteTaskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-task <project> <title>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tasks.Delete(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted task %s\n", args[1])
			return nil
		},
	}
}

func assignMemberCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "assign-member <project> <title> <username>",
		Short: "Assign a project member to a task",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tasks.Assign(cmd.Context(), args[0], args[1], args[2]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "assigned %s to %s\n", args[2], args[1])
			return nil
		},
	}
}

func removeAssigneeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-assignee <project> <title> <username>",
		Short: "Remove an assignee from a task",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tasks.Unassign(cmd.Context(), args[0], args[1], args[2]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unassigned %s from %s\n", args[2], args[1])
			return nil
		},
	}
}

func listTasksCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list-tasks <project>",
		Short: "Show a project's board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, err := a.tasks.Board(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), board)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, status := range domain.Statuses {
				fmt.Fprintf(w, "%s (%d)\n", status, len(board[status]))
				for _, t := range board[status] {
					fmt.Fprintf(w, "  %s\t%s\t%s → %s\t%s\n", t.Title, t.Priority, t.StartDate, t.EndDate, strings.Join(t.Assignees, ","))
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func purgeDataCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "purge-data",
		Short: "Delete every user, project and task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("purge-data deletes everything; rerun with --yes")
			}
			if err := a.repo.Purge(cmd.Context()); err != nil {
				return err
			}
			a.logger.Warn("store purged")
			fmt.Fprintln(cmd.OutOrStdout(), "purged all data")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm")
	return cmd
}

// requireUser fails unless username is a registered user.
func requireUser(cmd *cobra.Command, a *app, username string) error {
	u, err := a.users.Get(cmd.Context(), username)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("%w: %q", user.ErrUserNotFound, username)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
