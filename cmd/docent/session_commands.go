package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"docent/internal/ipc"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and manage guest sessions",
	}

	sessionCmd.AddCommand(newSessionListCommand(ctx))
	sessionCmd.AddCommand(newSessionAbandonCommand(ctx))

	return sessionCmd
}

func newSessionListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, optionally filtered by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SessionList(statuses)
				if err != nil {
					return fmt.Errorf("list sessions: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(resp.Sessions) == 0 {
					fmt.Fprintln(out, "No sessions found")
					return nil
				}
				rows := make([][]string, 0, len(resp.Sessions))
				for _, sess := range resp.Sessions {
					rows = append(rows, []string{
						sess.ID,
						sess.ExperienceID,
						sess.Status,
						strconv.Itoa(sess.StepIndex),
						sess.UpdatedAt.Local().Format(time.RFC3339),
						sess.Reason,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]column{
						{header: "ID"},
						{header: "Experience"},
						{header: "Status"},
						{header: "Step", right: true},
						{header: "Updated"},
						{header: "Reason"},
					},
					rows,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Filter by status (pending, active, completed, abandoned)")
	return cmd
}

func newSessionAbandonCommand(ctx *commandContext) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "abandon <id>",
		Short: "End a session that is no longer being driven",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SessionAbandon(args[0], reason)
				if err != nil {
					return fmt.Errorf("abandon session: %w", err)
				}
				if resp.Abandoned {
					fmt.Fprintf(cmd.OutOrStdout(), "Session %s abandoned\n", args[0])
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded on the session")
	return cmd
}
