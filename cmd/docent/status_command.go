package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"docent/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return fmt.Errorf("fetch status: %w", err)
				}
				renderStatus(cmd, status)
				return nil
			})
		},
	}
}

func renderStatus(cmd *cobra.Command, status *ipc.StatusResponse) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	daemonSection(status).render(out, colorize)

	fmt.Fprintln(out)
	statusSection{title: "Sessions"}.render(out, colorize)
	rows := make([][]string, 0, len(status.SessionCounts))
	for _, name := range []string{"pending", "active", "completed", "abandoned"} {
		rows = append(rows, []string{name, strconv.Itoa(status.SessionCounts[name])})
	}
	fmt.Fprintln(out, renderTable(
		[]column{{header: "Status"}, {header: "Count", right: true}},
		rows,
	))
}

func daemonSection(status *ipc.StatusResponse) statusSection {
	daemon := statusLine{"Daemon", statusError, "stopped"}
	if status.Running {
		daemon = statusLine{"Daemon", statusOK, fmt.Sprintf("pid %d", status.PID)}
	}
	camera := statusLine{"Camera monitor", statusWarn, "hotplug detection disabled"}
	if status.CameraWatch {
		camera = statusLine{"Camera monitor", statusOK, "watching for hotplug events"}
	}
	return statusSection{
		title: "Daemon",
		lines: []statusLine{
			daemon,
			camera,
			{"Database", statusInfo, status.DBPath},
			{"Socket", statusInfo, status.SocketPath},
			{"Live sessions", statusInfo, strconv.Itoa(status.LiveSessions)},
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop()
				if err != nil {
					return fmt.Errorf("stop daemon: %w", err)
				}
				if resp.Stopped {
					fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
				}
				return nil
			})
		},
	}
}
