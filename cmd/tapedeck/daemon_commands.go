package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tapedeck/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				uptime := time.Duration(resp.UptimeSeconds * float64(time.Second)).Truncate(time.Second)
				fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d, up %s)", resp.PID, uptime), colorize))
				fmt.Fprintln(out, renderStatusLine("Cards", statusInfo, fmt.Sprintf("%d", resp.Cards), colorize))
				fmt.Fprintln(out, renderStatusLine("Recordings", statusInfo, fmt.Sprintf("%d scheduled", resp.Entries), colorize))
				fmt.Fprintln(out, renderStatusLine("Workers", statusInfo, fmt.Sprintf("%d", resp.Workers), colorize))

				jobsKind := statusOK
				if resp.Failed > 0 {
					jobsKind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Transcodes", jobsKind, fmt.Sprintf("%d completed, %d failed, %d killed", resp.Completed, resp.Failed, resp.Killed), colorize))
				fmt.Fprintln(out, renderStatusLine("Catalog", statusInfo, resp.CatalogPath, colorize))
				return nil
			})
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
					return err
				}
				if resp.Stopped {
					fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopping")
				}
				return nil
			})
		},
	}
}
