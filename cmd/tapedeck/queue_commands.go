package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tapedeck/internal/ipc"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var card int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scheduled recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.List(card)
				if err != nil {
					return err
				}
				if len(resp.Recordings) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No recordings scheduled")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(recordingColumns, recordingRows(resp.Recordings)))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&card, "card", -1, "Restrict listing to one card")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	var series bool
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a scheduled recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordingID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Remove(id, series)
				if err != nil {
					return err
				}
				if len(resp.Removed) == 1 {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed recording %d\n", resp.Removed[0].ID)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d recordings\n", len(resp.Removed))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&series, "series", false, "Remove every occurrence of the series")
	return cmd
}
