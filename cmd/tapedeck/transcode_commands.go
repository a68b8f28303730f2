package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tapedeck/internal/ipc"
)

func newProfilesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the loaded transcoding profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Profiles()
				if err != nil {
					return err
				}
				columns := []column{
					{name: "Name"},
					{name: "Video", right: true},
					{name: "Audio", right: true},
					{name: "Frame"},
					{name: "Passes", right: true},
					{name: "Ext"},
					{name: ""},
				}
				rows := make([][]string, 0, len(resp.Profiles))
				for _, p := range resp.Profiles {
					marker := ""
					if p.Default {
						marker = "default"
					}
					rows = append(rows, []string{
						p.Name,
						fmt.Sprintf("%s %dk", p.VideoCodec, p.VideoBitrate),
						fmt.Sprintf("%s %dk", p.AudioCodec, p.AudioBitrate),
						fmt.Sprintf("%dx%d", p.FrameWidth, p.FrameHeight),
						strconv.Itoa(p.Passes),
						p.Extension,
						marker,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(columns, rows))
				return nil
			})
		},
	}
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "Show running and queued transcode jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Jobs()
				if err != nil {
					return err
				}
				if len(resp.Jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No transcode jobs")
					return nil
				}
				columns := []column{
					{name: "ID", right: true},
					{name: "Slot", right: true},
					{name: "Source"},
					{name: "Profile"},
					{name: "State"},
					{name: "Elapsed", right: true},
				}
				rows := make([][]string, 0, len(resp.Jobs))
				for _, job := range resp.Jobs {
					slot := "-"
					if job.State == "running" || job.State == "killed" {
						slot = strconv.Itoa(job.Slot)
					}
					rows = append(rows, []string{
						strconv.FormatInt(job.ID, 10),
						slot,
						job.Source,
						job.Profile,
						stateLabel(job.State),
						formatElapsed(job.ElapsedSeconds),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(columns, rows))
				return nil
			})
		},
	}
}

func newKillCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "kill <slot>",
		Short: "Terminate the transcode running on a worker slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := parseSlot(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Kill(slot)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}
}
