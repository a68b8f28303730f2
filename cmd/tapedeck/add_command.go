package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tapedeck/internal/ipc"
)

type addFlags struct {
	channel  string
	start    string
	end      string
	filename string
	profiles []string
}

func (f *addFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.channel, "channel", "", "Channel to record from")
	cmd.Flags().StringVar(&f.start, "start", "", "Recording start (e.g. 2006-01-02 15:04)")
	cmd.Flags().StringVar(&f.end, "end", "", "Recording end (e.g. 2006-01-02 16:04)")
	cmd.Flags().StringVar(&f.filename, "filename", "", "Capture filename")
	cmd.Flags().StringSliceVar(&f.profiles, "profile", nil, "Transcoding profile (repeatable)")
	_ = cmd.MarkFlagRequired("channel")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	_ = cmd.MarkFlagRequired("filename")
}

func (f *addFlags) request(title string) (ipc.AddRequest, error) {
	start, err := parseTimestamp(f.start)
	if err != nil {
		return ipc.AddRequest{}, fmt.Errorf("--start: %w", err)
	}
	end, err := parseTimestamp(f.end)
	if err != nil {
		return ipc.AddRequest{}, fmt.Errorf("--end: %w", err)
	}
	return ipc.AddRequest{
		Title:    title,
		Channel:  f.channel,
		Start:    start,
		End:      end,
		Filename: f.filename,
		Profiles: f.profiles,
	}, nil
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var flags addFlags
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Schedule a single recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Add(req)
				if err != nil {
					return err
				}
				rec := resp.Recording
				fmt.Fprintf(cmd.OutOrStdout(), "Scheduled recording %d on card %d (%s)\n", rec.ID, rec.Card, formatWindow(rec.Start, rec.End))
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newAddSeriesCommand(ctx *commandContext) *cobra.Command {
	var flags addFlags
	var ruleType string
	var count int
	var startNumber int
	var mangling string
	var prefix string

	cmd := &cobra.Command{
		Use:   "add-series <title>",
		Short: "Schedule a recurring series of recordings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := flags.request(args[0])
			if err != nil {
				return err
			}
			req := ipc.AddSeriesRequest{
				AddRequest: base,
				Rule: ipc.SeriesRule{
					Type:        ruleType,
					Count:       count,
					StartNumber: startNumber,
					Mangling:    mangling,
					Prefix:      prefix,
				},
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AddSeries(req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %d occurrences\n", len(resp.Occurrences))
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(recordingColumns, recordingRows(resp.Occurrences)))
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&ruleType, "repeat", "daily", "Recurrence type: daily, weekly, weekdays, weekends")
	cmd.Flags().IntVar(&count, "count", 0, "Number of occurrences (0 schedules up to the horizon)")
	cmd.Flags().IntVar(&startNumber, "first", 1, "Episode number of the first occurrence")
	cmd.Flags().StringVar(&mangling, "mangling", "numbered", "Name mangling: none, numbered or prefixed")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Prefix template for prefixed mangling")
	return cmd
}
