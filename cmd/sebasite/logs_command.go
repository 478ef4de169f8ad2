package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"sebasite/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var level string
	var event string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if lines < 0 {
				return fmt.Errorf("--lines must be zero or positive")
			}
			path := cfg.LogPath()
			filter := logs.Filter{MinLevel: level, EventType: event}
			out := cmd.OutOrStdout()
			printLine := func(line string) {
				if filter.Match(logs.ParseLine(line)) {
					fmt.Fprintln(out, line)
				}
			}

			result, err := logs.Tail(path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			if !follow && ctx.outputFormat() != outputTable {
				entries := make([]logEntryView, 0, len(result.Lines))
				for _, line := range result.Lines {
					entry := logs.ParseLine(line)
					if filter.Match(entry) {
						entries = append(entries, newLogEntryView(entry))
					}
				}
				return ctx.emit(cmd, entries, func(io.Writer) error { return nil })
			}
			for _, line := range result.Lines {
				printLine(line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, result.Offset, printLine)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level for structured lines (debug, info, warn, error)")
	cmd.Flags().StringVar(&event, "event", "", "Only show lines with this event_type")
	return cmd
}

type logEntryView struct {
	Time      string `json:"time,omitempty"`
	Level     string `json:"level,omitempty"`
	Message   string `json:"message,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Component string `json:"component,omitempty"`
	Raw       string `json:"raw,omitempty"`
}

func newLogEntryView(entry logs.Entry) logEntryView {
	if !entry.Structured {
		return logEntryView{Raw: entry.Raw}
	}
	return logEntryView{
		Time:      entry.Time,
		Level:     entry.Level,
		Message:   entry.Message,
		EventType: entry.EventType,
		Component: entry.Component,
	}
}
