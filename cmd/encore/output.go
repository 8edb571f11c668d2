package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"encore/internal/resume"
)

// resumeTable renders stored resume points. Positions are right-aligned
// so durations of mixed magnitude line up.
func resumeTable(records []resume.Record) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"KEY", "POSITION", "UPDATED"})
	for _, rec := range records {
		tw.AppendRow(table.Row{
			rec.Key,
			formatPosition(rec.PositionMS),
			rec.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// formatPosition renders a stored position. The zero sentinel means the
// content was watched to the end.
func formatPosition(positionMS int64) string {
	if positionMS <= 0 {
		return "watched"
	}
	return (time.Duration(positionMS) * time.Millisecond).Round(time.Second).String()
}

// printJSON writes v as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
