package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gwi.com/journal-companion/internal/core"
	"gwi.com/journal-companion/internal/stats"
	"gwi.com/journal-companion/internal/utils"
)

const previewLength = 80

var (
	entriesQuery     string
	entriesSentiment int
	entriesDay       string
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List entries grouped by day",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		filter := core.EntryFilter{Query: entriesQuery}
		if cmd.Flags().Changed("sentiment") {
			if !stats.ValidSentiment(entriesSentiment) {
				return fmt.Errorf("--sentiment must be between 1 and 5")
			}
			filter.Sentiment = &entriesSentiment
		}
		if entriesDay != "" {
			day, err := time.ParseInLocation(time.DateOnly, entriesDay, time.UTC)
			if err != nil {
				return fmt.Errorf("--day must look like 2006-01-02: %w", err)
			}
			filter.Day = &day
		}

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		entries, err := s.entries.List(ctx, s.user, filter)
		if err != nil {
			return err
		}

		loc := s.entries.Location()
		printGroups(cmd.OutOrStdout(), core.GroupByDay(entries, time.Now(), loc), loc)
		return nil
	},
}

func printGroups(w io.Writer, groups []core.DayGroup, loc *time.Location) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No entries found.")
		return
	}
	for _, g := range groups {
		fmt.Fprintln(w, dayStyle.Render(fmt.Sprintf("%s (%d)", g.Label, len(g.Entries))))
		for _, e := range g.Entries {
			fmt.Fprintf(w, "  %s  #%d %s [%s]\n", timeStyle.Render(e.CreatedAt.In(loc).Format(time.Kitchen)), e.ID, e.Title, stats.SentimentLabel(e.Sentiment))
			fmt.Fprintf(w, "      %s\n", utils.Truncate(e.Content, previewLength))
		}
		fmt.Fprintln(w)
	}
}

var (
	addTitle     string
	addContent   string
	addSentiment int
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Write a new entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		in := core.NewEntry{Title: addTitle, Content: addContent}
		if cmd.Flags().Changed("sentiment") {
			in.Sentiment = &addSentiment
		}

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		entry, err := s.entries.Create(ctx, s.user, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved entry #%d\n", entry.ID)
		return nil
	},
}

func init() {
	entriesCmd.Flags().StringVarP(&entriesQuery, "query", "q", "", "Only entries whose title or content contains this text")
	entriesCmd.Flags().IntVarP(&entriesSentiment, "sentiment", "s", 0, "Only entries rated with this sentiment (1-5)")
	entriesCmd.Flags().StringVarP(&entriesDay, "day", "d", "", "Only entries written on this day (YYYY-MM-DD)")

	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "Entry title")
	addCmd.Flags().StringVarP(&addContent, "content", "c", "", "Entry text")
	addCmd.Flags().IntVarP(&addSentiment, "sentiment", "s", 0, "Sentiment from 1 (awful) to 5 (great)")
}
