package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gwi.com/journal-companion/internal/stats"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Width(22)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dayStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show streaks, mood and writing totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		st, err := s.entries.Stats(ctx, s.user)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderStats(s.user.Email, st))
		return nil
	},
}

func renderStats(email string, st stats.Stats) string {
	mood := stats.DisplayMood(st.AverageMood)
	rows := []struct {
		label string
		value string
	}{
		{"Entries", fmt.Sprint(st.TotalEntries)},
		{"Days journaled", fmt.Sprint(st.UniqueDays)},
		{"Current streak", fmt.Sprintf("%d day(s)", st.CurrentStreak)},
		{"Longest streak", fmt.Sprintf("%d day(s)", st.LongestStreak)},
		{"Average mood", fmt.Sprintf("%s %s", mood.StringFixed(1), stats.MoodEmoji(mood))},
		{"Words written", fmt.Sprint(st.TotalWords)},
		{"Favorite time of day", string(st.FavoriteTimeOfDay)},
	}

	lines := []string{headerStyle.Render("Journal stats for " + email)}
	for _, row := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(row.label), valueStyle.Render(row.value)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
