// Package stats derives journal statistics from a user's entries. Nothing here
// performs I/O: callers pass the entries, the current instant and the calendar
// the user lives in.
package stats

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gwi.com/journal-companion/internal/store"
	"gwi.com/journal-companion/internal/utils"
)

type TimeOfDay string

const (
	Morning   TimeOfDay = "Morning"
	Afternoon TimeOfDay = "Afternoon"
	Evening   TimeOfDay = "Evening"
	Night     TimeOfDay = "Night"
)

// bucketOrder doubles as the tie-break priority for FavoriteTimeOfDay.
var bucketOrder = []TimeOfDay{Morning, Afternoon, Evening, Night}

type Stats struct {
	TotalEntries      int             `json:"total_entries"`
	UniqueDays        int             `json:"unique_days"`
	CurrentStreak     int             `json:"current_streak"`
	LongestStreak     int             `json:"longest_streak"`
	AverageMood       decimal.Decimal `json:"average_mood"`
	TotalWords        int             `json:"total_words"`
	FavoriteTimeOfDay TimeOfDay       `json:"favorite_time_of_day"`
}

// StreakSummary is the reduced view shown next to the entry list.
type StreakSummary struct {
	CurrentStreak int `json:"current_streak"`
	TotalDays     int `json:"total_days"`
}

func (s Stats) Streak() StreakSummary {
	return StreakSummary{CurrentStreak: s.CurrentStreak, TotalDays: s.UniqueDays}
}

// Compute aggregates entries as seen from now in loc. Entries without a
// timestamp count towards totals, words and mood but not towards any
// calendar-based figure.
func Compute(entries []store.Entry, now time.Time, loc *time.Location) Stats {
	if loc == nil {
		loc = time.Local
	}

	st := Stats{
		TotalEntries:      len(entries),
		AverageMood:       decimal.Zero,
		FavoriteTimeOfDay: Morning,
	}

	days := make(map[time.Time]struct{})
	buckets := make(map[TimeOfDay]int, len(bucketOrder))
	moodSum, moodCount := 0, 0

	for _, e := range entries {
		st.TotalWords += utils.CountWords(e.Content)

		if e.Sentiment != nil && ValidSentiment(*e.Sentiment) {
			moodSum += *e.Sentiment
			moodCount++
		}

		if e.CreatedAt.IsZero() {
			continue
		}
		local := e.CreatedAt.In(loc)
		days[CalendarDay(local)] = struct{}{}
		buckets[BucketFor(local.Hour())]++
	}

	if moodCount > 0 {
		st.AverageMood = decimal.NewFromInt(int64(moodSum)).
			Div(decimal.NewFromInt(int64(moodCount)))
	}

	st.UniqueDays = len(days)
	st.CurrentStreak = currentStreak(days, CalendarDay(now.In(loc)))
	st.LongestStreak = longestStreak(days)
	st.FavoriteTimeOfDay = favorite(buckets)
	return st
}

// CalendarDay maps t to midnight UTC of its local year, month and day so that
// days can be compared and stepped without DST drift.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func BucketFor(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 21:
		return Evening
	default:
		return Night
	}
}

// currentStreak walks back from today. A missing today is skipped once and
// not counted.
func currentStreak(days map[time.Time]struct{}, today time.Time) int {
	day := today
	if _, ok := days[day]; !ok {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for {
		if _, ok := days[day]; !ok {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

func longestStreak(days map[time.Time]struct{}) int {
	if len(days) == 0 {
		return 0
	}

	sorted := make([]time.Time, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].AddDate(0, 0, 1).Equal(sorted[i]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

func favorite(buckets map[TimeOfDay]int) TimeOfDay {
	best, bestCount := Morning, 0
	for _, b := range bucketOrder {
		if buckets[b] > bestCount {
			best, bestCount = b, buckets[b]
		}
	}
	return best
}
