package stats

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gwi.com/journal-companion/internal/store"
)

var (
	testLoc = time.FixedZone("UTC+2", 2*60*60)
	testNow = time.Date(2024, time.March, 10, 15, 0, 0, 0, testLoc)
)

func intPtr(v int) *int { return &v }

// entryAt builds an entry daysAgo calendar days before testNow at the given local hour.
func entryAt(daysAgo, hour int) store.Entry {
	y, m, d := testNow.Date()
	return store.Entry{
		Title:     "entry",
		Content:   "some words here",
		CreatedAt: time.Date(y, m, d-daysAgo, hour, 30, 0, 0, testLoc),
	}
}

func entriesOn(daysAgo ...int) []store.Entry {
	entries := make([]store.Entry, 0, len(daysAgo))
	for _, d := range daysAgo {
		entries = append(entries, entryAt(d, 9))
	}
	return entries
}

func TestCompute_Empty(t *testing.T) {
	st := Compute(nil, testNow, testLoc)

	if st.TotalEntries != 0 || st.UniqueDays != 0 || st.CurrentStreak != 0 || st.LongestStreak != 0 || st.TotalWords != 0 {
		t.Errorf("expected zero stats, got %+v", st)
	}
	if !st.AverageMood.IsZero() {
		t.Errorf("AverageMood = %s, want 0", st.AverageMood)
	}
	if st.FavoriteTimeOfDay != Morning {
		t.Errorf("FavoriteTimeOfDay = %s, want Morning", st.FavoriteTimeOfDay)
	}
}

func TestCompute_CurrentStreak(t *testing.T) {
	tests := []struct {
		name        string
		days        []int
		wantCurrent int
		wantLongest int
	}{
		{"three consecutive days ending today", []int{0, 1, 2}, 3, 3},
		{"today and three days ago", []int{0, 3}, 1, 1},
		{"today missing, four days before", []int{1, 2, 3, 4}, 4, 4},
		{"today and yesterday both missing", []int{2, 3, 4}, 0, 3},
		{"only today", []int{0}, 1, 1},
		{"several entries on one day", []int{0, 0, 0, 1}, 2, 2},
		{"longer run in the past", []int{0, 5, 6, 7, 8, 9}, 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Compute(entriesOn(tt.days...), testNow, testLoc)
			if st.CurrentStreak != tt.wantCurrent {
				t.Errorf("CurrentStreak = %d, want %d", st.CurrentStreak, tt.wantCurrent)
			}
			if st.LongestStreak != tt.wantLongest {
				t.Errorf("LongestStreak = %d, want %d", st.LongestStreak, tt.wantLongest)
			}
		})
	}
}

func TestCompute_UsesLocalCalendarDay(t *testing.T) {
	// 23:30 UTC on March 9 is already March 10 in UTC+2.
	entries := []store.Entry{{CreatedAt: time.Date(2024, time.March, 9, 23, 30, 0, 0, time.UTC)}}

	st := Compute(entries, testNow, testLoc)
	if st.CurrentStreak != 1 {
		t.Errorf("CurrentStreak = %d, want 1", st.CurrentStreak)
	}

	st = Compute(entries, testNow, time.UTC)
	if st.CurrentStreak != 1 {
		t.Errorf("CurrentStreak in UTC = %d, want 1 (yesterday keeps the streak)", st.CurrentStreak)
	}
}

func TestCompute_StreakAcrossDSTChange(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	now := time.Date(2024, time.March, 31, 20, 0, 0, 0, loc)
	entries := []store.Entry{
		{CreatedAt: time.Date(2024, time.March, 29, 23, 50, 0, 0, loc)},
		{CreatedAt: time.Date(2024, time.March, 30, 0, 10, 0, 0, loc)},
		{CreatedAt: time.Date(2024, time.March, 31, 23, 0, 0, 0, loc).Add(-2 * time.Hour)},
	}

	st := Compute(entries, now, loc)
	if st.CurrentStreak != 3 {
		t.Errorf("CurrentStreak = %d, want 3", st.CurrentStreak)
	}
}

func TestCompute_AverageMood(t *testing.T) {
	tests := []struct {
		name       string
		sentiments []*int
		want       string
	}{
		{"no ratings", []*int{nil, nil}, "0"},
		{"single rating", []*int{intPtr(4)}, "4"},
		{"not rounded", []*int{intPtr(5), intPtr(4), intPtr(4), intPtr(4)}, "4.25"},
		{"unrated entries ignored", []*int{intPtr(2), nil, intPtr(3)}, "2.5"},
		{"out of range ignored", []*int{intPtr(9), intPtr(1)}, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entries []store.Entry
			for _, s := range tt.sentiments {
				e := entryAt(0, 9)
				e.Sentiment = s
				entries = append(entries, e)
			}
			st := Compute(entries, testNow, testLoc)
			if !st.AverageMood.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("AverageMood = %s, want %s", st.AverageMood, tt.want)
			}
		})
	}
}

func TestCompute_TotalWords(t *testing.T) {
	entries := []store.Entry{
		{Content: "hello world"},
		{Content: ""},
		{Content: "  three\tlittle\nwords "},
	}
	st := Compute(entries, testNow, testLoc)
	if st.TotalWords != 5 {
		t.Errorf("TotalWords = %d, want 5", st.TotalWords)
	}
	if st.TotalEntries != 3 {
		t.Errorf("TotalEntries = %d, want 3", st.TotalEntries)
	}
}

func TestCompute_FavoriteTimeOfDay(t *testing.T) {
	tests := []struct {
		name  string
		hours []int
		want  TimeOfDay
	}{
		{"mostly evening", []int{18, 19, 9}, Evening},
		{"night wraps midnight", []int{23, 2, 4, 13}, Night},
		{"tie prefers morning", []int{6, 13}, Morning},
		{"tie prefers afternoon over night", []int{12, 22}, Afternoon},
		{"boundaries", []int{5, 12, 17, 21, 21}, Night},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entries []store.Entry
			for _, h := range tt.hours {
				entries = append(entries, entryAt(0, h))
			}
			if got := Compute(entries, testNow, testLoc).FavoriteTimeOfDay; got != tt.want {
				t.Errorf("FavoriteTimeOfDay = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCompute_SkipsMissingTimestamps(t *testing.T) {
	entries := []store.Entry{
		{Content: "no date", Sentiment: intPtr(5)},
		entryAt(0, 20),
	}
	st := Compute(entries, testNow, testLoc)

	if st.TotalEntries != 2 {
		t.Errorf("TotalEntries = %d, want 2", st.TotalEntries)
	}
	if st.UniqueDays != 1 {
		t.Errorf("UniqueDays = %d, want 1", st.UniqueDays)
	}
	if st.FavoriteTimeOfDay != Evening {
		t.Errorf("FavoriteTimeOfDay = %s, want Evening", st.FavoriteTimeOfDay)
	}
	if !st.AverageMood.Equal(decimal.NewFromInt(5)) {
		t.Errorf("AverageMood = %s, want 5", st.AverageMood)
	}
}

func TestCompute_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	one, five := decimal.NewFromInt(1), decimal.NewFromInt(5)

	for i := 0; i < 500; i++ {
		n := rng.Intn(30)
		entries := make([]store.Entry, 0, n)
		rated := false
		for j := 0; j < n; j++ {
			e := entryAt(rng.Intn(20), rng.Intn(24))
			if rng.Intn(3) > 0 {
				e.Sentiment = intPtr(1 + rng.Intn(5))
				rated = true
			}
			entries = append(entries, e)
		}

		st := Compute(entries, testNow, testLoc)
		if st.LongestStreak < st.CurrentStreak {
			t.Fatalf("LongestStreak %d < CurrentStreak %d for %v", st.LongestStreak, st.CurrentStreak, entries)
		}
		if rated {
			if st.AverageMood.LessThan(one) || st.AverageMood.GreaterThan(five) {
				t.Fatalf("AverageMood %s outside [1,5]", st.AverageMood)
			}
		} else if !st.AverageMood.IsZero() {
			t.Fatalf("AverageMood = %s with no ratings", st.AverageMood)
		}
		if st.UniqueDays > st.TotalEntries {
			t.Fatalf("UniqueDays %d > TotalEntries %d", st.UniqueDays, st.TotalEntries)
		}
	}
}

func TestStats_Streak(t *testing.T) {
	st := Compute(entriesOn(1, 2, 7), testNow, testLoc)
	got := st.Streak()
	if got.CurrentStreak != 2 || got.TotalDays != 3 {
		t.Errorf("Streak() = %+v, want {2 3}", got)
	}
}
