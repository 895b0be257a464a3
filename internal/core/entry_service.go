package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gwi.com/journal-companion/internal/auth"
	"gwi.com/journal-companion/internal/stats"
	"gwi.com/journal-companion/internal/store"
)

// EntryService is the user-scoped gateway to journal entries.
type EntryService struct {
	store   store.EntryStore
	changes store.ChangeSource
	loc     *time.Location
	now     func() time.Time
}

func NewEntryService(st store.EntryStore, changes store.ChangeSource, loc *time.Location) *EntryService {
	if loc == nil {
		loc = time.Local
	}
	return &EntryService{store: st, changes: changes, loc: loc, now: time.Now}
}

func (s *EntryService) Location() *time.Location {
	return s.loc
}

type NewEntry struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Sentiment *int       `json:"sentiment"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func (in NewEntry) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Msg: "is required"}
	}
	if strings.TrimSpace(in.Content) == "" {
		return &ValidationError{Field: "content", Msg: "is required"}
	}
	if in.Sentiment != nil && !stats.ValidSentiment(*in.Sentiment) {
		return &ValidationError{Field: "sentiment", Msg: "must be between 1 and 5"}
	}
	return nil
}

func (s *EntryService) Create(ctx context.Context, u auth.UserContext, in NewEntry) (*store.Entry, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	entry := &store.Entry{
		UserID:    u.UserID,
		Title:     strings.TrimSpace(in.Title),
		Content:   strings.TrimSpace(in.Content),
		Sentiment: in.Sentiment,
		CreatedAt: s.now(),
	}
	if in.CreatedAt != nil && !in.CreatedAt.IsZero() {
		entry.CreatedAt = *in.CreatedAt
	}

	if err := s.store.InsertEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}
	return entry, nil
}

// EntryFilter narrows a listing. Zero values match everything.
type EntryFilter struct {
	Query     string
	Sentiment *int
	// Day selects one calendar day, as returned by stats.CalendarDay.
	Day *time.Time
}

func (s *EntryService) List(ctx context.Context, u auth.UserContext, f EntryFilter) ([]store.Entry, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	entries, err := s.store.ListEntries(ctx, u.UserID, 0)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return FilterEntries(entries, f, s.loc), nil
}

// Recent returns at most limit entries, newest first.
func (s *EntryService) Recent(ctx context.Context, u auth.UserContext, limit int) ([]store.Entry, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	entries, err := s.store.ListEntries(ctx, u.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent entries: %w", err)
	}
	return entries, nil
}

func (s *EntryService) Grouped(ctx context.Context, u auth.UserContext) ([]DayGroup, error) {
	entries, err := s.List(ctx, u, EntryFilter{})
	if err != nil {
		return nil, err
	}
	return GroupByDay(entries, s.now(), s.loc), nil
}

func (s *EntryService) Stats(ctx context.Context, u auth.UserContext) (stats.Stats, error) {
	entries, err := s.List(ctx, u, EntryFilter{})
	if err != nil {
		return stats.Stats{}, err
	}
	return stats.Compute(entries, s.now(), s.loc), nil
}

func (s *EntryService) Delete(ctx context.Context, u auth.UserContext, id int64) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if err := s.store.DeleteEntry(ctx, u.UserID, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

func (s *EntryService) DeleteAll(ctx context.Context, u auth.UserContext) (int64, error) {
	if err := u.Validate(); err != nil {
		return 0, err
	}
	n, err := s.store.DeleteAllEntries(ctx, u.UserID)
	if err != nil {
		return 0, fmt.Errorf("delete all entries: %w", err)
	}
	return n, nil
}

// Subscribe calls fn whenever one of the user's entries changes. fn must not block.
func (s *EntryService) Subscribe(u auth.UserContext, fn func(store.ChangeEvent)) (func(), error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return s.changes.Subscribe(u.UserID, fn), nil
}

func FilterEntries(entries []store.Entry, f EntryFilter, loc *time.Location) []store.Entry {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]store.Entry, 0, len(entries))
	for _, e := range entries {
		if query != "" &&
			!strings.Contains(strings.ToLower(e.Title), query) &&
			!strings.Contains(strings.ToLower(e.Content), query) {
			continue
		}
		if f.Sentiment != nil && (e.Sentiment == nil || *e.Sentiment != *f.Sentiment) {
			continue
		}
		if f.Day != nil {
			if e.CreatedAt.IsZero() || !stats.CalendarDay(e.CreatedAt.In(loc)).Equal(*f.Day) {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

type DayGroup struct {
	Day     time.Time     `json:"day"`
	Label   string        `json:"label"`
	Entries []store.Entry `json:"entries"`
}

const dayLabelLayout = "Monday, January 2, 2006"

// GroupByDay buckets entries by local calendar day, newest day first. Entries
// keep their relative order inside a day.
func GroupByDay(entries []store.Entry, now time.Time, loc *time.Location) []DayGroup {
	index := make(map[time.Time]int)
	var groups []DayGroup
	for _, e := range entries {
		if e.CreatedAt.IsZero() {
			continue
		}
		day := stats.CalendarDay(e.CreatedAt.In(loc))
		i, ok := index[day]
		if !ok {
			i = len(groups)
			index[day] = i
			groups = append(groups, DayGroup{Day: day})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Day.After(groups[j].Day) })

	today := stats.CalendarDay(now.In(loc))
	for i := range groups {
		groups[i].Label = DayLabel(groups[i].Day, today)
	}
	return groups
}

func DayLabel(day, today time.Time) string {
	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return day.Format(dayLabelLayout)
	}
}
