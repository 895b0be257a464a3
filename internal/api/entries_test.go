package api

import (
	"testing"

	"github.com/shopspring/decimal"
	"gwi.com/journal-companion/internal/stats"
)

func TestNewStatsResponse(t *testing.T) {
	tests := []struct {
		avg       string
		wantMood  float64
		wantEmoji string
	}{
		{"4.3333333333333333", 4.3, "🙂"},
		{"4.46", 4.5, "😄"},
		{"1.45", 1.5, "😟"},
		{"0", 0, "😢"},
	}
	for _, tt := range tests {
		avg := decimal.RequireFromString(tt.avg)
		resp := newStatsResponse(stats.Stats{AverageMood: avg})
		if resp.AverageMood != tt.wantMood || resp.MoodEmoji != tt.wantEmoji {
			t.Errorf("avg %s: got %v %s, want %v %s", tt.avg, resp.AverageMood, resp.MoodEmoji, tt.wantMood, tt.wantEmoji)
		}
		if !resp.Stats.AverageMood.Equal(avg) {
			t.Errorf("avg %s: embedded stats changed to %s", tt.avg, resp.Stats.AverageMood)
		}
	}
}
