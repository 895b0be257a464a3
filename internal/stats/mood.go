package stats

import "github.com/shopspring/decimal"

var sentimentLabels = map[int]string{
	1: "awful",
	2: "bad",
	3: "okay",
	4: "good",
	5: "great",
}

func ValidSentiment(v int) bool {
	return v >= 1 && v <= 5
}

// SentimentLabel names a 1-5 rating. Anything else, including no rating, is "unknown".
func SentimentLabel(sentiment *int) string {
	if sentiment == nil {
		return "unknown"
	}
	if label, ok := sentimentLabels[*sentiment]; ok {
		return label
	}
	return "unknown"
}

var (
	thresholdGreat = decimal.RequireFromString("4.5")
	thresholdGood  = decimal.RequireFromString("3.5")
	thresholdOkay  = decimal.RequireFromString("2.5")
	thresholdBad   = decimal.RequireFromString("1.5")
)

// DisplayMood is the average as shown to the user, one decimal place.
func DisplayMood(avg decimal.Decimal) decimal.Decimal {
	return avg.Round(1)
}

func MoodEmoji(avg decimal.Decimal) string {
	switch {
	case avg.GreaterThanOrEqual(thresholdGreat):
		return "😄"
	case avg.GreaterThanOrEqual(thresholdGood):
		return "🙂"
	case avg.GreaterThanOrEqual(thresholdOkay):
		return "😐"
	case avg.GreaterThanOrEqual(thresholdBad):
		return "😟"
	default:
		return "😢"
	}
}
