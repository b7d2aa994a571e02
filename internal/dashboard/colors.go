package dashboard

const defaultMoodColor = "#6b7280"

var moodColors = map[string]string{
	"happy":      "#22c55e",
	"optimistic": "#22c55e",
	"good":       "#22c55e",
	"positive":   "#22c55e",
	"grateful":   "#22c55e",
	"sad":        "#ef4444",
	"stressed":   "#f59e0b",
	"relieved":   "#f59e0b",
	"anxious":    "#f59e0b",
	"neutral":    "#6b7280",
	"calm":       "#6b7280",
	"mixed":      "#8b5cf6",
}

// MoodColor returns the chart color for a lower-cased mood name.
func MoodColor(mood string) string {
	if c, ok := moodColors[mood]; ok {
		return c
	}
	return defaultMoodColor
}
