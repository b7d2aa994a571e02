package dashboard

import (
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
	"github.com/angelmondragon/moodjournal-backend/pkg/enums"
)

const (
	filterAll         = "all"
	unknownMood       = "unknown"
	noTopMood         = "N/A"
	stressSeriesLimit = 7
	monthWindow       = 30 * 24 * time.Hour
)

type Filters struct {
	DateRange enums.DateRange
	Mood      string
	Topic     string
}

type MoodBucket struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

type StressPoint struct {
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	StressLevel int       `json:"stress_level"`
}

type Summary struct {
	FilteredEntries  []models.JournalEntry `json:"-"`
	MoodDistribution []MoodBucket          `json:"mood_distribution"`
	StressSeries     []StressPoint         `json:"stress_series"`
	AvgStress        float64               `json:"avg_stress"`
	TopMood          string                `json:"top_mood"`
}

type Options struct {
	Moods  []string `json:"moods"`
	Topics []string `json:"topics"`
}

// Aggregate filters entries (newest first) and derives the dashboard statistics.
// It performs no I/O; now fixes both the clock and the calendar location.
func Aggregate(entries []models.JournalEntry, filters Filters, now time.Time) Summary {
	filtered := make([]models.JournalEntry, 0, len(entries))
	for _, e := range entries {
		if matchesDate(e.CreatedAt, filters.DateRange, now) &&
			matchesText(e.Mood, filters.Mood) &&
			matchesText(e.Topic, filters.Topic) {
			filtered = append(filtered, e)
		}
	}

	distribution := moodDistribution(filtered)
	return Summary{
		FilteredEntries:  filtered,
		MoodDistribution: distribution,
		StressSeries:     stressSeries(filtered, now.Location()),
		AvgStress:        avgStress(filtered),
		TopMood:          topMood(distribution),
	}
}

// BuildOptions lists the distinct moods (lower-cased) and topics, in first-seen order.
func BuildOptions(entries []models.JournalEntry) Options {
	moods := []string{}
	topics := []string{}
	seenMood := map[string]bool{}
	seenTopic := map[string]bool{}
	for _, e := range entries {
		if m := normalizeMood(e.Mood); m != unknownMood && !seenMood[m] {
			seenMood[m] = true
			moods = append(moods, m)
		}
		if t := strings.TrimSpace(e.Topic); t != "" && !seenTopic[t] {
			seenTopic[t] = true
			topics = append(topics, t)
		}
	}
	return Options{Moods: moods, Topics: topics}
}

func matchesDate(created time.Time, r enums.DateRange, now time.Time) bool {
	loc := now.Location()
	switch r {
	case enums.DateRangeToday:
		y, m, d := now.Date()
		cy, cm, cd := created.In(loc).Date()
		return y == cy && m == cm && d == cd
	case enums.DateRangeWeek:
		start := startOfWeek(now)
		end := start.AddDate(0, 0, 7)
		c := created.In(loc)
		return !c.Before(start) && c.Before(end)
	case enums.DateRangeMonth:
		return !created.Before(now.Add(-monthWindow))
	default:
		return true
	}
}

// startOfWeek returns local midnight of the Sunday on or before now.
func startOfWeek(now time.Time) time.Time {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return midnight.AddDate(0, 0, -int(midnight.Weekday()))
}

func matchesText(value, filter string) bool {
	needle := strings.ToLower(strings.TrimSpace(filter))
	if needle == "" || needle == filterAll {
		return true
	}
	return strings.Contains(strings.ToLower(value), needle)
}

func normalizeMood(mood string) string {
	m := strings.ToLower(strings.TrimSpace(mood))
	if m == "" {
		return unknownMood
	}
	return m
}

func moodDistribution(entries []models.JournalEntry) []MoodBucket {
	buckets := []MoodBucket{}
	index := map[string]int{}
	for _, e := range entries {
		name := normalizeMood(e.Mood)
		if i, ok := index[name]; ok {
			buckets[i].Count++
			continue
		}
		index[name] = len(buckets)
		buckets = append(buckets, MoodBucket{
			Name:  name,
			Label: capitalize(name),
			Count: 1,
			Color: MoodColor(name),
		})
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Count > buckets[j].Count
	})
	return buckets
}

func stressSeries(entries []models.JournalEntry, loc *time.Location) []StressPoint {
	n := len(entries)
	if n > stressSeriesLimit {
		n = stressSeriesLimit
	}
	points := make([]StressPoint, 0, n)
	for i := n - 1; i >= 0; i-- {
		e := entries[i]
		created := e.CreatedAt.In(loc)
		points = append(points, StressPoint{
			Date:        created.Format("Jan 02"),
			CreatedAt:   created,
			StressLevel: e.StressLevel,
		})
	}
	return points
}

func avgStress(entries []models.JournalEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(decimal.NewFromInt(int64(e.StressLevel)))
	}
	avg, _ := sum.Div(decimal.NewFromInt(int64(len(entries)))).Round(1).Float64()
	return avg
}

func topMood(buckets []MoodBucket) string {
	if len(buckets) == 0 {
		return noTopMood
	}
	return buckets[0].Label
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
