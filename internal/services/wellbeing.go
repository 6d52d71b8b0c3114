package services

import (
	"sort"
	"time"

	"unisphere/internal/models"
)

type MoodSummary struct {
	MoodCounts       map[string]int `json:"mood_counts"`
	AverageIntensity float64        `json:"average_intensity"`
	TotalCount       int            `json:"total_count"`
}

// SummarizeMoods counts entries per mood and averages their intensity.
func SummarizeMoods(entries []models.MoodEntry) MoodSummary {
	out := MoodSummary{MoodCounts: map[string]int{}, TotalCount: len(entries)}
	if len(entries) == 0 {
		return out
	}
	total := 0
	for _, e := range entries {
		out.MoodCounts[e.Mood]++
		total += e.Intensity
	}
	out.AverageIntensity = float64(total) / float64(len(entries))
	return out
}

type ReportStats struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
	Total    int `json:"total"`
}

func SummarizeReports(reports []models.SentimentReport) ReportStats {
	list := make([]Sentiment, len(reports))
	for i, r := range reports {
		list[i] = Sentiment(r.Sentiment)
	}
	agg := Aggregate(list)
	return ReportStats{
		Positive: agg.Positive,
		Negative: agg.Negative,
		Neutral:  agg.Neutral,
		Total:    len(reports),
	}
}

type DailySentiment struct {
	Date     string `json:"date"`
	Positive int    `json:"positive"`
	Negative int    `json:"negative"`
	Neutral  int    `json:"neutral"`
	Count    int    `json:"count"`
}

// DailyTrend groups the reports dated within the last days days (relative to
// now) by date, oldest date first.
func DailyTrend(reports []models.SentimentReport, days int, now time.Time) []DailySentiment {
	start := now.AddDate(0, 0, -days)
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, now.Location())

	byDate := map[string]*DailySentiment{}
	for _, r := range reports {
		if r.Date.Before(start) {
			continue
		}
		key := r.Date.Format("2006-01-02")
		d, ok := byDate[key]
		if !ok {
			d = &DailySentiment{Date: key}
			byDate[key] = d
		}
		switch Sentiment(r.Sentiment) {
		case Positive:
			d.Positive++
		case Negative:
			d.Negative++
		case Neutral:
			d.Neutral++
		}
		d.Count++
	}

	out := make([]DailySentiment, 0, len(byDate))
	for _, d := range byDate {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func ValidSentiment(s string) bool {
	switch Sentiment(s) {
	case Positive, Negative, Neutral:
		return true
	}
	return false
}
