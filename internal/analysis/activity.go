package analysis

import (
	"sort"
	"time"

	"github.com/pathakanu/vitalTrack/internal/model"
)

// Activity kinds.
const (
	KindMeal    = "meal"
	KindSymptom = "symptom"
)

// Stats counts the records logged on the reference day.
type Stats struct {
	MealsToday    int `json:"mealsToday"`
	SymptomsToday int `json:"symptomsToday"`
}

// ActivityItem is one entry of the merged meal and symptom feed.
type ActivityItem struct {
	Kind      string         `json:"type"`
	ID        model.RecordID `json:"id"`
	Title     string         `json:"title"`
	Severity  int            `json:"severity,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// DailyStats counts meals and symptoms whose timestamp falls on the calendar
// day of reference, evaluated in reference's location.
func DailyStats(meals []model.Meal, symptoms []model.Symptom, reference time.Time) Stats {
	var stats Stats
	for _, m := range meals {
		if at, ok := m.Time(); ok && sameDay(at, reference) {
			stats.MealsToday++
		}
	}
	for _, s := range symptoms {
		if at, ok := s.Time(); ok && sameDay(at, reference) {
			stats.SymptomsToday++
		}
	}
	return stats
}

// RecentActivity merges meals and symptoms newest first and keeps at most limit items.
func RecentActivity(meals []model.Meal, symptoms []model.Symptom, limit int) []ActivityItem {
	items := make([]ActivityItem, 0, len(meals)+len(symptoms))
	for _, m := range meals {
		if at, ok := m.Time(); ok {
			items = append(items, ActivityItem{Kind: KindMeal, ID: m.ID, Title: m.Name, Timestamp: at})
		}
	}
	for _, s := range symptoms {
		if at, ok := s.Time(); ok {
			items = append(items, ActivityItem{Kind: KindSymptom, ID: s.ID, Title: s.SymptomType, Severity: s.Severity, Timestamp: at})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func sameDay(at, reference time.Time) bool {
	ay, am, ad := at.In(reference.Location()).Date()
	ry, rm, rd := reference.Date()
	return ay == ry && am == rm && ad == rd
}
