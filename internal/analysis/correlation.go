// Package analysis links symptoms to the meals preceding them and buckets
// symptom counts into day trends. Every function is pure: callers pass the
// records and the reference instant, nothing reads the clock or shared state.
package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/pathakanu/vitalTrack/internal/model"
)

// IngredientPrefix distinguishes ingredient triggers from meal names.
const IngredientPrefix = "Ingredient: "

// Look-back window before a symptom occurrence, both bounds inclusive.
const (
	MinLookback = time.Hour
	MaxLookback = 12 * time.Hour
)

// TriggerResult is one ranked candidate trigger for a symptom type.
type TriggerResult struct {
	Trigger         string `json:"trigger"`
	OccurrenceCount int    `json:"occurrenceCount"`
	Percentage      int    `json:"percentage"`
}

type timedMeal struct {
	at       time.Time
	triggers []string
}

// ComputeCorrelations ranks the meal names and ingredients eaten between one
// and twelve hours before each occurrence of symptomType. A trigger counts at
// most once per occurrence. Results are ordered by OccurrenceCount descending,
// then by Trigger ascending.
func ComputeCorrelations(symptomType string, meals []model.Meal, symptoms []model.Symptom) []TriggerResult {
	if symptomType == "" {
		return []TriggerResult{}
	}

	occurrences := occurrenceTimes(symptomType, symptoms)
	if len(occurrences) == 0 {
		return []TriggerResult{}
	}

	candidates := timedMeals(meals)
	counts := make(map[string]int)
	for _, at := range occurrences {
		for trigger := range triggersInWindow(at, candidates) {
			counts[trigger]++
		}
	}

	results := make([]TriggerResult, 0, len(counts))
	for trigger, count := range counts {
		results = append(results, TriggerResult{
			Trigger:         trigger,
			OccurrenceCount: count,
			Percentage:      percentage(count, len(occurrences)),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].OccurrenceCount != results[j].OccurrenceCount {
			return results[i].OccurrenceCount > results[j].OccurrenceCount
		}
		return results[i].Trigger < results[j].Trigger
	})
	return results
}

// Occurrences counts the symptoms of symptomType that take part in
// correlation: a resolvable timestamp and a severity inside 1-10.
func Occurrences(symptomType string, symptoms []model.Symptom) int {
	return len(occurrenceTimes(symptomType, symptoms))
}

func occurrenceTimes(symptomType string, symptoms []model.Symptom) []time.Time {
	times := make([]time.Time, 0)
	for _, s := range symptoms {
		if s.SymptomType != symptomType || !s.ValidSeverity() {
			continue
		}
		if at, ok := s.Time(); ok {
			times = append(times, at)
		}
	}
	return times
}

// triggersInWindow returns the distinct trigger labels of meals eaten inside
// the look-back window before at.
func triggersInWindow(at time.Time, meals []timedMeal) map[string]struct{} {
	seen := make(map[string]struct{})
	for _, m := range meals {
		gap := at.Sub(m.at)
		if gap < MinLookback || gap > MaxLookback {
			continue
		}
		for _, trigger := range m.triggers {
			seen[trigger] = struct{}{}
		}
	}
	return seen
}

// timedMeals resolves timestamps and trigger labels once per meal, dropping
// meals whose timestamp cannot be resolved.
func timedMeals(meals []model.Meal) []timedMeal {
	out := make([]timedMeal, 0, len(meals))
	for _, m := range meals {
		at, ok := m.Time()
		if !ok {
			continue
		}
		out = append(out, timedMeal{at: at, triggers: MealTriggers(m)})
	}
	return out
}

// MealTriggers lists the trigger labels a meal contributes: its name and each
// ingredient prefixed with IngredientPrefix.
func MealTriggers(m model.Meal) []string {
	ingredients := m.IngredientList()
	triggers := make([]string, 0, len(ingredients)+1)
	if m.Name != "" {
		triggers = append(triggers, m.Name)
	}
	for _, ingredient := range ingredients {
		triggers = append(triggers, IngredientPrefix+ingredient)
	}
	return triggers
}

func percentage(count, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(float64(count) / float64(total) * 100))
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
