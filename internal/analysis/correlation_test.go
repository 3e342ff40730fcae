package analysis

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathakanu/vitalTrack/internal/model"
)

var base = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func meal(id, name, ingredients string, at time.Time) model.Meal {
	return model.Meal{ID: model.RecordID(id), Name: name, Ingredients: ingredients, Timestamp: model.FormatTimestamp(at)}
}

func symptom(id, symptomType string, severity int, at time.Time) model.Symptom {
	return model.Symptom{ID: model.RecordID(id), SymptomType: symptomType, Severity: severity, Timestamp: model.FormatTimestamp(at)}
}

func TestComputeCorrelationsNoOccurrences(t *testing.T) {
	t.Parallel()

	meals := []model.Meal{meal("m1", "Pizza", "", base)}
	symptoms := []model.Symptom{symptom("s1", "headache", 5, base.Add(3*time.Hour))}

	assert.Empty(t, ComputeCorrelations("acidity", meals, symptoms))
	assert.Empty(t, ComputeCorrelations("", meals, symptoms))
	assert.Empty(t, ComputeCorrelations("acidity", nil, nil))
}

func TestComputeCorrelationsSingleMeal(t *testing.T) {
	t.Parallel()

	got := ComputeCorrelations("acidity",
		[]model.Meal{meal("m1", "Pizza", "", base)},
		[]model.Symptom{symptom("s1", "acidity", 6, base.Add(3*time.Hour))},
	)
	assert.Equal(t, []TriggerResult{{Trigger: "Pizza", OccurrenceCount: 1, Percentage: 100}}, got)
}

func TestComputeCorrelationsHalfOfOccurrences(t *testing.T) {
	t.Parallel()

	meals := []model.Meal{meal("m1", "Pizza", "", base)}
	symptoms := []model.Symptom{
		symptom("s1", "acidity", 6, base.Add(2*time.Hour)),
		symptom("s2", "acidity", 4, base.Add(48*time.Hour)),
	}

	got := ComputeCorrelations("acidity", meals, symptoms)
	require.Len(t, got, 1)
	assert.Equal(t, "Pizza", got[0].Trigger)
	assert.Equal(t, 1, got[0].OccurrenceCount)
	assert.Equal(t, 50, got[0].Percentage)
}

func TestComputeCorrelationsWindowBounds(t *testing.T) {
	t.Parallel()

	at := base.Add(24 * time.Hour)
	meals := []model.Meal{
		meal("too-recent", "Coffee", "", at.Add(-30*time.Minute)),
		meal("too-old", "Curry", "", at.Add(-13*time.Hour)),
		meal("after", "Cake", "", at.Add(time.Hour)),
		meal("lower", "Toast", "", at.Add(-time.Hour)),
		meal("upper", "Beans", "", at.Add(-12*time.Hour)),
		meal("just-over", "Fries", "", at.Add(-12*time.Hour-time.Second)),
	}
	symptoms := []model.Symptom{symptom("s1", "acidity", 5, at)}

	got := ComputeCorrelations("acidity", meals, symptoms)
	assert.Equal(t, []TriggerResult{
		{Trigger: "Beans", OccurrenceCount: 1, Percentage: 100},
		{Trigger: "Toast", OccurrenceCount: 1, Percentage: 100},
	}, got)
}

func TestComputeCorrelationsIngredients(t *testing.T) {
	t.Parallel()

	meals := []model.Meal{
		meal("m1", "Margherita", "tomato, cheese", base),
		meal("m2", "Caprese", "tomato, basil", base.Add(time.Hour)),
	}
	symptoms := []model.Symptom{symptom("s1", "burping", 3, base.Add(4*time.Hour))}

	got := ComputeCorrelations("burping", meals, symptoms)
	assert.Equal(t, []TriggerResult{
		{Trigger: "Caprese", OccurrenceCount: 1, Percentage: 100},
		{Trigger: "Ingredient: basil", OccurrenceCount: 1, Percentage: 100},
		{Trigger: "Ingredient: cheese", OccurrenceCount: 1, Percentage: 100},
		{Trigger: "Ingredient: tomato", OccurrenceCount: 1, Percentage: 100},
		{Trigger: "Margherita", OccurrenceCount: 1, Percentage: 100},
	}, got)
}

func TestComputeCorrelationsCountsOccurrencesNotMeals(t *testing.T) {
	t.Parallel()

	meals := []model.Meal{
		meal("m1", "Pizza", "cheese", base),
		meal("m2", "Pizza", "cheese", base.Add(time.Hour)),
		meal("m3", "Salad", "", base.Add(20*time.Hour)),
	}
	symptoms := []model.Symptom{
		symptom("s1", "acidity", 5, base.Add(3*time.Hour)),
		symptom("s2", "acidity", 5, base.Add(4*time.Hour)),
		symptom("s3", "acidity", 5, base.Add(22*time.Hour)),
	}

	got := ComputeCorrelations("acidity", meals, symptoms)
	assert.Equal(t, []TriggerResult{
		{Trigger: "Ingredient: cheese", OccurrenceCount: 2, Percentage: 67},
		{Trigger: "Pizza", OccurrenceCount: 2, Percentage: 67},
		{Trigger: "Salad", OccurrenceCount: 1, Percentage: 33},
	}, got)
}

func TestComputeCorrelationsSkipsAnomalousRecords(t *testing.T) {
	t.Parallel()

	meals := []model.Meal{
		meal("m1", "Pizza", "", base),
		{ID: "m2", Name: "Mystery", Timestamp: "not a date"},
	}
	symptoms := []model.Symptom{
		symptom("s1", "acidity", 5, base.Add(2*time.Hour)),
		{ID: "s2", SymptomType: "acidity", Severity: 5, Timestamp: ""},
		symptom("s3", "acidity", 42, base.Add(2*time.Hour)),
	}

	got := ComputeCorrelations("acidity", meals, symptoms)
	assert.Equal(t, []TriggerResult{{Trigger: "Pizza", OccurrenceCount: 1, Percentage: 100}}, got)
}

func TestComputeCorrelationsProperties(t *testing.T) {
	t.Parallel()

	var meals []model.Meal
	var symptoms []model.Symptom
	names := []string{"Pizza", "Curry", "Salad", "Tacos"}
	for i := 0; i < 40; i++ {
		at := base.Add(time.Duration(i*5) * time.Hour)
		meals = append(meals, meal(fmt.Sprintf("m%d", i), names[i%len(names)], "onion, garlic", at))
		if i%3 == 0 {
			symptoms = append(symptoms, symptom(fmt.Sprintf("s%d", i), "acidity", 1+i%10, at.Add(time.Duration(i%7)*time.Hour)))
		}
	}
	occurrences := len(symptoms)

	got := ComputeCorrelations("acidity", meals, symptoms)
	require.NotEmpty(t, got)
	for i, r := range got {
		assert.GreaterOrEqual(t, r.Percentage, 0)
		assert.LessOrEqual(t, r.Percentage, 100)
		assert.LessOrEqual(t, r.OccurrenceCount, occurrences)
		if i > 0 {
			prev := got[i-1]
			assert.GreaterOrEqual(t, prev.OccurrenceCount, r.OccurrenceCount)
			if prev.OccurrenceCount == r.OccurrenceCount {
				assert.Less(t, prev.Trigger, r.Trigger)
			}
		}
	}

	assert.Equal(t, got, ComputeCorrelations("acidity", meals, symptoms))
}

func TestComputeCorrelationsConcurrent(t *testing.T) {
	t.Parallel()

	meals := []model.Meal{meal("m1", "Pizza", "tomato", base)}
	symptoms := []model.Symptom{symptom("s1", "acidity", 5, base.Add(2*time.Hour))}
	want := ComputeCorrelations("acidity", meals, symptoms)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, ComputeCorrelations("acidity", meals, symptoms))
		}()
	}
	wg.Wait()
}

func TestMealTriggers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"Tacos", "Ingredient: Chili", "Ingredient: Beef", "Ingredient: Onion"},
		MealTriggers(model.Meal{Name: "Tacos", Ingredients: "Chili, Beef, Onion"}))
	assert.Equal(t, []string{"Toast"}, MealTriggers(model.Meal{Name: "Toast"}))
}

func TestOccurrences(t *testing.T) {
	t.Parallel()

	symptoms := []model.Symptom{
		symptom("s1", "acidity", 5, base),
		symptom("s2", "acidity", 11, base),
		{ID: "s3", SymptomType: "acidity", Severity: 5, Timestamp: "?"},
		symptom("s4", "mood", 5, base),
		symptom("s5", "acidity", 1, base),
	}
	assert.Equal(t, 2, Occurrences("acidity", symptoms))
	assert.Equal(t, 0, Occurrences("headache", symptoms))
}
