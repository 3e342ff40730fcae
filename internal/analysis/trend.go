package analysis

import (
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/pathakanu/vitalTrack/internal/model"
)

const day = 24 * time.Hour

// LabelLayout formats trend bucket labels, e.g. "Mar 5".
const LabelLayout = "Jan 2"

// TrendSeries is chart-ready symptom counts per day.
type TrendSeries struct {
	Labels   []string         `json:"labels"`
	Series   map[string][]int `json:"series"`
	Datasets []TrendDataset   `json:"datasets"`
}

// TrendDataset is the presentation view of one symptom type's series.
type TrendDataset struct {
	SymptomType string `json:"symptomType"`
	Label       string `json:"label"`
	Data        []int  `json:"data"`
	Color       string `json:"backgroundColor"`
}

// ComputeTrend counts symptoms per day over the windowDays days ending at
// reference, oldest day first. A symptom lands in bucket
// windowDays-1-floor(|reference-ts|/24h); anything outside the window, or with
// an unresolvable timestamp or out-of-range severity, is skipped. Every symptom
// type present in the input gets a series, even if all counts are zero.
func ComputeTrend(symptoms []model.Symptom, windowDays int, reference time.Time) TrendSeries {
	trend := TrendSeries{
		Labels:   []string{},
		Series:   map[string][]int{},
		Datasets: []TrendDataset{},
	}
	if windowDays <= 0 {
		return trend
	}

	for i := windowDays - 1; i >= 0; i-- {
		trend.Labels = append(trend.Labels, reference.AddDate(0, 0, -i).Format(LabelLayout))
	}

	for _, s := range symptoms {
		if _, ok := trend.Series[s.SymptomType]; !ok {
			trend.Series[s.SymptomType] = make([]int, windowDays)
		}
	}

	for _, s := range symptoms {
		if !s.ValidSeverity() {
			continue
		}
		at, ok := s.Time()
		if !ok {
			continue
		}
		diffDays := int(absDuration(reference.Sub(at)) / day)
		if diffDays < 0 || diffDays >= windowDays {
			continue
		}
		trend.Series[s.SymptomType][windowDays-1-diffDays]++
	}

	for _, symptomType := range sortedKeys(trend.Series) {
		trend.Datasets = append(trend.Datasets, TrendDataset{
			SymptomType: symptomType,
			Label:       DisplayLabel(symptomType),
			Data:        trend.Series[symptomType],
			Color:       ColorForSymptom(symptomType),
		})
	}
	return trend
}

// DisplayLabel upper-cases the first letter of a symptom type.
func DisplayLabel(symptomType string) string {
	r, size := utf8.DecodeRuneInString(symptomType)
	if r == utf8.RuneError {
		return symptomType
	}
	return string(unicode.ToUpper(r)) + symptomType[size:]
}

// SymptomTypes lists the distinct symptom types present, sorted.
func SymptomTypes(symptoms []model.Symptom) []string {
	set := make(map[string][]int, len(symptoms))
	for _, s := range symptoms {
		if strings.TrimSpace(s.SymptomType) != "" {
			set[s.SymptomType] = nil
		}
	}
	return sortedKeys(set)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func sortedKeys(m map[string][]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
