package analysis

// DefaultSymptomColor is used for symptom types without a palette entry.
const DefaultSymptomColor = "rgba(201, 203, 207, 0.6)"

var symptomColors = map[string]string{
	"passing_gas":       "rgba(255, 99, 132, 0.6)",
	"acidity":           "rgba(255, 159, 64, 0.6)",
	"burping":           "rgba(255, 206, 86, 0.6)",
	"headache":          "rgba(54, 162, 235, 0.6)",
	"nausea":            "rgba(255, 206, 86, 0.6)",
	"fatigue":           "rgba(75, 192, 192, 0.6)",
	"cramps":            "rgba(153, 102, 255, 0.6)",
	"constipation":      "rgba(255, 159, 64, 0.6)",
	"chest_pain_left":   "rgba(255, 0, 0, 0.6)",
	"chest_pain_right":  "rgba(255, 0, 0, 0.6)",
	"chest_pain_middle": "rgba(255, 0, 0, 0.6)",
	"rib_pain_left":     "rgba(220, 20, 60, 0.6)",
	"rib_pain_right":    "rgba(220, 20, 60, 0.6)",
}

// ColorForSymptom returns the chart color for a symptom type.
func ColorForSymptom(symptomType string) string {
	if color, ok := symptomColors[symptomType]; ok {
		return color
	}
	return DefaultSymptomColor
}
