package model

// SymptomType describes one entry of the symptom vocabulary.
type SymptomType struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
}

var symptomVocabulary = []SymptomType{
	{"energy", "Energy Levels"},
	{"passing_gas", "Passing Gas"},
	{"acidity", "Acidity"},
	{"burping", "Burping"},
	{"pain", "Stomach Pain"},
	{"headache", "Headache"},
	{"mood", "Mood"},
	{"constipation", "Constipation"},
	{"chest_pain_left", "Chest Pain (Left)"},
	{"chest_pain_right", "Chest Pain (Right)"},
	{"chest_pain_middle", "Chest Pain (Middle)"},
	{"rib_pain_left", "Rib Pain (Left)"},
	{"rib_pain_right", "Rib Pain (Right)"},
}

// SymptomVocabulary returns the symptom types users can log, in form order.
func SymptomVocabulary() []SymptomType {
	out := make([]SymptomType, len(symptomVocabulary))
	copy(out, symptomVocabulary)
	return out
}

// KnownSymptomType reports whether key belongs to the vocabulary.
func KnownSymptomType(key string) bool {
	for _, st := range symptomVocabulary {
		if st.Key == key {
			return true
		}
	}
	return false
}
