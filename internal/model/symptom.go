package model

import "encoding/json"

// Severity bounds accepted at the input boundary.
const (
	MinSeverity = 1
	MaxSeverity = 10
)

// Symptom is a logged symptom occurrence.
type Symptom struct {
	Seq         uint     `gorm:"primaryKey;autoIncrement" json:"-"`
	ID          RecordID `gorm:"uniqueIndex;not null" json:"id"`
	SymptomType string   `gorm:"index;not null" json:"symptom"`
	Severity    int      `gorm:"not null" json:"severity"`
	Timestamp   string   `gorm:"not null" json:"timestamp"`
}

// ValidSeverity reports whether the severity is inside 1-10.
func (s Symptom) ValidSeverity() bool {
	return s.Severity >= MinSeverity && s.Severity <= MaxSeverity
}

// UnmarshalJSON accepts both the "symptom" key used by exports and "symptomType".
func (s *Symptom) UnmarshalJSON(data []byte) error {
	type plain Symptom
	aux := struct {
		*plain
		SymptomTypeAlt string `json:"symptomType"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if s.SymptomType == "" {
		s.SymptomType = aux.SymptomTypeAlt
	}
	return nil
}
