package model

import "strings"

// Meal is a logged meal. Timestamp keeps the text it was recorded or imported with.
type Meal struct {
	Seq         uint     `gorm:"primaryKey;autoIncrement" json:"-"`
	ID          RecordID `gorm:"uniqueIndex;not null" json:"id"`
	Name        string   `gorm:"type:text;not null" json:"name"`
	Ingredients string   `gorm:"type:text" json:"ingredients"`
	Timestamp   string   `gorm:"not null" json:"timestamp"`
}

// IngredientList splits the comma separated ingredients into trimmed, non-empty labels.
func (m Meal) IngredientList() []string {
	return ParseIngredients(m.Ingredients)
}

// ParseIngredients splits a comma separated ingredient text.
func ParseIngredients(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	parts := strings.Split(text, ",")
	labels := make([]string, 0, len(parts))
	for _, part := range parts {
		if label := strings.TrimSpace(part); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}
