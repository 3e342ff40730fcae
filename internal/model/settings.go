package model

// Theme values accepted for Settings.Theme.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Settings holds the single row of user preferences.
type Settings struct {
	ID    uint   `gorm:"primaryKey" json:"-"`
	Theme string `gorm:"not null" json:"theme"`
}

// DefaultSettings returns the settings used before anything is saved.
func DefaultSettings() Settings {
	return Settings{ID: 1, Theme: ThemeLight}
}

// ValidTheme reports whether theme is one of the known themes.
func ValidTheme(theme string) bool {
	return theme == ThemeLight || theme == ThemeDark
}
