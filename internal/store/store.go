// Package store is the event store for meals and symptoms. It owns
// persistence, input validation and the JSON import/export format;
// analysis runs on the snapshots it hands out.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pathakanu/vitalTrack/internal/metrics"
	"github.com/pathakanu/vitalTrack/internal/model"
	"gorm.io/gorm"
)

// Store persists meals, symptoms and settings through GORM.
type Store struct {
	db       *gorm.DB
	now      func() time.Time
	location *time.Location
	metrics  *metrics.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to timestamp records logged without one.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the zone used for timestamps given without an offset.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.location = loc
		}
	}
}

// New creates a Store on an already migrated database.
func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:       db,
		now:      time.Now,
		location: time.Local,
		metrics:  metrics.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MealInput is a meal as submitted by a user.
type MealInput struct {
	Name        string `json:"name"`
	Ingredients string `json:"ingredients"`
	Timestamp   string `json:"timestamp"`
}

// SymptomInput is a symptom as submitted by a user.
type SymptomInput struct {
	SymptomType string `json:"symptom"`
	Severity    int    `json:"severity"`
	Timestamp   string `json:"timestamp"`
}

// Snapshot is a consistent copy of both event streams.
type Snapshot struct {
	Meals    []model.Meal
	Symptoms []model.Symptom
}

// AddMeal validates and appends a meal.
func (s *Store) AddMeal(ctx context.Context, in MealInput) (model.Meal, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Meal{}, &ValidationError{Field: "name", Message: "meal name is required"}
	}
	ts, err := s.resolveTimestamp(in.Timestamp)
	if err != nil {
		return model.Meal{}, err
	}

	meal := model.Meal{
		ID:          newID(),
		Name:        name,
		Ingredients: strings.TrimSpace(in.Ingredients),
		Timestamp:   ts,
	}
	if err := s.db.WithContext(ctx).Create(&meal).Error; err != nil {
		return model.Meal{}, fmt.Errorf("save meal: %w", err)
	}
	s.metrics.RecordsLogged.WithLabelValues("meal").Inc()
	return meal, nil
}

// AddSymptom validates and appends a symptom.
func (s *Store) AddSymptom(ctx context.Context, in SymptomInput) (model.Symptom, error) {
	symptomType := strings.TrimSpace(in.SymptomType)
	if !model.KnownSymptomType(symptomType) {
		return model.Symptom{}, &ValidationError{Field: "symptom", Message: fmt.Sprintf("unknown symptom type %q", in.SymptomType)}
	}
	if in.Severity < model.MinSeverity || in.Severity > model.MaxSeverity {
		return model.Symptom{}, &ValidationError{Field: "severity", Message: fmt.Sprintf("must be between %d and %d", model.MinSeverity, model.MaxSeverity)}
	}
	ts, err := s.resolveTimestamp(in.Timestamp)
	if err != nil {
		return model.Symptom{}, err
	}

	symptom := model.Symptom{
		ID:          newID(),
		SymptomType: symptomType,
		Severity:    in.Severity,
		Timestamp:   ts,
	}
	if err := s.db.WithContext(ctx).Create(&symptom).Error; err != nil {
		return model.Symptom{}, fmt.Errorf("save symptom: %w", err)
	}
	s.metrics.RecordsLogged.WithLabelValues("symptom").Inc()
	return symptom, nil
}

// Meals returns all meals in insertion order.
func (s *Store) Meals(ctx context.Context) ([]model.Meal, error) {
	return listMeals(s.db.WithContext(ctx))
}

// Symptoms returns all symptoms in insertion order.
func (s *Store) Symptoms(ctx context.Context) ([]model.Symptom, error) {
	return listSymptoms(s.db.WithContext(ctx))
}

// Snapshot loads both streams in one transaction. The returned slices are
// owned by the caller.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if snap.Meals, err = listMeals(tx); err != nil {
			return err
		}
		snap.Symptoms, err = listSymptoms(tx)
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Settings returns the saved settings, or the defaults when none are saved.
func (s *Store) Settings(ctx context.Context) (model.Settings, error) {
	return loadSettings(s.db.WithContext(ctx))
}

// SetTheme saves the UI theme.
func (s *Store) SetTheme(ctx context.Context, theme string) (model.Settings, error) {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if !model.ValidTheme(theme) {
		return model.Settings{}, &ValidationError{Field: "theme", Message: fmt.Sprintf("expected %q or %q", model.ThemeLight, model.ThemeDark)}
	}
	settings := model.DefaultSettings()
	settings.Theme = theme
	if err := s.db.WithContext(ctx).Save(&settings).Error; err != nil {
		return model.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return settings, nil
}

// Clear removes every meal, symptom and saved setting.
func (s *Store) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(clearAll)
}

func (s *Store) resolveTimestamp(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return model.FormatTimestamp(s.now()), nil
	}
	at, ok := model.ParseTimestampIn(text, s.location)
	if !ok {
		return "", &ValidationError{Field: "timestamp", Message: fmt.Sprintf("cannot parse %q", text)}
	}
	return model.FormatTimestamp(at), nil
}

func listMeals(db *gorm.DB) ([]model.Meal, error) {
	meals := []model.Meal{}
	if err := db.Order("seq ASC").Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	return meals, nil
}

func listSymptoms(db *gorm.DB) ([]model.Symptom, error) {
	symptoms := []model.Symptom{}
	if err := db.Order("seq ASC").Find(&symptoms).Error; err != nil {
		return nil, fmt.Errorf("list symptoms: %w", err)
	}
	return symptoms, nil
}

func loadSettings(db *gorm.DB) (model.Settings, error) {
	var settings model.Settings
	err := db.First(&settings, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

func clearAll(tx *gorm.DB) error {
	all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, table := range []interface{}{&model.Meal{}, &model.Symptom{}, &model.Settings{}} {
		if err := all.Delete(table).Error; err != nil {
			return fmt.Errorf("clear %T: %w", table, err)
		}
	}
	return nil
}

func newID() model.RecordID {
	return model.RecordID(uuid.NewString())
}
