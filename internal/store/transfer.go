package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pathakanu/vitalTrack/internal/metrics"
	"github.com/pathakanu/vitalTrack/internal/model"
	"gorm.io/gorm"
)

// Document is the JSON export and import format.
type Document struct {
	Meals    []model.Meal    `json:"meals"`
	Symptoms []model.Symptom `json:"symptoms"`
	Settings model.Settings  `json:"settings"`
}

// importDocument uses pointers so absent keys can be told apart from empty arrays.
type importDocument struct {
	Meals    *[]model.Meal    `json:"meals"`
	Symptoms *[]model.Symptom `json:"symptoms"`
	Settings *model.Settings  `json:"settings"`
}

// ExportFileName returns the download name for an export taken at t.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("vitaltrack_export_%s.json", t.Format("2006-01-02"))
}

// Export writes every record and the settings as indented JSON. Nothing is
// written to w unless the whole document encoded successfully.
func (s *Store) Export(ctx context.Context, w io.Writer) (err error) {
	defer func() { s.metrics.Exports.WithLabelValues(metrics.Result(err)).Inc() }()

	data, err := s.encodeDocument(ctx)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return &ExportError{Err: err}
	}
	return nil
}

// ExportFile writes an export into dir and returns its path. The file is
// written to a temporary name and renamed into place, so a failed export
// leaves nothing behind.
func (s *Store) ExportFile(ctx context.Context, dir string, at time.Time) (path string, err error) {
	defer func() { s.metrics.Exports.WithLabelValues(metrics.Result(err)).Inc() }()

	data, err := s.encodeDocument(ctx)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".vitaltrack-export-*.json")
	if err != nil {
		return "", &ExportError{Err: err}
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", &ExportError{Err: err}
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", &ExportError{Err: err}
	}
	if err = tmp.Close(); err != nil {
		return "", &ExportError{Err: err}
	}

	path = filepath.Join(dir, ExportFileName(at))
	if err = os.Rename(tmpName, path); err != nil {
		return "", &ExportError{Err: err}
	}
	return path, nil
}

func (s *Store) encodeDocument(ctx context.Context) ([]byte, error) {
	var doc Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if doc.Meals, err = listMeals(tx); err != nil {
			return err
		}
		if doc.Symptoms, err = listSymptoms(tx); err != nil {
			return err
		}
		doc.Settings, err = loadSettings(tx)
		return err
	})
	if err != nil {
		return nil, &ExportError{Err: err}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &ExportError{Err: err}
	}
	return data, nil
}

// Import replaces all data with the document read from r. The document must
// carry both "meals" and "symptoms" arrays; anything else is a *FormatError
// and the existing data is kept.
func (s *Store) Import(ctx context.Context, r io.Reader) (doc Document, err error) {
	defer func() { s.metrics.Imports.WithLabelValues(metrics.Result(err)).Inc() }()

	raw, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read import: %w", err)
	}
	doc, err = decodeImport(raw)
	if err != nil {
		return Document{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearAll(tx); err != nil {
			return err
		}
		if len(doc.Meals) > 0 {
			if err := tx.CreateInBatches(&doc.Meals, 200).Error; err != nil {
				return fmt.Errorf("import meals: %w", err)
			}
		}
		if len(doc.Symptoms) > 0 {
			if err := tx.CreateInBatches(&doc.Symptoms, 200).Error; err != nil {
				return fmt.Errorf("import symptoms: %w", err)
			}
		}
		return tx.Save(&doc.Settings).Error
	})
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

func decodeImport(raw []byte) (Document, error) {
	var in importDocument
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&in); err != nil {
		return Document{}, &FormatError{Reason: "malformed JSON", Err: err}
	}
	if in.Meals == nil || in.Symptoms == nil {
		return Document{}, &FormatError{Reason: "missing meals or symptoms arrays"}
	}

	doc := Document{
		Meals:    *in.Meals,
		Symptoms: *in.Symptoms,
		Settings: model.DefaultSettings(),
	}
	if in.Settings != nil && model.ValidTheme(in.Settings.Theme) {
		doc.Settings.Theme = in.Settings.Theme
	}

	seen := make(map[string]struct{}, len(doc.Meals)+len(doc.Symptoms))
	claim := func(kind string, id *model.RecordID) error {
		if *id == "" {
			*id = newID()
		}
		key := kind + "/" + string(*id)
		if _, dup := seen[key]; dup {
			return &FormatError{Reason: fmt.Sprintf("duplicate %s id %q", kind, *id)}
		}
		seen[key] = struct{}{}
		return nil
	}
	for i := range doc.Meals {
		doc.Meals[i].Seq = 0
		if err := claim("meal", &doc.Meals[i].ID); err != nil {
			return Document{}, err
		}
	}
	for i := range doc.Symptoms {
		doc.Symptoms[i].Seq = 0
		if err := claim("symptom", &doc.Symptoms[i].ID); err != nil {
			return Document{}, err
		}
	}
	return doc, nil
}
