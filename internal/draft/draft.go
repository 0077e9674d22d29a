// Package draft persists the in-progress billing form to a single local
// record so a restarted session resumes where it left off.
package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/calepa/shoptill/internal/billing"
)

// FormDraft is the exact set of transient form values. Numeric fields stay
// raw strings because they are input buffers, not parsed values.
type FormDraft struct {
	CustomerName    string             `json:"customerName"`
	MobileNumber    string             `json:"mobileNumber"`
	ProductIndex    string             `json:"productIndex"`
	ProductName     string             `json:"productName"`
	Quantity        string             `json:"quantity"`
	DiscountPercent string             `json:"discountPercent"`
	Lines           []billing.LineItem `json:"lines"`
	EditKey         string             `json:"editKey"`
	Printed         bool               `json:"printed"`
}

// Store reads and writes the draft record at a fixed path.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath places the draft record under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}

	return filepath.Join(dir, "shoptill", "draft.json"), nil
}

// Save overwrites the draft record. Called on every committed form change.
func (s *Store) Save(d FormDraft) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating draft directory: %w", err)
	}

	// Write-then-rename so a crash mid-write cannot corrupt the record.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("writing draft: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing draft: %w", err)
	}

	return nil
}

// Restore reads the saved draft. A missing or unreadable record yields an
// empty draft; restoring never fails the session.
func (s *Store) Restore() FormDraft {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("draft unreadable, starting fresh", "path", s.path, "error", err)
		}

		return FormDraft{}
	}

	var d FormDraft
	if err := json.Unmarshal(payload, &d); err != nil {
		slog.Warn("draft corrupt, starting fresh", "path", s.path, "error", err)
		return FormDraft{}
	}

	return d
}

// Clear erases the draft record.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing draft: %w", err)
	}

	return nil
}
