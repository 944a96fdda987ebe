package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cardiac-assistant/pkg"
)

// Storage keys mirror the browser-local records this store stands in for.
const (
	patientKey = "patientData"
	userKey    = "userData"
)

// Store persists the patient record and the last-known login session as
// JSON files under a local directory. It is the sole source of truth for
// patient state between the login and profile flows; there is no server
// round-trip to confirm the persisted copy, and concurrent writers race on
// last-writer-wins.
type Store struct {
	dir string
}

// NewStore opens (creating if needed) the store directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// DefaultPatient is the record returned when nothing has been persisted
// yet. All fields are absent; the profile view substitutes placeholders.
func DefaultPatient() pkg.PatientState {
	return pkg.PatientState{}
}

// LoadPatient returns the persisted patient record. A missing file or
// unparsable contents degrade to the default record; the caller never sees
// an error for those cases.
func (s *Store) LoadPatient() pkg.PatientState {
	var state pkg.PatientState
	if !s.read(patientKey, &state) {
		return DefaultPatient()
	}
	return state
}

// SavePatient serialises and persists the full record, replacing any prior
// value. There is no partial merge.
func (s *Store) SavePatient(state pkg.PatientState) error {
	return s.write(patientKey, state)
}

// ClearPatient removes the persisted patient record entirely.
func (s *Store) ClearPatient() error {
	return s.remove(patientKey)
}

// LoadUser returns the stored login session and whether one exists. A
// corrupt record reads as absent.
func (s *Store) LoadUser() (pkg.UserSession, bool) {
	var u pkg.UserSession
	if !s.read(userKey, &u) {
		return pkg.UserSession{}, false
	}
	return u, true
}

// SaveUser stores the login session verbatim, replacing any prior value.
func (s *Store) SaveUser(u pkg.UserSession) error {
	return s.write(userKey, u)
}

// ClearUser removes the stored login session.
func (s *Store) ClearUser() error {
	return s.remove(userKey)
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Store) read(key string, v any) bool {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false
	}
	return true
}

func (s *Store) write(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

func (s *Store) remove(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear %s: %w", key, err)
	}
	return nil
}
