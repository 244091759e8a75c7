package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/stillpoint/stillpoint-app/internal/session"
)

// Preferences is the user state restored at startup.
type Preferences struct {
	ExerciseID    string `json:"exercise_id"`
	TargetMinutes int    `json:"target_minutes"`
	AmbientSound  string `json:"ambient_sound"`
}

// Store persists session history and preferences as JSON files under the
// data directory. All failures are logged and non-fatal: losing a history
// write must never disturb a session in progress.
type Store struct {
	historyPath string
	prefsPath   string
	logger      *log.Logger

	mu    sync.Mutex
	prefs Preferences
}

var _ session.HistoryStore = (*Store)(nil)

// DefaultDir returns the default data directory, ~/.stillpoint.
func DefaultDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".stillpoint")
}

// New creates a store rooted at dir and loads existing preferences.
func New(dir string, logger *log.Logger) *Store {
	if logger == nil {
		panic("Store: logger cannot be nil")
	}
	s := &Store{
		historyPath: filepath.Join(dir, "sessions.json"),
		prefsPath:   filepath.Join(dir, "preferences.json"),
		logger:      logger,
	}
	s.loadPreferences()
	return s
}

// SaveCompleted appends an eligible session to the history file.
func (s *Store) SaveCompleted(rec session.CompletedSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.readHistoryLocked()
	if err != nil {
		return err
	}
	history = append(history, rec)

	raw, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := s.writeFileLocked(s.historyPath, raw); err != nil {
		return err
	}

	s.logger.Printf("Store: recorded %d min %s session (completed=%v)", rec.DurationMinutes, rec.Mode, rec.Completed)
	return nil
}

// History returns all recorded sessions, oldest first.
func (s *Store) History() ([]session.CompletedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readHistoryLocked()
}

// Preferences returns the loaded preferences.
func (s *Store) Preferences() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// SavePreferences stores the preferences for the next launch.
func (s *Store) SavePreferences(p Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs = p
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		s.logger.Printf("Store: marshal preferences failed: %v", err)
		return
	}
	if err := s.writeFileLocked(s.prefsPath, raw); err != nil {
		s.logger.Printf("Store: save preferences failed: %v", err)
	}
}

// readHistoryLocked loads the history file; a missing file is an empty
// history. MUST be called with mu held.
func (s *Store) readHistoryLocked() ([]session.CompletedSession, error) {
	raw, err := os.ReadFile(s.historyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}
	var history []session.CompletedSession
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", s.historyPath, err)
	}
	return history, nil
}

func (s *Store) writeFileLocked(path string, raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (s *Store) loadPreferences() {
	raw, err := os.ReadFile(s.prefsPath)
	if err != nil {
		s.logger.Printf("Store: no preferences at %s", s.prefsPath)
		return
	}
	if err := json.Unmarshal(raw, &s.prefs); err != nil {
		s.logger.Printf("Store: parse preferences failed: %v", err)
		s.prefs = Preferences{}
		return
	}
	s.logger.Printf("Store: loaded preferences %+v", s.prefs)
}
