// Package status holds the most recent scheduling snapshot for operator
// inspection over HTTP.
package status

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Snapshot is one tick's view of the whole system. Snapshots are immutable
// once published.
type Snapshot struct {
	Time     time.Time       `json:"time"`
	Objects  []TrackedObject `json:"objects"`
	Passes   []Pass          `json:"passes"`
	Receiver ReceiverState   `json:"receiver"`
}

// TrackedObject reports one configured object's scheduling state.
type TrackedObject struct {
	Name      string    `json:"name"`
	NextCheck time.Time `json:"next_check"`
	Excluded  bool      `json:"excluded"`
}

// Pass reports one live pass.
type Pass struct {
	Satellite        string    `json:"satellite"`
	Rise             time.Time `json:"rise"`
	Peak             time.Time `json:"peak"`
	Set              time.Time `json:"set"`
	PeakElevationDeg float64   `json:"peak_elevation_deg"`
	Status           string    `json:"status"`
}

// ReceiverState reports the recording frontend.
type ReceiverState struct {
	Busy        bool    `json:"busy"`
	Satellite   string  `json:"satellite,omitempty"`
	FrequencyHz float64 `json:"frequency_hz,omitempty"`
	DemodPath   string  `json:"demod_path,omitempty"`
	IQPath      string  `json:"iq_path,omitempty"`
}

// Store is a thread-safe holder for the latest snapshot.
type Store struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{}
}

// Publish replaces the current snapshot. The caller must not mutate snap
// afterwards.
func (s *Store) Publish(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

// Current returns the latest snapshot, or nil before the first publish.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Handler serves the latest snapshot as JSON. It responds 503 until the
// first tick has published one.
func (s *Store) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := s.Current()
		if snap == nil {
			http.Error(w, "no snapshot published yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
