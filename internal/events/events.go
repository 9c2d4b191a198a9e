// Package events publishes tariff change notifications.
package events

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// TariffsUpdated is emitted after a successful tariff write.
type TariffsUpdated struct {
	Years     []int     `json:"years"`
	Roles     []string  `json:"roles"`
	Cells     int       `json:"cells"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher sends events to whoever listens. Implementations must be safe
// for concurrent use.
type Publisher interface {
	PublishTariffsUpdated(ctx context.Context, ev TariffsUpdated) error
	Close() error
}

// NewTariffsUpdated builds the event from the touched role/year pairs.
func NewTariffsUpdated(roleYears map[string][]int, cells int, now time.Time) TariffsUpdated {
	yearSet := map[int]struct{}{}
	roles := make([]string, 0, len(roleYears))
	for role, years := range roleYears {
		roles = append(roles, role)
		for _, y := range years {
			yearSet[y] = struct{}{}
		}
	}
	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Strings(roles)
	sort.Ints(years)
	return TariffsUpdated{Years: years, Roles: roles, Cells: cells, Timestamp: now.UTC()}
}

// ToJSON converts the event to JSON bytes
func (e TariffsUpdated) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) PublishTariffsUpdated(context.Context, TariffsUpdated) error { return nil }

func (Nop) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []TariffsUpdated
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) PublishTariffsUpdated(_ context.Context, ev TariffsUpdated) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of what was published so far.
func (r *Recorder) Events() []TariffsUpdated {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TariffsUpdated(nil), r.events...)
}

func (r *Recorder) Close() error { return nil }
