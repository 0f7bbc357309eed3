// Package state carries the stateful-ingestion settings and checkpoint
// surface consumed by the ingestion runner. The configuration engine treats
// this block as opaque: it is parsed leniently and passed through unchanged.
package state

import (
	"context"
)

// StatefulRemovalConfig controls stale-metadata removal between runs.
type StatefulRemovalConfig struct {
	Enabled             bool `yaml:"enabled" json:"enabled"`
	RemoveStaleMetadata bool `yaml:"remove_stale_metadata" json:"remove_stale_metadata"`
	StateTTLSeconds     int  `yaml:"state_ttl_seconds" json:"state_ttl_seconds"`
}

// FromMap builds a StatefulRemovalConfig from a raw sub-mapping. Unknown keys
// are ignored and missing keys keep their zero defaults; the engine never
// rejects this block.
func FromMap(raw map[string]interface{}) *StatefulRemovalConfig {
	cfg := &StatefulRemovalConfig{
		RemoveStaleMetadata: true,
	}
	if v, ok := raw["enabled"].(bool); ok {
		cfg.Enabled = v
	}
	if v, ok := raw["remove_stale_metadata"].(bool); ok {
		cfg.RemoveStaleMetadata = v
	}
	switch v := raw["state_ttl_seconds"].(type) {
	case int:
		cfg.StateTTLSeconds = v
	case int64:
		cfg.StateTTLSeconds = int(v)
	case float64:
		cfg.StateTTLSeconds = int(v)
	}
	return cfg
}

// Checkpointer persists the set of entity URNs seen in a run so the next run
// can soft-delete what disappeared.
type Checkpointer interface {
	// MarkSeen records that urn was emitted during the current run.
	MarkSeen(ctx context.Context, urn string) error
	// StaleSince returns the urns present in the previous run but not marked
	// in the current one.
	StaleSince(ctx context.Context) ([]string, error)
	// Commit finalizes the current run's state.
	Commit(ctx context.Context) error
}

// MemoryCheckpointer is an in-process Checkpointer used when no external
// state backend is configured.
type MemoryCheckpointer struct {
	previous map[string]struct{}
	current  map[string]struct{}
}

// NewMemoryCheckpointer creates a checkpointer seeded with the urns from the
// previous run, if any.
func NewMemoryCheckpointer(previous []string) *MemoryCheckpointer {
	prev := make(map[string]struct{}, len(previous))
	for _, urn := range previous {
		prev[urn] = struct{}{}
	}
	return &MemoryCheckpointer{
		previous: prev,
		current:  make(map[string]struct{}),
	}
}

// MarkSeen records an emitted urn.
func (m *MemoryCheckpointer) MarkSeen(_ context.Context, urn string) error {
	m.current[urn] = struct{}{}
	return nil
}

// StaleSince returns urns seen last run but not this one.
func (m *MemoryCheckpointer) StaleSince(_ context.Context) ([]string, error) {
	var stale []string
	for urn := range m.previous {
		if _, ok := m.current[urn]; !ok {
			stale = append(stale, urn)
		}
	}
	return stale, nil
}

// Commit promotes the current run's urns to the baseline for the next run.
func (m *MemoryCheckpointer) Commit(_ context.Context) error {
	m.previous = m.current
	m.current = make(map[string]struct{})
	return nil
}
