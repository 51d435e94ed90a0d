package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// SnapshotSource names the endpoint snapshots are built from.
const SnapshotSource = "contratacoes/proposta"

// Snapshot is the persisted, pre-filtered set of open notices used to answer
// queries without hitting the upstream API.
type Snapshot struct {
	GeneratedAt time.Time `json:"generatedAt"`
	RangeDays   int       `json:"rangeDays"`
	Modalities  []string  `json:"modalidades"`
	Source      string    `json:"source"`
	Items       []Record  `json:"items"`
	Errors      []string  `json:"errors"`
}

// SnapshotInfo summarises a snapshot without its items.
type SnapshotInfo struct {
	Available   bool      `json:"available" example:"true"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
	RangeDays   int       `json:"range_days,omitempty" example:"30"`
	Modalities  []string  `json:"modalities,omitempty"`
	Source      string    `json:"source,omitempty" example:"contratacoes/proposta"`
	Items       int       `json:"items" example:"812"`
	Errors      []string  `json:"errors,omitempty"`
	Stale       bool      `json:"stale" example:"false"`
}

// Info returns the summary of s.
func (s *Snapshot) Info(maxAge time.Duration, now time.Time) SnapshotInfo {
	if s == nil {
		return SnapshotInfo{}
	}
	return SnapshotInfo{
		Available:   true,
		GeneratedAt: s.GeneratedAt,
		RangeDays:   s.RangeDays,
		Modalities:  s.Modalities,
		Source:      s.Source,
		Items:       len(s.Items),
		Errors:      s.Errors,
		Stale:       maxAge > 0 && now.Sub(s.GeneratedAt) > maxAge,
	}
}

// DecodeSnapshot reads a snapshot document keeping numeric identifiers exact.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var s Snapshot
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if s.GeneratedAt.IsZero() {
		return nil, errors.New("snapshot has no generatedAt")
	}
	return &s, nil
}
