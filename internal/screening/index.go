package screening

import (
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ASlavko/SanctionsDefenderV2/pkg/models"
)

// NameEntry maps one normalized name or alias to its owning record.
type NameEntry struct {
	Name     string
	RecordID string
}

// IndexedRecord is one active sanction record with its comparison forms
// precomputed at build time.
type IndexedRecord struct {
	Record  *models.SanctionRecord
	Forms   nameForms
	Aliases []string // normalized, deduplicated, distinct from the primary form
}

// Snapshot is an immutable build of all normalized name entries. It is
// swapped wholesale on reload and never mutated while serving.
type Snapshot struct {
	entries []NameEntry
	records []*IndexedRecord
	byID    map[string]*IndexedRecord
	builtAt time.Time
}

// BuildSnapshot indexes every active record by its primary name plus every
// alias whose normalized form differs from the primary's. A malformed alias
// blob only loses that record's aliases; the record itself stays indexed by
// its primary name.
func BuildSnapshot(records []models.SanctionRecord, logger *zap.Logger) *Snapshot {
	snap := &Snapshot{
		byID:    make(map[string]*IndexedRecord, len(records)),
		builtAt: time.Now().UTC(),
	}

	for i := range records {
		rec := &records[i]
		if !rec.IsActive {
			continue
		}

		name := rec.OriginalName
		if name == "" {
			name = rec.NormalizedName
		}
		forms := prepareForms(name)
		if forms.norm == "" {
			continue
		}

		idx := &IndexedRecord{Record: rec, Forms: forms}
		snap.entries = append(snap.entries, NameEntry{Name: forms.norm, RecordID: rec.ID})

		aliases, err := ParseAliases(rec.AliasNames)
		if err != nil {
			logger.Debug("skipping unparsable aliases",
				zap.String("record_id", rec.ID),
				zap.Error(err))
			aliases = nil
		}
		seen := make(map[string]bool, len(aliases))
		for _, alias := range aliases {
			norm := Normalize(alias)
			if norm == "" || norm == forms.norm || seen[norm] {
				continue
			}
			seen[norm] = true
			idx.Aliases = append(idx.Aliases, norm)
			snap.entries = append(snap.entries, NameEntry{Name: norm, RecordID: rec.ID})
		}

		snap.records = append(snap.records, idx)
		snap.byID[rec.ID] = idx
	}

	return snap
}

// ParseAliases decodes an alias blob, which may be a JSON array or a
// pipe/semicolon separated string. A bare string yields a single alias.
func ParseAliases(blob string) ([]string, error) {
	blob = strings.TrimSpace(blob)
	if blob == "" {
		return nil, nil
	}

	if strings.HasPrefix(blob, "[") {
		var aliases []string
		if err := json.Unmarshal([]byte(blob), &aliases); err != nil {
			return nil, err
		}
		return aliases, nil
	}

	var sep string
	switch {
	case strings.Contains(blob, "|"):
		sep = "|"
	case strings.Contains(blob, ";"):
		sep = ";"
	default:
		return []string{blob}, nil
	}

	var aliases []string
	for _, part := range strings.Split(blob, sep) {
		if part = strings.TrimSpace(part); part != "" {
			aliases = append(aliases, part)
		}
	}
	return aliases, nil
}

// Entries returns the number of indexed name entries (primary + aliases).
func (s *Snapshot) Entries() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Records returns the number of distinct indexed records.
func (s *Snapshot) Records() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Lookup returns the indexed record for an id, or nil.
func (s *Snapshot) Lookup(id string) *IndexedRecord {
	if s == nil {
		return nil
	}
	return s.byID[id]
}

// BuiltAt reports when the snapshot was constructed.
func (s *Snapshot) BuiltAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.builtAt
}
