package screening

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ASlavko/SanctionsDefenderV2/pkg/models"
)

// Options tunes the engine. Zero values fall back to the defaults below.
type Options struct {
	DefaultThreshold int
	DefaultLimit     int
	UsePhonetic      bool
	BatchChunkSize   int
	BatchWorkers     int
}

const (
	defaultThreshold = 85
	defaultLimit     = 5
	defaultChunkSize = 500
	defaultWorkers   = 4
)

// Match is one scored candidate returned by the engine. It is ephemeral and
// never persisted as-is.
type Match struct {
	Record       *models.SanctionRecord `json:"record"`
	Score        float64                `json:"score"`
	Basis        MatchBasis             `json:"basis"`
	Status       models.MatchStatus     `json:"status"`
	Category     string                 `json:"category"`
	AutoResolved bool                   `json:"auto_resolved"`
}

// Status reports engine health for diagnostics; no business logic reads it.
type Status struct {
	Initialized   bool      `json:"initialized"`
	IndexSize     int       `json:"index_size"`
	RecordCount   int       `json:"record_count"`
	DecisionCount int       `json:"decision_count"`
	LoadedAt      time.Time `json:"loaded_at,omitempty"`
}

// decisionSet is the in-memory mirror of active human verdicts.
type decisionSet struct {
	byTerm map[string]models.MatchDecision
}

// state pairs an index snapshot with its decision mirror. The pair is
// swapped as one unit so a reader never sees a new index with stale
// decisions or vice versa.
type state struct {
	snap      *Snapshot
	decisions *decisionSet
}

// Engine screens names against the current index snapshot, consulting human
// decisions before scoring. Searches are pure reads against one state
// reference captured at call start; writers (Reload, RefreshDecisions) are
// serialized by a mutex and publish with a single pointer store.
type Engine struct {
	logger *zap.Logger
	opts   Options

	mu    sync.Mutex // serializes writers; readers never take it
	state atomic.Pointer[state]
}

// NewEngine constructs an engine. Pass it by reference wherever screening is
// needed; there is deliberately no package-level instance.
func NewEngine(logger *zap.Logger, opts Options) *Engine {
	if opts.DefaultThreshold <= 0 {
		opts.DefaultThreshold = defaultThreshold
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = defaultLimit
	}
	if opts.BatchChunkSize <= 0 {
		opts.BatchChunkSize = defaultChunkSize
	}
	if opts.BatchWorkers <= 0 {
		opts.BatchWorkers = defaultWorkers
	}
	return &Engine{logger: logger, opts: opts}
}

// Reload builds a fresh snapshot from the given records and decisions and
// swaps both in with one atomic store. Readers either see the previous state
// or the complete new one, never a partial build or a mixed pair.
func (e *Engine) Reload(records []models.SanctionRecord, decisions []models.MatchDecision) {
	start := time.Now()
	snap := BuildSnapshot(records, e.logger)
	decs := e.buildDecisionSet(decisions)

	e.mu.Lock()
	e.state.Store(&state{snap: snap, decisions: decs})
	e.mu.Unlock()

	e.logger.Info("screening engine reloaded",
		zap.Int("records", snap.Records()),
		zap.Int("name_entries", snap.Entries()),
		zap.Int("active_decisions", len(decs.byTerm)),
		zap.Duration("took", time.Since(start)))
}

// RefreshDecisions replaces the decision mirror while keeping the current
// index snapshot. Called after every decision write so memoized verdicts
// take effect immediately.
func (e *Engine) RefreshDecisions(decisions []models.MatchDecision) {
	decs := e.buildDecisionSet(decisions)

	e.mu.Lock()
	var snap *Snapshot
	if cur := e.state.Load(); cur != nil {
		snap = cur.snap
	}
	e.state.Store(&state{snap: snap, decisions: decs})
	e.mu.Unlock()
}

// buildDecisionSet keeps the single active decision per normalized term.
// Finding more than one active decision for a term is a data-integrity
// violation (e.g. a migration bug); the most recently created wins and the
// rest are treated as revoked.
func (e *Engine) buildDecisionSet(decisions []models.MatchDecision) *decisionSet {
	byTerm := make(map[string]models.MatchDecision)
	for _, d := range decisions {
		if d.Revoked {
			continue
		}
		cur, exists := byTerm[d.SearchTermNormalized]
		if !exists {
			byTerm[d.SearchTermNormalized] = d
			continue
		}
		e.logger.Warn("conflicting active decisions for term, keeping most recent",
			zap.String("term", d.SearchTermNormalized),
			zap.Uint("kept", cur.ID),
			zap.Uint("candidate", d.ID))
		if d.CreatedAt.After(cur.CreatedAt) || (d.CreatedAt.Equal(cur.CreatedAt) && d.ID > cur.ID) {
			byTerm[d.SearchTermNormalized] = d
		}
	}
	return &decisionSet{byTerm: byTerm}
}

// Search screens one name. Human verdicts short-circuit scoring: a
// FALSE_POSITIVE clears the query outright (cleared=true), a TRUE_MATCH
// bound to a record still present in the snapshot returns that record alone
// with score 100. Otherwise every indexed record is scored, survivors are
// reduced to the top hit per source list, ordered by descending score and
// truncated.
func (e *Engine) Search(query string, kind EntityKind, threshold, limit int) (matches []Match, cleared bool) {
	st := e.state.Load()
	if st == nil || st.snap == nil {
		e.logger.Debug("search before initial load", zap.String("query", query))
		return nil, false
	}
	if threshold <= 0 {
		threshold = e.opts.DefaultThreshold
	}
	if limit <= 0 {
		limit = e.opts.DefaultLimit
	}

	qForms := prepareForms(query)
	if qForms.norm == "" {
		return nil, false
	}

	if m, cleared := e.resolveDecision(qForms.norm, st); cleared {
		return nil, true
	} else if m != nil {
		return []Match{*m}, false
	}

	matches = e.scan(qForms, st.snap, kind, float64(threshold))
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, false
}

// resolveDecision applies the memoized human verdict for a normalized term.
// Returns (match, false) for a TRUE_MATCH whose record is still indexed,
// (nil, true) for a FALSE_POSITIVE, and (nil, false) when scoring should
// proceed.
func (e *Engine) resolveDecision(normTerm string, st *state) (*Match, bool) {
	if st.decisions == nil {
		return nil, false
	}
	d, ok := st.decisions.byTerm[normTerm]
	if !ok {
		return nil, false
	}

	switch d.Decision {
	case models.MatchStatusFalsePositive:
		return nil, true
	case models.MatchStatusTrueMatch:
		if d.SanctionID == "" {
			return nil, false
		}
		rec := st.snap.Lookup(d.SanctionID)
		if rec == nil {
			// bound record dropped from the lists; fall through to scoring
			return nil, false
		}
		return &Match{
			Record:       rec.Record,
			Score:        100,
			Basis:        BasisHumanOverride,
			Status:       models.MatchStatusTrueMatch,
			Category:     rec.Record.ListType,
			AutoResolved: true,
		}, false
	}
	return nil, false
}

// scan scores the query against every indexed record, keeps survivors at or
// above the threshold and reduces them to the top-scoring hit per source
// category, ordered by descending score.
func (e *Engine) scan(qForms nameForms, snap *Snapshot, kind EntityKind, threshold float64) []Match {
	bestPerCategory := make(map[string]Match)
	for _, rec := range snap.records {
		score, basis := scoreForms(qForms, rec, kind, e.opts.UsePhonetic)
		if score < threshold {
			continue
		}
		cat := rec.Record.ListType
		if cur, ok := bestPerCategory[cat]; ok && cur.Score >= score {
			continue
		}
		bestPerCategory[cat] = Match{
			Record:   rec.Record,
			Score:    score,
			Basis:    basis,
			Status:   models.MatchStatusPending,
			Category: cat,
		}
	}

	matches := make([]Match, 0, len(bestPerCategory))
	for _, m := range bestPerCategory {
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Category < matches[j].Category
	})
	return matches
}

// Status reports index and decision counts for health checks.
func (e *Engine) Status() Status {
	st := e.state.Load()
	if st == nil {
		return Status{}
	}

	out := Status{Initialized: st.snap != nil}
	if st.snap != nil {
		out.IndexSize = st.snap.Entries()
		out.RecordCount = st.snap.Records()
		out.LoadedAt = st.snap.BuiltAt()
	}
	if st.decisions != nil {
		out.DecisionCount = len(st.decisions.byTerm)
	}
	return out
}
