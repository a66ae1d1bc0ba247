package eco

import (
	"fmt"
	"sort"
	"sync"
)

// Engine tracks cumulative points and earned badges for one session.
// All methods are safe for concurrent use; submissions are serialized.
type Engine struct {
	catalog *Catalog

	mu     sync.Mutex
	total  int
	earned map[string]struct{}
}

// NewEngine returns an engine in the initial state (0 points, no badges).
func NewEngine(c *Catalog) *Engine {
	return &Engine{catalog: c, earned: make(map[string]struct{})}
}

// SubmitActions applies one batch of completed actions. Duplicate ids count
// once. Any unknown id rejects the whole batch and leaves state untouched.
func (e *Engine) SubmitActions(selected []string) (SubmissionResult, error) {
	chosen := make(map[string]struct{}, len(selected))
	var unknown []string
	for _, id := range selected {
		if _, seen := chosen[id]; seen {
			continue
		}
		chosen[id] = struct{}{}
		if _, ok := e.catalog.Action(id); !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return SubmissionResult{}, &InvalidActionIDError{IDs: unknown}
	}

	logged := make([]LoggedAction, 0, len(chosen))
	earnedPoints := 0
	for _, a := range e.catalog.actions {
		if _, ok := chosen[a.ID]; !ok {
			continue
		}
		earnedPoints += a.Points
		logged = append(logged, LoggedAction{ID: a.ID, Label: a.Label, Description: a.Description, Points: a.Points})
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.total += earnedPoints
	newly := []string{}
	for _, b := range e.catalog.badges {
		if b.Threshold > e.total {
			continue
		}
		if _, ok := e.earned[b.Name]; ok {
			continue
		}
		e.earned[b.Name] = struct{}{}
		newly = append(newly, b.Name)
	}

	return SubmissionResult{
		PointsEarned: earnedPoints,
		TotalPoints:  e.total,
		NewlyEarned:  newly,
		NextBadge:    e.nextBadgeLocked(),
		Logged:       logged,
	}, nil
}

// Progress is a pure read of the current state.
func (e *Engine) Progress() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Progress{
		TotalPoints:     e.total,
		EarnedBadges:    e.earnedInOrderLocked(),
		NextBadge:       e.nextBadgeLocked(),
		ProgressPercent: min(e.total, 100),
	}
}

// Snapshot serializes the state as a total plus badge names in table order.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{TotalPoints: e.total, EarnedBadges: e.earnedInOrderLocked()}
}

// Restore replaces the state with snap after checking it against the catalog.
// Badges whose threshold the total already reaches are marked earned even when
// the snapshot omits them; they are not reported as newly earned later.
func (e *Engine) Restore(snap Snapshot) error {
	if snap.TotalPoints < 0 {
		return fmt.Errorf("%w: negative total %d", ErrInvalidConfiguration, snap.TotalPoints)
	}
	earned := make(map[string]struct{}, len(snap.EarnedBadges))
	for _, name := range snap.EarnedBadges {
		if !e.catalog.HasBadge(name) {
			return fmt.Errorf("%w: unknown badge %q in snapshot", ErrInvalidConfiguration, name)
		}
		earned[name] = struct{}{}
	}

	for _, b := range e.catalog.badges {
		if b.Threshold <= snap.TotalPoints {
			earned[b.Name] = struct{}{}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.total = snap.TotalPoints
	e.earned = earned
	return nil
}

// Catalog returns the configuration the engine scores against.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

func (e *Engine) earnedInOrderLocked() []string {
	out := make([]string, 0, len(e.earned))
	for _, b := range e.catalog.badges {
		if _, ok := e.earned[b.Name]; ok {
			out = append(out, b.Name)
		}
	}
	return out
}

// nextBadgeLocked picks the unearned badge with the smallest threshold above
// the total. Ties keep the first declared badge.
func (e *Engine) nextBadgeLocked() *NextBadge {
	candidates := make([]BadgeDefinition, 0, len(e.catalog.badges))
	for _, b := range e.catalog.badges {
		if _, ok := e.earned[b.Name]; ok || b.Threshold <= e.total {
			continue
		}
		candidates = append(candidates, b)
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Threshold < candidates[j].Threshold
	})
	best := candidates[0]
	return &NextBadge{Name: best.Name, Threshold: best.Threshold, Gap: best.Threshold - e.total}
}
