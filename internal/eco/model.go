package eco

import (
	"context"
	"time"
)

// ActionCatalogEntry is one loggable eco action.
type ActionCatalogEntry struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	Label       string `json:"label,omitempty" yaml:"label"`
	Points      int    `json:"points" yaml:"points" validate:"gt=0"`
	Description string `json:"description" yaml:"description"`
}

// BadgeDefinition is a named milestone unlocked at a cumulative points threshold.
type BadgeDefinition struct {
	Name      string `json:"name" yaml:"name" validate:"required"`
	Threshold int    `json:"threshold" yaml:"threshold" validate:"gt=0"`
	Icon      string `json:"icon,omitempty" yaml:"icon"`
}

// NextBadge is the closest unearned badge and the points still missing.
type NextBadge struct {
	Name      string `json:"name"`
	Threshold int    `json:"threshold"`
	Gap       int    `json:"gap"`
}

// LoggedAction echoes a catalog entry counted by a submission.
type LoggedAction struct {
	ID          string `json:"id"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description"`
	Points      int    `json:"points"`
}

// SubmissionResult is returned by SubmitActions.
type SubmissionResult struct {
	PointsEarned int            `json:"points_earned"`
	TotalPoints  int            `json:"total_points"`
	NewlyEarned  []string       `json:"newly_earned"`
	NextBadge    *NextBadge     `json:"next_badge,omitempty"`
	Logged       []LoggedAction `json:"logged"`
}

// Progress is the read-only view of a session.
type Progress struct {
	TotalPoints     int        `json:"total_points"`
	EarnedBadges    []string   `json:"earned_badges"`
	NextBadge       *NextBadge `json:"next_badge,omitempty"`
	ProgressPercent int        `json:"progress_percent"`
}

// Snapshot is the persisted form of session progress.
type Snapshot struct {
	TotalPoints  int      `json:"total_points" firestore:"total_points"`
	EarnedBadges []string `json:"earned_badges" firestore:"earned_badges"`
}

// SessionKey identifies a user session.
type SessionKey struct {
	UserID    string
	SessionID string
}

// SessionRecord is a stored snapshot together with the user that owns it.
type SessionRecord struct {
	UserID   string
	Snapshot Snapshot
}

// ProgressStore persists session snapshots outside the process.
type ProgressStore interface {
	Load(ctx context.Context, sessionID string) (SessionRecord, bool, error)
	Save(ctx context.Context, sessionID, userID string, snap Snapshot) error
	Delete(ctx context.Context, sessionID string) error
}

// Clock delivers the current time; extracted for deterministic testing.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystemClock returns a Clock implementation backed by time.Now.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}
