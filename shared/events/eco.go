package events

import "time"

// BadgeEarned is emitted once per badge when a submission crosses its threshold.
type BadgeEarned struct {
	UserID      string    `json:"userId"`
	SessionID   string    `json:"sessionId"`
	Badge       string    `json:"badge"`
	TotalPoints int       `json:"totalPoints"`
	EarnedAt    time.Time `json:"earnedAt"`
}

// ReportSubmitted describes a generated trail issue report.
type ReportSubmitted struct {
	ReportID    string    `json:"reportId"`
	UserID      string    `json:"userId"`
	Location    string    `json:"location"`
	Pages       int       `json:"pages"`
	SubmittedAt time.Time `json:"submittedAt"`
}
