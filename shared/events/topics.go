package events

// Topic names used across EcoTrail components.
const (
	TopicBadgeEvents  = "eco.badges"
	TopicReportEvents = "report.events"
)
