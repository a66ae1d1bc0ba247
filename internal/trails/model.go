package trails

import "time"

// Trail is one entry of the static trail catalog.
type Trail struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Image    string `json:"image"`
}

// Stop is a point of interest along a trail.
type Stop struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=600"`
}

// Overview is the generated markdown introduction to a trail.
type Overview struct {
	Trail       Trail     `json:"trail"`
	Markdown    string    `json:"markdown"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// StopList is the result of stop extraction. When the model reply does not
// satisfy the stop contract, Fallback is set, Stops is empty and Raw carries
// the overview text for display.
type StopList struct {
	TrailID  string `json:"trailId"`
	Stops    []Stop `json:"stops"`
	Fallback bool   `json:"fallback"`
	Raw      string `json:"raw,omitempty"`
}

// StopDetail is the narrated description of a single stop.
type StopDetail struct {
	TrailID         string `json:"trailId"`
	Index           int    `json:"index"`
	Total           int    `json:"total"`
	ProgressPercent int    `json:"progressPercent"`
	Stop            Stop   `json:"stop"`
	Description     string `json:"description"`
}

// Clock delivers the current time; extracted for deterministic testing.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

var catalog = []Trail{
	{ID: "coyote-creek", Name: "Coyote Creek Trail", Location: "San Jose, CA", Image: "Coyote Creek.jpeg"},
	{ID: "los-gatos-creek", Name: "Los Gatos Creek Trail", Location: "San Jose, CA", Image: "Los Gatos Creek.jpg"},
	{ID: "penitencia-creek", Name: "Penitencia Creek Trail", Location: "San Jose, CA", Image: "Penitencia Creek.webp"},
}
