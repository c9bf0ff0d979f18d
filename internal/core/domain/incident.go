package domain

import "time"

// IncidentCategory enumerates the kinds of incidents citizens can report.
type IncidentCategory string

const (
	CategoryConflict        IncidentCategory = "conflict"
	CategoryViolence        IncidentCategory = "violence"
	CategoryTension         IncidentCategory = "tension"
	CategoryDisplacement    IncidentCategory = "displacement"
	CategoryNaturalDisaster IncidentCategory = "natural disaster"
	CategoryOther           IncidentCategory = "other"
)

// IncidentSeverity grades how serious a report is.
type IncidentSeverity string

const (
	SeverityLow      IncidentSeverity = "low"
	SeverityMedium   IncidentSeverity = "medium"
	SeverityHigh     IncidentSeverity = "high"
	SeverityCritical IncidentSeverity = "critical"
)

// ValidCategory reports whether the supplied category is part of the closed set.
func ValidCategory(c IncidentCategory) bool {
	switch c {
	case CategoryConflict, CategoryViolence, CategoryTension,
		CategoryDisplacement, CategoryNaturalDisaster, CategoryOther:
		return true
	}
	return false
}

// ValidSeverity reports whether the supplied severity is part of the closed set.
func ValidSeverity(s IncidentSeverity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Incident is a citizen-submitted report tied to a location.
type Incident struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Category    IncidentCategory
	Severity    IncidentSeverity
	City        string
	Country     string
	Lat         float64
	Lng         float64
	IsVerified  bool
	VerifiedBy  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PeaceStory is a positive counterpart to an incident report.
type PeaceStory struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	City      string
	Country   string
	Lat       float64
	Lng       float64
	CreatedAt time.Time
	UpdatedAt time.Time
}
