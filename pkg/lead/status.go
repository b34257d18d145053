package lead

// Status is the backend-owned enrichment state of a lead.
// Values outside the known set are kept verbatim.
type Status string

// Enrichment status constants.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Known reports whether s is one of the four statuses the backend defines.
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether enrichment has finished for good or bad.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Class is a presentation class for a status badge.
type Class string

// Presentation classes. There is exactly one per known status.
const (
	ClassPending    Class = "pending"
	ClassProcessing Class = "processing"
	ClassCompleted  Class = "completed"
	ClassFailed     Class = "failed"
)

// Presentation maps a status to its presentation class.
// Unknown values render like pending.
func Presentation(s Status) Class {
	switch s {
	case StatusProcessing:
		return ClassProcessing
	case StatusCompleted:
		return ClassCompleted
	case StatusFailed:
		return ClassFailed
	default:
		return ClassPending
	}
}

// Enrichment types understood by the backend.
const (
	EnrichApollo  = "apollo"
	EnrichEmail   = "email"
	EnrichAI      = "ai"
	EnrichScraper = "scraper"
)

// DefaultEnrichmentTypes is what the bulk "enrich selected" action sends.
// It is fixed and not configurable.
var DefaultEnrichmentTypes = []string{EnrichApollo, EnrichEmail, EnrichAI}

// EnrichmentTypes returns a fresh copy of DefaultEnrichmentTypes.
func EnrichmentTypes() []string {
	out := make([]string, len(DefaultEnrichmentTypes))
	copy(out, DefaultEnrichmentTypes)
	return out
}
