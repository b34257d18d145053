package lead

// UploadResult acknowledges a CSV upload.
type UploadResult struct {
	Message string `json:"message" yaml:"message"`
	Count   int    `json:"count" yaml:"count"`
}

// EnrichRequest is the body of a bulk enrichment trigger.
type EnrichRequest struct {
	LeadIDs         []int    `json:"lead_ids"`
	EnrichmentTypes []string `json:"enrichment_types"`
}

// EnrichResult acknowledges an enrichment trigger.
type EnrichResult struct {
	Message   string   `json:"message" yaml:"message"`
	TaskIDs   []string `json:"task_ids" yaml:"task_ids"`
	LeadCount int      `json:"lead_count" yaml:"lead_count"`
}

// RetryResult acknowledges a retry of failed enrichment tasks.
type RetryResult struct {
	Message string   `json:"message" yaml:"message"`
	TaskIDs []string `json:"task_ids" yaml:"task_ids"`
}

// TaskReport is the state of one enrichment task of a lead.
type TaskReport struct {
	Type         string       `json:"task_type" yaml:"task_type"`
	Status       Status       `json:"status" yaml:"status"`
	Result       EnrichedData `json:"result" yaml:"-"`
	ErrorMessage *string      `json:"error_message" yaml:"error_message"`
	CreatedAt    *string      `json:"created_at" yaml:"created_at"`
	CompletedAt  *string      `json:"completed_at" yaml:"completed_at"`
}

// StatusReport is the enrichment status of a single lead.
type StatusReport struct {
	LeadID        int          `json:"lead_id" yaml:"lead_id"`
	OverallStatus Status       `json:"overall_status" yaml:"overall_status"`
	Enriched      EnrichedData `json:"enriched_data" yaml:"-"`
	Tasks         []TaskReport `json:"tasks" yaml:"tasks"`
}

// Health is the backend liveness payload.
type Health struct {
	Status string `json:"status" yaml:"status"`
}
