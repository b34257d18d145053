// Package lead defines the shared language of the leadsync client.
//
// This package contains:
//   - The Lead record as served by the backend
//   - The enrichment status enum and its presentation classes
//   - The opaque enriched-data envelope
//   - Request and response payloads of the leads HTTP API
//
// The Golden Rule: pkg/lead imports ONLY stdlib.
// All other packages depend on lead, not the reverse.
package lead
