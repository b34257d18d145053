package lead

import "strings"

// Lead is one contact record. Profile fields are nullable on the wire.
type Lead struct {
	ID          int          `json:"id" yaml:"id"`
	FirstName   *string      `json:"first_name" yaml:"first_name"`
	LastName    *string      `json:"last_name" yaml:"last_name"`
	Company     *string      `json:"company" yaml:"company"`
	Title       *string      `json:"title" yaml:"title"`
	Website     *string      `json:"website" yaml:"website"`
	LinkedInURL *string      `json:"linkedin_url" yaml:"linkedin_url"`
	Email       *string      `json:"email" yaml:"email"`
	Phone       *string      `json:"phone" yaml:"phone"`
	Status      Status       `json:"enrichment_status" yaml:"enrichment_status"`
	Enriched    EnrichedData `json:"enriched_data" yaml:"-"`
	CreatedAt   string       `json:"created_at" yaml:"created_at"`
	UpdatedAt   string       `json:"updated_at" yaml:"updated_at"`
}

// Placeholder is shown for empty profile fields.
const Placeholder = "-"

// Display returns the value of a nullable field or Placeholder.
func Display(s *string) string {
	if s == nil || *s == "" {
		return Placeholder
	}
	return *s
}

// FullName joins first and last name, skipping empty parts.
func (l Lead) FullName() string {
	var parts []string
	if l.FirstName != nil && *l.FirstName != "" {
		parts = append(parts, *l.FirstName)
	}
	if l.LastName != nil && *l.LastName != "" {
		parts = append(parts, *l.LastName)
	}
	if len(parts) == 0 {
		return Placeholder
	}
	return strings.Join(parts, " ")
}

// Columns lists the CSV columns the backend recognises, in upload order.
var Columns = []string{
	"first_name", "last_name", "company", "title",
	"website", "linkedin_url", "email", "phone",
}

// Input is the writable part of a Lead, used to create leads.
type Input struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Company     *string `json:"company,omitempty"`
	Title       *string `json:"title,omitempty"`
	Website     *string `json:"website,omitempty"`
	LinkedInURL *string `json:"linkedin_url,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
}

// Ptr returns a pointer to s. Handy for building Input values.
func Ptr(s string) *string {
	return &s
}
