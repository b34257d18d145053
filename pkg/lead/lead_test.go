package lead

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresentation(t *testing.T) {
	tests := []struct {
		status Status
		want   Class
	}{
		{StatusPending, ClassPending},
		{StatusProcessing, ClassProcessing},
		{StatusCompleted, ClassCompleted},
		{StatusFailed, ClassFailed},
		{"unknown", ClassPending},
		{"", ClassPending},
		{"COMPLETED", ClassPending},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, Presentation(tt.status))
		})
	}
}

func TestUnknownStatusRendersAsPending(t *testing.T) {
	assert.Equal(t, Presentation(StatusPending), Presentation("unknown"))
	assert.False(t, Status("unknown").Known())
	assert.False(t, Status("unknown").Terminal())
}

func TestLead_DecodeKeepsUnknownStatus(t *testing.T) {
	body := `{"id":7,"first_name":"Ada","last_name":null,"enrichment_status":"queued",
		"enriched_data":{"apollo":{"seniority":"c_suite"},"email_valid":true},
		"created_at":"2024-01-01T00:00:00","updated_at":"2024-01-01T00:00:00"}`

	var l Lead
	require.NoError(t, json.Unmarshal([]byte(body), &l))

	assert.Equal(t, 7, l.ID)
	assert.Equal(t, Status("queued"), l.Status)
	assert.Equal(t, "Ada", Display(l.FirstName))
	assert.Equal(t, Placeholder, Display(l.LastName))
	assert.Equal(t, "Ada", l.FullName())
	assert.Equal(t, KindObject, l.Enriched.Kind())
	assert.Equal(t, []string{"apollo", "email_valid"}, l.Enriched.Keys())
}

func TestEnrichedData_Kinds(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		kind    Kind
		present bool
	}{
		{"absent", "", KindAbsent, false},
		{"null", "null", KindNull, false},
		{"object", `{"a":1}`, KindObject, true},
		{"array", `[1,2]`, KindArray, true},
		{"string", `"x"`, KindScalar, true},
		{"number", `42`, KindScalar, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewEnrichedData([]byte(tt.raw))
			assert.Equal(t, tt.kind, d.Kind())
			assert.Equal(t, tt.present, d.Present())
		})
	}
}

func TestEnrichedData_Decode(t *testing.T) {
	var target struct {
		Score int `json:"score"`
	}

	err := NewEnrichedData([]byte("null")).Decode(&target)
	assert.ErrorIs(t, err, ErrNoPayload)

	require.NoError(t, NewEnrichedData([]byte(`{"score":9}`)).Decode(&target))
	assert.Equal(t, 9, target.Score)
	assert.Nil(t, NewEnrichedData([]byte(`[1]`)).Keys())
}

func TestEnrichedData_MarshalAbsentAsNull(t *testing.T) {
	b, err := json.Marshal(Lead{ID: 1})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"enriched_data":null`)
}

func TestEnrichmentTypes_ReturnsCopy(t *testing.T) {
	types := EnrichmentTypes()
	require.Equal(t, []string{"apollo", "email", "ai"}, types)

	types[0] = "mutated"
	assert.Equal(t, "apollo", DefaultEnrichmentTypes[0])
}
