package lead

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
)

// Kind is the JSON shape of an EnrichedData payload.
type Kind int

// Payload shapes.
const (
	KindAbsent Kind = iota
	KindNull
	KindObject
	KindArray
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindScalar:
		return "scalar"
	default:
		return "absent"
	}
}

// ErrNoPayload is returned when decoding an absent or null payload.
var ErrNoPayload = errors.New("no enriched data")

// EnrichedData is the opaque backend payload attached to a lead.
// It is kept as raw JSON; callers branch on Kind before decoding.
type EnrichedData struct {
	raw json.RawMessage
}

// NewEnrichedData wraps raw JSON. An empty slice means absent.
func NewEnrichedData(raw []byte) EnrichedData {
	if len(raw) == 0 {
		return EnrichedData{}
	}
	return EnrichedData{raw: append(json.RawMessage(nil), raw...)}
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *EnrichedData) UnmarshalJSON(b []byte) error {
	d.raw = append(d.raw[:0], b...)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d EnrichedData) MarshalJSON() ([]byte, error) {
	if len(d.raw) == 0 {
		return []byte("null"), nil
	}
	return d.raw, nil
}

// Raw returns the payload bytes as received.
func (d EnrichedData) Raw() json.RawMessage {
	return d.raw
}

// Kind reports the shape of the payload.
func (d EnrichedData) Kind() Kind {
	b := bytes.TrimSpace(d.raw)
	if len(b) == 0 {
		return KindAbsent
	}
	switch b[0] {
	case 'n':
		return KindNull
	case '{':
		return KindObject
	case '[':
		return KindArray
	default:
		return KindScalar
	}
}

// Present reports whether the backend attached any data.
func (d EnrichedData) Present() bool {
	k := d.Kind()
	return k != KindAbsent && k != KindNull
}

// Decode unmarshals the payload into v.
func (d EnrichedData) Decode(v any) error {
	if !d.Present() {
		return ErrNoPayload
	}
	return json.Unmarshal(d.raw, v)
}

// Keys returns the sorted top-level keys of an object payload.
// Other shapes have no keys.
func (d EnrichedData) Keys() []string {
	if d.Kind() != KindObject {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(d.raw, &m); err != nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
