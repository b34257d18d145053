package upload

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/leadsync/pkg/lead"
)

// Preview summarises a CSV before it is sent.
type Preview struct {
	Header []string
	Rows   int
	// Recognized lists the known lead columns present, in lead.Columns order.
	Recognized []string
	// Missing lists the known lead columns absent from the header.
	Missing []string
}

// Usable reports whether at least one recognised column is present.
func (p Preview) Usable() bool {
	return len(p.Recognized) > 0
}

// Inspect reads the header and counts data rows.
// It never rejects a file on column grounds; the backend decides.
func Inspect(file File) (Preview, error) {
	r := csv.NewReader(bytes.NewReader(file.Data))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return Preview{Missing: append([]string(nil), lead.Columns...)}, nil
	}
	if err != nil {
		return Preview{}, fmt.Errorf("failed to read header of %s: %w", file.Name, err)
	}

	p := Preview{Header: make([]string, len(header))}
	present := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		p.Header[i] = h
		present[strings.ToLower(h)] = true
	}
	for _, col := range lead.Columns {
		if present[col] {
			p.Recognized = append(p.Recognized, col)
		} else {
			p.Missing = append(p.Missing, col)
		}
	}

	for {
		_, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return p, fmt.Errorf("failed to read row %d of %s: %w", p.Rows+1, file.Name, err)
		}
		p.Rows++
	}
	return p, nil
}
