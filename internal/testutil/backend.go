package testutil

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leapstack-labs/leadsync/pkg/lead"
)

// Route names used for call counting and fault injection.
const (
	RouteList   = "list"
	RouteGet    = "get"
	RouteCreate = "create"
	RouteDelete = "delete"
	RouteUpload = "upload"
	RouteEnrich = "enrich"
	RouteStatus = "status"
	RouteRetry  = "retry"
	RouteHealth = "health"
)

type fault struct {
	status int
	detail string
}

// Backend is an in-memory stand-in for the leads HTTP API.
type Backend struct {
	*httptest.Server

	mu          sync.Mutex
	leads       map[int]*lead.Lead
	nextID      int
	calls       map[string]int
	faults      map[string]fault
	delays      map[string]time.Duration
	lastEnrich  lead.EnrichRequest
	lastUpload  string
	statusAfter map[int][]lead.Status
}

// NewBackend starts a fake backend seeded with leads.
// It is closed automatically when the test ends.
func NewBackend(t testing.TB, seed ...lead.Lead) *Backend {
	t.Helper()

	b := &Backend{
		leads:       make(map[int]*lead.Lead),
		nextID:      1,
		calls:       make(map[string]int),
		faults:      make(map[string]fault),
		delays:      make(map[string]time.Duration),
		statusAfter: make(map[int][]lead.Status),
	}
	for i := range seed {
		l := seed[i]
		if l.ID == 0 {
			l.ID = b.nextID
		}
		if l.Status == "" {
			l.Status = lead.StatusPending
		}
		b.leads[l.ID] = &l
		if l.ID >= b.nextID {
			b.nextID = l.ID + 1
		}
	}

	r := chi.NewRouter()
	r.Get("/health", b.handle(RouteHealth, b.health))
	r.Route("/api/leads", func(r chi.Router) {
		r.Get("/", b.handle(RouteList, b.list))
		r.Post("/", b.handle(RouteCreate, b.create))
		r.Post("/upload-csv", b.handle(RouteUpload, b.upload))
		r.Get("/{id}", b.handle(RouteGet, b.get))
		r.Delete("/{id}", b.handle(RouteDelete, b.remove))
	})
	r.Route("/api/enrich", func(r chi.Router) {
		r.Post("/", b.handle(RouteEnrich, b.enrich))
		r.Get("/status/{id}", b.handle(RouteStatus, b.status))
		r.Post("/retry/{id}", b.handle(RouteRetry, b.retry))
	})

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Close)
	return b
}

// Calls returns how many requests hit route.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// Fail makes every request to route answer with status and detail.
func (b *Backend) Fail(route string, status int, detail string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults[route] = fault{status: status, detail: detail}
}

// Heal removes a fault installed by Fail.
func (b *Backend) Heal(route string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.faults, route)
}

// Delay holds every request to route for d before answering.
func (b *Backend) Delay(route string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delays[route] = d
}

// Leads returns the stored leads ordered by id.
func (b *Backend) Leads() []lead.Lead {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sortedLocked()
}

// SetStatus overwrites the enrichment status of a lead.
func (b *Backend) SetStatus(id int, s lead.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if l, ok := b.leads[id]; ok {
		l.Status = s
	}
}

// ScriptStatus queues statuses that successive status polls of id report.
// The last queued status sticks.
func (b *Backend) ScriptStatus(id int, seq ...lead.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statusAfter[id] = append([]lead.Status(nil), seq...)
}

// LastEnrich returns the body of the most recent enrichment request.
func (b *Backend) LastEnrich() lead.EnrichRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastEnrich
}

// LastUpload returns the file name of the most recent upload.
func (b *Backend) LastUpload() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastUpload
}

func (b *Backend) handle(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[route]++
		f, failing := b.faults[route]
		d := b.delays[route]
		b.mu.Unlock()

		if d > 0 {
			select {
			case <-time.After(d):
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			writeJSON(w, f.status, map[string]string{"detail": f.detail})
			return
		}
		h(w, r)
	}
}

func (b *Backend) sortedLocked() []lead.Lead {
	out := make([]lead.Lead, 0, len(b.leads))
	for _, l := range b.leads {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Backend) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, lead.Health{Status: "healthy"})
}

func (b *Backend) list(w http.ResponseWriter, r *http.Request) {
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	b.mu.Lock()
	all := b.sortedLocked()
	b.mu.Unlock()

	if skip > len(all) {
		skip = len(all)
	}
	end := skip + limit
	if end > len(all) {
		end = len(all)
	}
	writeJSON(w, http.StatusOK, all[skip:end])
}

func (b *Backend) lookup(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "value is not a valid integer"}},
		})
		return 0, false
	}
	b.mu.Lock()
	_, ok := b.leads[id]
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Lead not found"})
		return 0, false
	}
	return id, true
}

func (b *Backend) get(w http.ResponseWriter, r *http.Request) {
	id, ok := b.lookup(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	l := *b.leads[id]
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, l)
}

func (b *Backend) create(w http.ResponseWriter, r *http.Request) {
	var in lead.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	l := b.insert(in)
	writeJSON(w, http.StatusOK, l)
}

func (b *Backend) insert(in lead.Input) lead.Lead {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now().UTC().Format("2006-01-02T15:04:05")
	l := &lead.Lead{
		ID:          b.nextID,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Company:     in.Company,
		Title:       in.Title,
		Website:     in.Website,
		LinkedInURL: in.LinkedInURL,
		Email:       in.Email,
		Phone:       in.Phone,
		Status:      lead.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.leads[l.ID] = l
	b.nextID++
	return *l
}

func (b *Backend) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := b.lookup(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	delete(b.leads, id)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Lead deleted successfully"})
}

func (b *Backend) upload(w http.ResponseWriter, r *http.Request) {
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "No file uploaded"})
		return
	}
	defer func() { _ = file.Close() }()

	if !strings.HasSuffix(strings.ToLower(hdr.Filename), ".csv") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "File must be a CSV"})
		return
	}

	rows, err := parseLeadCSV(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Error processing CSV: " + err.Error()})
		return
	}

	for _, in := range rows {
		b.insert(in)
	}

	b.mu.Lock()
	b.lastUpload = hdr.Filename
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, lead.UploadResult{
		Message: "Successfully uploaded " + strconv.Itoa(len(rows)) + " leads",
		Count:   len(rows),
	})
}

func parseLeadCSV(r io.Reader) ([]lead.Input, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.ToLower(h))] = i
	}
	field := func(rec []string, name string) *string {
		i, ok := idx[name]
		if !ok || i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
			return nil
		}
		v := strings.TrimSpace(rec[i])
		return &v
	}

	var out []lead.Input
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, lead.Input{
			FirstName:   field(rec, "first_name"),
			LastName:    field(rec, "last_name"),
			Company:     field(rec, "company"),
			Title:       field(rec, "title"),
			Website:     field(rec, "website"),
			LinkedInURL: field(rec, "linkedin_url"),
			Email:       field(rec, "email"),
			Phone:       field(rec, "phone"),
		})
	}
}

func (b *Backend) enrich(w http.ResponseWriter, r *http.Request) {
	var req lead.EnrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	b.mu.Lock()
	b.lastEnrich = req
	var taskIDs []string
	count := 0
	for _, id := range req.LeadIDs {
		l, ok := b.leads[id]
		if !ok {
			continue
		}
		l.Status = lead.StatusProcessing
		count++
		for range req.EnrichmentTypes {
			taskIDs = append(taskIDs, uuid.NewString())
		}
	}
	b.mu.Unlock()

	if count == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No valid leads found"})
		return
	}

	writeJSON(w, http.StatusOK, lead.EnrichResult{
		Message:   "Enrichment started for " + strconv.Itoa(count) + " leads",
		TaskIDs:   taskIDs,
		LeadCount: count,
	})
}

func (b *Backend) status(w http.ResponseWriter, r *http.Request) {
	id, ok := b.lookup(w, r)
	if !ok {
		return
	}

	b.mu.Lock()
	l := b.leads[id]
	if seq := b.statusAfter[id]; len(seq) > 0 {
		l.Status = seq[0]
		if len(seq) > 1 {
			b.statusAfter[id] = seq[1:]
		}
	}
	rep := lead.StatusReport{
		LeadID:        id,
		OverallStatus: l.Status,
		Enriched:      l.Enriched,
		Tasks:         []lead.TaskReport{},
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, rep)
}

func (b *Backend) retry(w http.ResponseWriter, r *http.Request) {
	id, ok := b.lookup(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	failed := b.leads[id].Status == lead.StatusFailed
	if failed {
		b.leads[id].Status = lead.StatusProcessing
	}
	b.mu.Unlock()

	if !failed {
		writeJSON(w, http.StatusOK, lead.RetryResult{Message: "No failed tasks to retry", TaskIDs: []string{}})
		return
	}
	writeJSON(w, http.StatusOK, lead.RetryResult{
		Message: "Retrying 1 failed tasks",
		TaskIDs: []string{uuid.NewString()},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// SampleLeads returns n pending leads with ids 1..n.
func SampleLeads(n int) []lead.Lead {
	out := make([]lead.Lead, n)
	for i := range out {
		out[i] = lead.Lead{
			ID:        i + 1,
			FirstName: lead.Ptr("First" + strconv.Itoa(i+1)),
			LastName:  lead.Ptr("Last" + strconv.Itoa(i+1)),
			Company:   lead.Ptr("Acme"),
			Email:     lead.Ptr("lead" + strconv.Itoa(i+1) + "@example.com"),
			Status:    lead.StatusPending,
		}
	}
	return out
}
