package ui

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/leadsync/internal/table"
	"github.com/leapstack-labs/leadsync/internal/upload"
	"github.com/starfederation/datastar-go/datastar"
)

// maxUploadBytes bounds the multipart body of an upload.
const maxUploadBytes = 32 << 20

// errBadRequest marks action errors answered with 400.
var errBadRequest = errors.New("bad request")

type handlers struct {
	sessions *registry
	logger   *slog.Logger
}

// HandlePage renders the full page for the caller's session.
func (h *handlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	e, err := h.sessions.lookup(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	e.mount(r.Context())

	if err := pageShell("Leads", app(snapshot(e))).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleUpdates is the long-lived SSE endpoint. It does not send an initial
// state; the page is already rendered.
func (h *handlers) HandleUpdates(w http.ResponseWriter, r *http.Request) {
	e, err := h.sessions.lookup(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	e.streams.Add(1)
	defer e.streams.Add(-1)

	updates := e.updates.Subscribe()
	defer e.updates.Unsubscribe(updates)

	sse := datastar.NewSSE(w, r)
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			e.touch(h.sessions.now())
			if err := sse.PatchElementTempl(app(snapshot(e))); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// HandleHealth reports liveness.
func (h *handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": h.sessions.Len(),
	})
}

// action wraps a session mutation and answers with a patch of the app.
func (h *handlers) action(fn func(r *http.Request, e *entry) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := h.sessions.lookup(w, r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		e.mount(r.Context())

		if err := fn(r, e); err != nil {
			if errors.Is(err, errBadRequest) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			h.logger.Debug("action failed", "path", r.URL.Path, "error", err)
		}

		sse := datastar.NewSSE(w, r)
		if err := sse.PatchElementTempl(app(snapshot(e))); err != nil {
			_ = sse.ConsoleError(err)
		}
	}
}

func leadID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid lead id %q", errBadRequest, chi.URLParam(r, "id"))
	}
	return id, nil
}

func (h *handlers) refresh(r *http.Request, e *entry) error {
	return e.page.Table().Refresh(r.Context())
}

func (h *handlers) toggleRow(r *http.Request, e *entry) error {
	id, err := leadID(r)
	if err != nil {
		return err
	}
	e.page.Table().ToggleRow(id)
	return nil
}

func (h *handlers) toggleAll(_ *http.Request, e *entry) error {
	e.page.Table().ToggleAll()
	return nil
}

func (h *handlers) enrich(r *http.Request, e *entry) error {
	_, err := e.page.Table().EnrichSelected(r.Context())
	return err
}

// deleteRow runs after the browser confirmed.
func (h *handlers) deleteRow(r *http.Request, e *entry) error {
	id, err := leadID(r)
	if err != nil {
		return err
	}
	return e.page.Table().DeleteRow(r.Context(), id, table.Always(true))
}

func (h *handlers) nextPage(_ *http.Request, e *entry) error {
	e.page.Table().NextPage()
	return nil
}

func (h *handlers) prevPage(_ *http.Request, e *entry) error {
	e.page.Table().PrevPage()
	return nil
}

func (h *handlers) openUpload(_ *http.Request, e *entry) error {
	e.setUploadErr("")
	e.page.OpenUpload()
	return nil
}

func (h *handlers) cancelUpload(_ *http.Request, e *entry) error {
	flow := e.page.Upload()
	if flow == nil {
		return nil
	}
	e.setUploadErr("")
	return flow.Cancel()
}

// upload stages the posted files and uploads the first one.
func (h *handlers) upload(r *http.Request, e *entry) error {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		return fmt.Errorf("%w: no file in field \"file\"", errBadRequest)
	}
	files := make([]upload.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readPart(fh)
		if err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		files = append(files, f)
	}

	flow := e.page.Upload()
	if flow == nil {
		flow = e.page.OpenUpload()
	}
	if err := flow.Select(files...); err != nil {
		e.setUploadErr(err.Error())
		return err
	}
	e.setUploadErr("")
	_, err := flow.Confirm(r.Context())
	return err
}

func (h *handlers) retryUpload(r *http.Request, e *entry) error {
	flow := e.page.Upload()
	if flow == nil {
		return nil
	}
	_, err := flow.Confirm(r.Context())
	return err
}

func (h *handlers) dismissAlert(_ *http.Request, e *entry) error {
	e.dismissAlert()
	e.updates.Changed()
	return nil
}

func readPart(fh *multipart.FileHeader) (upload.File, error) {
	f, err := fh.Open()
	if err != nil {
		return upload.File{}, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return upload.File{}, err
	}
	return upload.File{Name: fh.Filename, Data: data}, nil
}
