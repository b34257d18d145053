package table

import "github.com/leapstack-labs/leadsync/pkg/lead"

// Row is one visible table row.
type Row struct {
	Lead     lead.Lead
	Selected bool
	Class    lead.Class
}

// View is an immutable snapshot of the store for rendering.
type View struct {
	Rows          []Row
	Total         int
	Selected      map[int]bool
	SelectedCount int
	Loading       bool
	Enriching     bool
	Page          int
	PageCount     int
	PageSize      int
	CanPrev       bool
	CanNext       bool
	AllSelected   bool
	LoadErr       string
	Token         uint64
	Seq           uint64
}

// Empty reports whether no leads are loaded.
func (v View) Empty() bool {
	return v.Total == 0
}

// FirstRow is the 1-based index of the first visible row, or 0.
func (v View) FirstRow() int {
	if v.Total == 0 {
		return 0
	}
	return v.Page*v.PageSize + 1
}

// LastRow is the 1-based index of the last visible row, or 0.
func (v View) LastRow() int {
	return v.FirstRow() + len(v.Rows) - 1
}

// View returns a snapshot of the current page.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	pages := s.pageCountLocked()
	v := View{
		Total:       len(s.leads),
		Selected:    make(map[int]bool),
		Loading:     s.inflight > 0,
		Enriching:   s.enriching,
		Page:        s.pageIndex,
		PageCount:   pages,
		PageSize:    s.pageSize,
		CanPrev:     s.pageIndex > 0,
		CanNext:     s.pageIndex < pages-1,
		AllSelected: s.allSelectedLocked(),
		Token:       s.token,
		Seq:         s.appliedSeq,
	}
	if s.loadErr != nil {
		v.LoadErr = s.loadErr.Error()
	}
	for id, on := range s.selected {
		if on {
			v.Selected[id] = true
		}
	}
	v.SelectedCount = len(v.Selected)

	start := s.pageIndex * s.pageSize
	end := start + s.pageSize
	if start > len(s.leads) {
		start = len(s.leads)
	}
	if end > len(s.leads) {
		end = len(s.leads)
	}
	v.Rows = make([]Row, 0, end-start)
	for _, l := range s.leads[start:end] {
		v.Rows = append(v.Rows, Row{
			Lead:     l,
			Selected: s.selected[l.ID],
			Class:    lead.Presentation(l.Status),
		})
	}
	return v
}
