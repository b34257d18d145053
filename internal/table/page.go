package table

// PageSize returns the fixed number of rows per page.
func (s *Store) PageSize() int {
	return s.pageSize
}

// PageCount is ceil(rows/pageSize), and at least 1.
func (s *Store) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageCountLocked()
}

func (s *Store) pageCountLocked() int {
	n := (len(s.leads) + s.pageSize - 1) / s.pageSize
	if n < 1 {
		return 1
	}
	return n
}

// PageIndex returns the zero-based current page.
func (s *Store) PageIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageIndex
}

// NextPage moves one page forward; a no-op on the last page.
func (s *Store) NextPage() bool {
	s.mu.Lock()
	moved := s.pageIndex < s.pageCountLocked()-1
	if moved {
		s.pageIndex++
	}
	s.mu.Unlock()
	if moved {
		s.notify.Changed()
	}
	return moved
}

// PrevPage moves one page back; a no-op on the first page.
func (s *Store) PrevPage() bool {
	s.mu.Lock()
	moved := s.pageIndex > 0
	if moved {
		s.pageIndex--
	}
	s.mu.Unlock()
	if moved {
		s.notify.Changed()
	}
	return moved
}

// SetPage jumps to page i, clamped to the valid range.
func (s *Store) SetPage(i int) {
	s.mu.Lock()
	if last := s.pageCountLocked() - 1; i > last {
		i = last
	}
	if i < 0 {
		i = 0
	}
	changed := i != s.pageIndex
	s.pageIndex = i
	s.mu.Unlock()
	if changed {
		s.notify.Changed()
	}
}
