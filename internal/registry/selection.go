package registry

import (
	"slices"

	"github.com/aitool/sleuth/internal/backend"
)

// Selection tracks the files marked in the list and the file under the
// cursor. Selected ids are reported in list order.
type Selection struct {
	order    []string
	selected map[string]bool
	active   string
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{selected: map[string]bool{}}
}

// Sync replaces the known list, dropping selected ids that disappeared.
// It returns true when the set of selected ids changed.
func (s *Selection) Sync(files []backend.FileRecord) bool {
	s.order = s.order[:0]
	present := make(map[string]bool, len(files))
	for _, f := range files {
		s.order = append(s.order, f.UUID)
		present[f.UUID] = true
	}
	changed := false
	for id := range s.selected {
		if !present[id] {
			delete(s.selected, id)
			changed = true
		}
	}
	if s.active != "" && !present[s.active] {
		s.active = ""
	}
	return changed
}

// Toggle flips the selection of id.
func (s *Selection) Toggle(id string) {
	if id == "" {
		return
	}
	if s.selected[id] {
		delete(s.selected, id)
		return
	}
	s.selected[id] = true
}

// SelectAll marks every known file.
func (s *Selection) SelectAll() {
	for _, id := range s.order {
		s.selected[id] = true
	}
}

// Clear unmarks every file.
func (s *Selection) Clear() {
	clear(s.selected)
}

// IsSelected reports whether id is marked.
func (s *Selection) IsSelected(id string) bool {
	return s.selected[id]
}

// Len returns the number of marked files.
func (s *Selection) Len() int {
	return len(s.selected)
}

// IDs returns the marked ids in list order.
func (s *Selection) IDs() []string {
	ids := make([]string, 0, len(s.selected))
	for _, id := range s.order {
		if s.selected[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// SetActive records the file under the cursor.
func (s *Selection) SetActive(id string) {
	s.active = id
}

// Active returns the file under the cursor.
func (s *Selection) Active() string {
	return s.active
}

// ViewerIDs returns the files to show in the log viewer: the marked files
// when any are marked, otherwise the active file.
func (s *Selection) ViewerIDs() []string {
	if ids := s.IDs(); len(ids) > 0 {
		return ids
	}
	if s.active != "" {
		return []string{s.active}
	}
	return nil
}

// SameIDs reports whether a and b hold the same ids in the same order.
func SameIDs(a, b []string) bool {
	return slices.Equal(a, b)
}
