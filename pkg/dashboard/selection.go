package dashboard

import (
	"fmt"

	apperrors "sprouthub/pkg/errors"
)

type Selection struct {
	selected string
}

func (s *Selection) Selected() string {
	return s.selected
}

// Resolve drops a selection whose node left the map, then picks the first
// node when nothing is selected. It reports whether the selection changed.
func (s *Selection) Resolve(nodes NodeSet) bool {
	before := s.selected

	if s.selected != "" && !nodes.Has(s.selected) {
		s.selected = ""
	}
	if s.selected == "" {
		if first, ok := nodes.First(); ok {
			s.selected = first
		}
	}

	return s.selected != before
}

func (s *Selection) Select(id string, nodes NodeSet) (bool, error) {
	if !nodes.Has(id) {
		return false, apperrors.NewNotFoundError(fmt.Sprintf("node %q not found", id))
	}
	if s.selected == id {
		return false, nil
	}
	s.selected = id
	return true, nil
}

func (s *Selection) Clear() {
	s.selected = ""
}
