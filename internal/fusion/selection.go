package fusion

import (
	"slices"
	"sync"
)

// MaxSelected is the number of credentials a fusion consumes.
const MaxSelected = 2

// Selection is the learner's pick of fusion parents, in the order chosen.
type Selection struct {
	mu  sync.Mutex
	ids []string
}

// NewSelection starts with ids, keeping at most MaxSelected distinct entries.
func NewSelection(ids ...string) *Selection {
	s := &Selection{}
	for _, id := range ids {
		if !slices.Contains(s.ids, id) && len(s.ids) < MaxSelected {
			s.ids = append(s.ids, id)
		}
	}
	return s
}

// Toggle removes id if selected, adds it if there is room, and otherwise does
// nothing. It reports whether id is selected afterwards.
func (s *Selection) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return false
	}
	if len(s.ids) >= MaxSelected {
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

func (s *Selection) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ids)
}

func (s *Selection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = nil
}
