// Package curriculum holds the lesson catalog: the lessons a learner can pass
// and the short type tag each one contributes to fusion titles.
package curriculum

import (
	"fmt"
	"strings"
)

// FusionIDPrefix is reserved for derived credentials; no lesson may use it.
const FusionIDPrefix = "fusion_"

// Lesson is one entry of the catalog.
type Lesson struct {
	ID    string
	Title string
	// TypeTag is the short discipline label, e.g. "QM".
	TypeTag string
}

// Catalog is an immutable, ordered set of lessons.
type Catalog struct {
	lessons []Lesson
	byID    map[string]Lesson
}

// New validates lessons and builds a catalog in the given order.
func New(lessons ...Lesson) (*Catalog, error) {
	c := &Catalog{
		lessons: make([]Lesson, 0, len(lessons)),
		byID:    make(map[string]Lesson, len(lessons)),
	}
	for _, l := range lessons {
		l.ID = strings.TrimSpace(l.ID)
		switch {
		case l.ID == "":
			return nil, fmt.Errorf("lesson %q: id is required", l.Title)
		case strings.HasPrefix(l.ID, FusionIDPrefix):
			return nil, fmt.Errorf("lesson %s: id uses reserved prefix %q", l.ID, FusionIDPrefix)
		case strings.TrimSpace(l.TypeTag) == "":
			return nil, fmt.Errorf("lesson %s: type tag is required", l.ID)
		}
		if _, dup := c.byID[l.ID]; dup {
			return nil, fmt.Errorf("lesson %s: duplicate id", l.ID)
		}
		c.byID[l.ID] = l
		c.lessons = append(c.lessons, l)
	}
	return c, nil
}

// Default returns the built-in three-lesson curriculum.
func Default() *Catalog {
	c, err := New(
		Lesson{ID: "1", Title: "Holographic Principle", TypeTag: "AdS/CFT"},
		Lesson{ID: "2", Title: "Quantum Tunneling", TypeTag: "QM"},
		Lesson{ID: "3", Title: "Lorenz Attractor", TypeTag: "Chaos"},
	)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Lookup(id string) (Lesson, bool) {
	l, ok := c.byID[id]
	return l, ok
}

// Lessons returns the catalog in display order.
func (c *Catalog) Lessons() []Lesson {
	out := make([]Lesson, len(c.lessons))
	copy(out, c.lessons)
	return out
}
