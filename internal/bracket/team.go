package bracket

import "github.com/google/uuid"

// Team is the bracket's view of a participating team. Teams are owned by the
// team directory, the bracket only keeps copies.
type Team struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	DemoLink    *string   `json:"demo_link,omitempty" db:"demo_link"`
}

// Is reports whether both references point at the same team. Two nil refs are equal.
func (t *Team) Is(other *Team) bool {
	if t == nil || other == nil {
		return t == nil && other == nil
	}
	return t.ID == other.ID
}

func (t *Team) clone() *Team {
	if t == nil {
		return nil
	}
	c := *t
	if t.DemoLink != nil {
		link := *t.DemoLink
		c.DemoLink = &link
	}
	return &c
}
