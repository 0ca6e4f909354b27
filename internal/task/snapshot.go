package task

import (
	"strings"
)

// Snapshot is a plain, serialisable copy of a task subtree.
type Snapshot struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	IsComplete  bool       `json:"isComplete" yaml:"is_complete"`
	Tags        []Tag      `json:"tags,omitempty" yaml:"tags,omitempty"`
	Children    []Snapshot `json:"children" yaml:"children,omitempty"`
}

// Snap copies c and its descendants into a Snapshot.
func Snap(c Component) Snapshot {
	s := Snapshot{
		ID:          c.ID(),
		Title:       c.Title(),
		Description: c.Description(),
		IsComplete:  c.IsComplete(),
		Tags:        c.Tags(),
		Children:    []Snapshot{},
	}
	if len(s.Tags) == 0 {
		s.Tags = nil
	}
	for _, child := range c.Children() {
		s.Children = append(s.Children, Snap(child))
	}
	return s
}

// Markdown renders c as a nested GitHub-style checklist.
func Markdown(c Component) string {
	var b strings.Builder
	Walk(c, func(n Component, depth int) bool {
		b.WriteString(strings.Repeat(childIndent, depth))
		if n.IsComplete() {
			b.WriteString("- [x] ")
		} else {
			b.WriteString("- [ ] ")
		}
		b.WriteString("**")
		b.WriteString(n.Title())
		b.WriteString("**")
		if n.Description() != "" {
			b.WriteString(": ")
			b.WriteString(n.Description())
		}
		for _, tag := range n.Tags() {
			b.WriteString(" `")
			b.WriteString(tag.Name)
			b.WriteString("`")
		}
		b.WriteString("\n")
		return true
	})
	return b.String()
}
