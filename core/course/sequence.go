package course

import "sort"

// Position locates a section in a course's flattened sequence.
type Position struct {
	ModuleIndex  int
	SectionIndex int
	ModuleID     string
	SectionID    string
}

// Flatten returns every section of c ordered by (module.Order, section.Order),
// regardless of their position in the Modules and Sections slices.
// Indexes refer to c as given.
func Flatten(c *Course) []Position {
	seq := make([]Position, 0, c.TotalSections())
	for mi, m := range c.Modules {
		for si, s := range m.Sections {
			seq = append(seq, Position{ModuleIndex: mi, SectionIndex: si, ModuleID: m.ID, SectionID: s.ID})
		}
	}
	sort.SliceStable(seq, func(i, j int) bool {
		mi, mj := c.Modules[seq[i].ModuleIndex], c.Modules[seq[j].ModuleIndex]
		if mi.Order != mj.Order {
			return mi.Order < mj.Order
		}
		if seq[i].ModuleIndex != seq[j].ModuleIndex {
			return seq[i].ModuleIndex < seq[j].ModuleIndex
		}
		return mi.Sections[seq[i].SectionIndex].Order < mj.Sections[seq[j].SectionIndex].Order
	})
	return seq
}

// IndexOf returns the index of (moduleID, sectionID) in seq, or -1.
func IndexOf(seq []Position, moduleID, sectionID string) int {
	for i, p := range seq {
		if p.ModuleID == moduleID && p.SectionID == sectionID {
			return i
		}
	}
	return -1
}
