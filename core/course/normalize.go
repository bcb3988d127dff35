package course

import "sort"

// Normalize returns a deep copy of c in canonical form:
//   - modules sorted by Order, sections sorted by Order (stable for equal orders)
//   - legacy VideoID/Duration folded into Videos when Videos is empty
//
// Downstream code can then rely on slice position == (module.order, section.order) sequence
// and on Videos being the only video representation.
func Normalize(c Course) Course {
	cp := c.Copy()
	sort.SliceStable(cp.Modules, func(i, j int) bool { return cp.Modules[i].Order < cp.Modules[j].Order })
	for mi := range cp.Modules {
		secs := cp.Modules[mi].Sections
		sort.SliceStable(secs, func(i, j int) bool { return secs[i].Order < secs[j].Order })
		for si := range secs {
			secs[si] = normalizeSection(secs[si])
		}
	}
	return cp
}

// normalizeSection folds a legacy video into Videos. A legacy duration without a video id
// has nothing to attach to and is kept as is.
func normalizeSection(s Section) Section {
	switch {
	case len(s.Videos) > 0:
		s.VideoID = ""
		s.Duration = 0
	case s.VideoID != "":
		s.Videos = []Video{{ID: s.VideoID, Duration: s.Duration}}
		s.VideoID = ""
		s.Duration = 0
	}
	return s
}

// SectionDuration returns the total duration of s in seconds:
// the sum of its videos if it has any, else the legacy duration, else 0.
func SectionDuration(s Section) int {
	if len(s.Videos) > 0 {
		var total int
		for _, v := range s.Videos {
			total += v.Duration
		}
		return total
	}
	return s.Duration
}

// PrimaryVideoID returns the id of the first video of s, else the legacy video id.
func PrimaryVideoID(s Section) (string, bool) {
	if len(s.Videos) > 0 {
		return s.Videos[0].ID, true
	}
	if s.VideoID != "" {
		return s.VideoID, true
	}
	return "", false
}
