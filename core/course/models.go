package course

import "time"

// Video is one playable video of a Section. Duration is in seconds.
type Video struct {
	ID       string `json:"id" bson:"id" yaml:"id" validate:"required"`
	Name     string `json:"name,omitempty" bson:"name,omitempty" yaml:"name,omitempty"`
	Duration int    `json:"duration" bson:"duration" yaml:"duration" validate:"min=0"`
}

// Material is a read-only attachment of a Section.
type Material struct {
	Name        string `json:"name" bson:"name" yaml:"name" validate:"required"`
	URL         string `json:"url" bson:"url" yaml:"url"`
	Path        string `json:"path" bson:"path" yaml:"path"`
	Size        int64  `json:"size,omitempty" bson:"size,omitempty" yaml:"size,omitempty"`
	ContentType string `json:"contentType,omitempty" bson:"content_type,omitempty" yaml:"contentType,omitempty"`
}

type Section struct {
	ID          string     `json:"id" bson:"id" yaml:"id" validate:"required,slug"`
	Title       string     `json:"title" bson:"title" yaml:"title"`
	Description string     `json:"description,omitempty" bson:"description,omitempty" yaml:"description,omitempty"`
	Order       int        `json:"order" bson:"order" yaml:"order" validate:"min=0"`
	Videos      []Video    `json:"videos,omitempty" bson:"videos,omitempty" yaml:"videos,omitempty" validate:"dive"`
	Materials   []Material `json:"materials,omitempty" bson:"materials,omitempty" yaml:"materials,omitempty" validate:"dive"`

	// legacy single video fields, superseded by Videos
	VideoID  string `json:"videoId,omitempty" bson:"video_id,omitempty" yaml:"videoId,omitempty"`
	Duration int    `json:"duration,omitempty" bson:"duration,omitempty" yaml:"duration,omitempty" validate:"min=0"`

	// per-user view-state, owned by the progress tracker
	Completed  bool `json:"completed" bson:"-" yaml:"-"`
	Accessible bool `json:"accessible" bson:"-" yaml:"-"`
}

type Module struct {
	ID          string    `json:"id" bson:"id" yaml:"id" validate:"required,slug"`
	Name        string    `json:"moduleName" bson:"module_name" yaml:"moduleName"`
	Description string    `json:"description,omitempty" bson:"description,omitempty" yaml:"description,omitempty"`
	Order       int       `json:"order" bson:"order" yaml:"order" validate:"min=0"`
	Sections    []Section `json:"sections" bson:"sections" yaml:"sections" validate:"dive"`

	// UI-only, never persisted remotely
	Expanded bool `json:"expanded" bson:"-" yaml:"-"`
}

type Course struct {
	ID          string    `json:"id" bson:"_id" yaml:"id" validate:"required,slug"`
	MainTitle   string    `json:"mainTitle" bson:"main_title" yaml:"mainTitle" validate:"required"`
	Description string    `json:"description,omitempty" bson:"description,omitempty" yaml:"description,omitempty"`
	Status      string    `json:"status,omitempty" bson:"status,omitempty" yaml:"status,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty" bson:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Modules     []Module  `json:"modules" bson:"modules" yaml:"modules" validate:"dive"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at" yaml:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at" yaml:"updatedAt,omitempty"`
}

// TotalSections counts the sections of all modules.
func (c *Course) TotalSections() int {
	var n int
	for _, m := range c.Modules {
		n += len(m.Sections)
	}
	return n
}

// ModuleIndex returns the index of the module with the given id, or -1.
func (c *Course) ModuleIndex(moduleID string) int {
	for i := range c.Modules {
		if c.Modules[i].ID == moduleID {
			return i
		}
	}
	return -1
}

// FindSection returns the (module, section) indexes of sectionID inside moduleID.
func (c *Course) FindSection(moduleID, sectionID string) (mi, si int, ok bool) {
	mi = c.ModuleIndex(moduleID)
	if mi < 0 {
		return -1, -1, false
	}
	for si = range c.Modules[mi].Sections {
		if c.Modules[mi].Sections[si].ID == sectionID {
			return mi, si, true
		}
	}
	return -1, -1, false
}

// SectionIDs returns the ids of all sections, in slice order.
func (c *Course) SectionIDs() []string {
	ids := make([]string, 0, c.TotalSections())
	for _, m := range c.Modules {
		for _, s := range m.Sections {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// Copy returns a deep copy of the course.
func (c Course) Copy() Course {
	cp := c
	cp.Modules = make([]Module, len(c.Modules))
	for i, m := range c.Modules {
		mcp := m
		mcp.Sections = make([]Section, len(m.Sections))
		for j, s := range m.Sections {
			scp := s
			scp.Videos = append([]Video(nil), s.Videos...)
			scp.Materials = append([]Material(nil), s.Materials...)
			mcp.Sections[j] = scp
		}
		cp.Modules[i] = mcp
	}
	return cp
}

// Summary is the catalogue entry of a course.
type Summary struct {
	ID            string    `json:"id" db:"id"`
	MainTitle     string    `json:"mainTitle" db:"main_title"`
	Description   string    `json:"description,omitempty" db:"description"`
	Status        string    `json:"status,omitempty" db:"status"`
	Thumbnail     string    `json:"thumbnail,omitempty" db:"thumbnail"`
	ModuleCount   int       `json:"moduleCount" db:"module_count"`
	TotalSections int       `json:"totalSections" db:"total_sections"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`

	// stored overall progress of the requesting user, 0 when not enrolled
	Progress float64 `json:"progress" db:"-"`
}

func (c *Course) Summary() Summary {
	return Summary{
		ID:            c.ID,
		MainTitle:     c.MainTitle,
		Description:   c.Description,
		Status:        c.Status,
		Thumbnail:     c.Thumbnail,
		ModuleCount:   len(c.Modules),
		TotalSections: c.TotalSections(),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
