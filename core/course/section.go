package course

type Section struct {
	ID          int     `json:"id" db:"section_id"`
	Title       string  `json:"title" db:"title"`
	Description *string `json:"description" db:"description"`
	CourseID    int     `json:"courseId" db:"course_id"`
	Order       int     `json:"order" db:"sort_order"`
}

type SectionNew struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	CourseID    int     `json:"courseId" validate:"required,gt=0"`
	Order       int     `json:"order" validate:"gte=0"`
}

// Lesson belongs to a section. CourseID repeats the section's course so
// lessons can be queried per course directly.
type Lesson struct {
	ID          int     `json:"id" db:"lesson_id"`
	Title       string  `json:"title" db:"title"`
	Description *string `json:"description" db:"description"`
	Content     *string `json:"content" db:"content"`
	VideoURL    *string `json:"videoUrl" db:"video_url"`
	Duration    int     `json:"duration" db:"duration"`
	IsFree      bool    `json:"isFree" db:"is_free"`
	SectionID   int     `json:"sectionId" db:"section_id"`
	CourseID    int     `json:"courseId" db:"course_id"`
	Order       int     `json:"order" db:"sort_order"`
}

type LessonNew struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	Content     *string `json:"content"`
	VideoURL    *string `json:"videoUrl" validate:"omitempty,url"`
	Duration    int     `json:"duration" validate:"gte=0"`
	IsFree      bool    `json:"isFree"`
	SectionID   int     `json:"sectionId" validate:"required,gt=0"`
	Order       int     `json:"order" validate:"gte=0"`
}

func NewSection(ns SectionNew) Section {
	return Section{
		Title:       ns.Title,
		Description: ns.Description,
		CourseID:    ns.CourseID,
		Order:       ns.Order,
	}
}

// NewLesson builds the lesson stored for nl under section s.
func NewLesson(nl LessonNew, s Section) Lesson {
	return Lesson{
		Title:       nl.Title,
		Description: nl.Description,
		Content:     nl.Content,
		VideoURL:    nl.VideoURL,
		Duration:    nl.Duration,
		IsFree:      nl.IsFree,
		SectionID:   s.ID,
		CourseID:    s.CourseID,
		Order:       nl.Order,
	}
}

type SectionWithLessons struct {
	Section
	Lessons []Lesson `json:"lessons"`
}

// Curriculum groups lessons under their sections. Both inputs must already
// be ordered; sections without lessons get an empty slice.
func Curriculum(sections []Section, lessons []Lesson) []SectionWithLessons {
	idx := make(map[int]int, len(sections))
	out := make([]SectionWithLessons, len(sections))
	for i, s := range sections {
		idx[s.ID] = i
		out[i] = SectionWithLessons{Section: s, Lessons: []Lesson{}}
	}
	for _, l := range lessons {
		if i, ok := idx[l.SectionID]; ok {
			out[i].Lessons = append(out[i].Lessons, l)
		}
	}
	return out
}
