package course

import (
	"regexp"
	"strings"
	"time"
)

type Level string

const (
	Beginner     Level = "beginner"
	Intermediate Level = "intermediate"
	Advanced     Level = "advanced"
	AllLevels    Level = "all-levels"
)

// Course is a catalog entry. TotalStudents, AverageRating and TotalRatings
// are derived counters maintained by enrollment and review writes.
type Course struct {
	ID            int       `json:"id" db:"course_id"`
	Title         string    `json:"title" db:"title"`
	Slug          string    `json:"slug" db:"slug"`
	Description   string    `json:"description" db:"description"`
	Price         int       `json:"price" db:"price"`
	OriginalPrice *int      `json:"originalPrice" db:"original_price"`
	Thumbnail     string    `json:"thumbnail" db:"thumbnail"`
	PreviewVideo  *string   `json:"previewVideo" db:"preview_video"`
	Level         Level     `json:"level" db:"level"`
	CategoryID    int       `json:"categoryId" db:"category_id"`
	InstructorID  int       `json:"instructorId" db:"instructor_id"`
	IsPublished   bool      `json:"isPublished" db:"is_published"`
	IsApproved    bool      `json:"isApproved" db:"is_approved"`
	IsFeatured    bool      `json:"isFeatured" db:"is_featured"`
	IsPopular     bool      `json:"isPopular" db:"is_popular"`
	TotalStudents int       `json:"totalStudents" db:"total_students"`
	TotalHours    float64   `json:"totalHours" db:"total_hours"`
	AverageRating float64   `json:"averageRating" db:"average_rating"`
	TotalRatings  int       `json:"totalRatings" db:"total_ratings"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// Listed reports whether the course is visible in the public catalog.
func (c Course) Listed() bool {
	return c.IsPublished && c.IsApproved
}

type CourseNew struct {
	Title         string  `json:"title" validate:"required"`
	Slug          string  `json:"slug" validate:"omitempty,lowercase"`
	Description   string  `json:"description" validate:"required"`
	Price         int     `json:"price" validate:"gte=0"`
	OriginalPrice *int    `json:"originalPrice" validate:"omitempty,gte=0"`
	Thumbnail     string  `json:"thumbnail" validate:"required,url"`
	PreviewVideo  *string `json:"previewVideo" validate:"omitempty,url"`
	Level         Level   `json:"level" validate:"required,oneof=beginner intermediate advanced all-levels"`
	CategoryID    int     `json:"categoryId" validate:"required,gt=0"`
	InstructorID  int     `json:"instructorId" validate:"required,gt=0"`
	IsPublished   bool    `json:"isPublished"`
	IsApproved    bool    `json:"isApproved"`
	IsFeatured    bool    `json:"isFeatured"`
	IsPopular     bool    `json:"isPopular"`
	TotalHours    float64 `json:"totalHours" validate:"gte=0"`
}

// New builds the record stored for nc with zeroed derived counters.
func New(nc CourseNew, now time.Time) Course {
	return Course{
		Title:         nc.Title,
		Slug:          nc.Slug,
		Description:   nc.Description,
		Price:         nc.Price,
		OriginalPrice: nc.OriginalPrice,
		Thumbnail:     nc.Thumbnail,
		PreviewVideo:  nc.PreviewVideo,
		Level:         nc.Level,
		CategoryID:    nc.CategoryID,
		InstructorID:  nc.InstructorID,
		IsPublished:   nc.IsPublished,
		IsApproved:    nc.IsApproved,
		IsFeatured:    nc.IsFeatured,
		IsPopular:     nc.IsPopular,
		TotalHours:    nc.TotalHours,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

type CourseUp struct {
	Title         *string  `json:"title"`
	Slug          *string  `json:"slug" validate:"omitempty,lowercase"`
	Description   *string  `json:"description"`
	Price         *int     `json:"price" validate:"omitempty,gte=0"`
	OriginalPrice *int     `json:"originalPrice" validate:"omitempty,gte=0"`
	Thumbnail     *string  `json:"thumbnail" validate:"omitempty,url"`
	PreviewVideo  *string  `json:"previewVideo" validate:"omitempty,url"`
	Level         *Level   `json:"level" validate:"omitempty,oneof=beginner intermediate advanced all-levels"`
	CategoryID    *int     `json:"categoryId" validate:"omitempty,gt=0"`
	IsPublished   *bool    `json:"isPublished"`
	IsApproved    *bool    `json:"isApproved"`
	IsFeatured    *bool    `json:"isFeatured"`
	IsPopular     *bool    `json:"isPopular"`
	TotalHours    *float64 `json:"totalHours" validate:"omitempty,gte=0"`
}

// Apply merges the non-nil fields of up into c and stamps UpdatedAt.
func (up CourseUp) Apply(c *Course, now time.Time) {
	if up.Title != nil {
		c.Title = *up.Title
	}
	if up.Slug != nil {
		c.Slug = *up.Slug
	}
	if up.Description != nil {
		c.Description = *up.Description
	}
	if up.Price != nil {
		c.Price = *up.Price
	}
	if up.OriginalPrice != nil {
		v := *up.OriginalPrice
		c.OriginalPrice = &v
	}
	if up.Thumbnail != nil {
		c.Thumbnail = *up.Thumbnail
	}
	if up.PreviewVideo != nil {
		v := *up.PreviewVideo
		c.PreviewVideo = &v
	}
	if up.Level != nil {
		c.Level = *up.Level
	}
	if up.CategoryID != nil {
		c.CategoryID = *up.CategoryID
	}
	if up.IsPublished != nil {
		c.IsPublished = *up.IsPublished
	}
	if up.IsApproved != nil {
		c.IsApproved = *up.IsApproved
	}
	if up.IsFeatured != nil {
		c.IsFeatured = *up.IsFeatured
	}
	if up.IsPopular != nil {
		c.IsPopular = *up.IsPopular
	}
	if up.TotalHours != nil {
		c.TotalHours = *up.TotalHours
	}
	c.UpdatedAt = now
}

// Filter selects courses for the admin listing. Nil flags do not filter.
type Filter struct {
	Page        int
	Limit       int
	Search      string
	IsApproved  *bool
	IsPublished *bool
}

type Page struct {
	Courses []Course `json:"courses"`
	Total   int      `json:"total"`
}

const (
	FeaturedLimit = 6
	LatestLimit   = 8
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a url slug from a title.
func Slugify(title string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}
