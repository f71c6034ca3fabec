package review

import (
	"time"

	"github.com/irsalhamdi/e-learning/core/user"
)

type Review struct {
	ID        int       `json:"id" db:"review_id"`
	UserID    int       `json:"userId" db:"user_id"`
	CourseID  int       `json:"courseId" db:"course_id"`
	Rating    int       `json:"rating" db:"rating"`
	Content   *string   `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type ReviewNew struct {
	UserID   int     `json:"userId" validate:"required,gt=0"`
	CourseID int     `json:"courseId" validate:"required,gt=0"`
	Rating   int     `json:"rating" validate:"required,gte=1,lte=5"`
	Content  *string `json:"content" validate:"omitempty,max=2000"`
}

func New(nr ReviewNew, now time.Time) Review {
	return Review{
		UserID:    nr.UserID,
		CourseID:  nr.CourseID,
		Rating:    nr.Rating,
		Content:   nr.Content,
		CreatedAt: now,
	}
}

// Testimonial is a review shown for marketing, with its author and course.
type Testimonial struct {
	ID          int       `json:"id" db:"review_id"`
	Content     string    `json:"content" db:"content"`
	Rating      int       `json:"rating" db:"rating"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	Name        string    `json:"name" db:"full_name"`
	Avatar      *string   `json:"avatar" db:"avatar"`
	Role        user.Role `json:"role" db:"role"`
	CourseTitle string    `json:"courseTitle" db:"course_title"`
}

const (
	MinRating = 1
	MaxRating = 5
)

const (
	TestimonialLimit     = 6
	TestimonialMinRating = 4
)

// Qualifies reports whether r may be shown as a testimonial.
func (r Review) Qualifies() bool {
	return r.Rating >= TestimonialMinRating && r.Content != nil && *r.Content != ""
}

// Aggregate returns the mean rating and the number of reviews.
func Aggregate(reviews []Review) (float64, int) {
	if len(reviews) == 0 {
		return 0, 0
	}
	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews)), len(reviews)
}
