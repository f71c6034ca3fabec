package enrollment

import (
	"time"

	"github.com/irsalhamdi/e-learning/core/course"
)

type Enrollment struct {
	ID         int       `json:"id" db:"enrollment_id"`
	UserID     int       `json:"userId" db:"user_id"`
	CourseID   int       `json:"courseId" db:"course_id"`
	EnrolledAt time.Time `json:"enrolledAt" db:"enrolled_at"`
	Progress   int       `json:"progress" db:"progress"`
	Completed  bool      `json:"completed" db:"completed"`
	Price      int       `json:"price" db:"price"`
}

// EnrollmentNew carries the price paid, snapshotted from the course.
type EnrollmentNew struct {
	UserID   int `json:"userId" validate:"required,gt=0"`
	CourseID int `json:"courseId" validate:"required,gt=0"`
	Price    int `json:"price" validate:"gte=0"`
}

// New builds a fresh enrollment: no progress, not completed.
func New(ne EnrollmentNew, now time.Time) Enrollment {
	return Enrollment{
		UserID:     ne.UserID,
		CourseID:   ne.CourseID,
		EnrolledAt: now,
		Price:      ne.Price,
	}
}

// SetProgress clamps progress and derives completion from it.
func (e *Enrollment) SetProgress(progress int) {
	e.Progress = Clamp(progress)
	e.Completed = e.Progress == 100
}

type WithCourse struct {
	Enrollment
	Course course.Course `json:"course"`
}

type ProgressUp struct {
	Progress *int `json:"progress" validate:"required,gte=0,lte=100"`
}

// Clamp bounds a progress percentage to 0..100.
func Clamp(progress int) int {
	switch {
	case progress < 0:
		return 0
	case progress > 100:
		return 100
	}
	return progress
}
