package progress

import (
	"time"

	"github.com/irsalhamdi/e-learning/core/course"
)

// Progress records how far a user got through one lesson.
type Progress struct {
	ID             int        `json:"id" db:"progress_id"`
	UserID         int        `json:"userId" db:"user_id"`
	LessonID       int        `json:"lessonId" db:"lesson_id"`
	CourseID       int        `json:"courseId" db:"course_id"`
	Completed      bool       `json:"completed" db:"completed"`
	LastWatched    *time.Time `json:"lastWatched" db:"last_watched"`
	WatchedSeconds int        `json:"watchedSeconds" db:"watched_seconds"`
}

type ProgressNew struct {
	UserID         int  `json:"userId" validate:"required,gt=0"`
	LessonID       int  `json:"lessonId" validate:"required,gt=0"`
	Completed      bool `json:"completed"`
	WatchedSeconds int  `json:"watchedSeconds" validate:"gte=0"`
}

// ProgressUp is the body a student sends while watching a lesson.
type ProgressUp struct {
	Completed      bool `json:"completed"`
	WatchedSeconds int  `json:"watchedSeconds" validate:"gte=0"`
}

// New builds the first progress row of a user on lesson l.
func New(np ProgressNew, l course.Lesson, now time.Time) Progress {
	return Progress{
		UserID:         np.UserID,
		LessonID:       l.ID,
		CourseID:       l.CourseID,
		Completed:      np.Completed,
		LastWatched:    &now,
		WatchedSeconds: np.WatchedSeconds,
	}
}

type Recent struct {
	Progress
	Lesson course.Lesson `json:"lesson"`
	Course course.Course `json:"course"`
}

const RecentLimit = 5

// Merge folds an update into an existing row: completion is sticky and the
// watched position never moves backwards.
func Merge(p Progress, np ProgressNew, now time.Time) Progress {
	p.Completed = p.Completed || np.Completed
	if np.WatchedSeconds > p.WatchedSeconds {
		p.WatchedSeconds = np.WatchedSeconds
	}
	p.LastWatched = &now
	return p
}
