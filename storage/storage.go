// Package storage defines the operations the API needs from persistence and
// provides two interchangeable backends: Memory, backed by in-process maps,
// and Postgres, backed by sqlx queries.
//
// Both backends report missing records with database.ErrNotFound and
// uniqueness violations with the database.ErrDuplicate* sentinels.
package storage

import (
	"context"
	"time"

	"github.com/irsalhamdi/e-learning/core/category"
	"github.com/irsalhamdi/e-learning/core/course"
	"github.com/irsalhamdi/e-learning/core/enrollment"
	"github.com/irsalhamdi/e-learning/core/order"
	"github.com/irsalhamdi/e-learning/core/progress"
	"github.com/irsalhamdi/e-learning/core/review"
	"github.com/irsalhamdi/e-learning/core/stats"
	"github.com/irsalhamdi/e-learning/core/user"
)

type Storage interface {
	GetUser(ctx context.Context, id int) (user.User, error)
	GetUserByUsername(ctx context.Context, username string) (user.User, error)
	CreateUser(ctx context.Context, nu user.UserNew) (user.User, error)
	UpdateUserStatus(ctx context.Context, id int, active bool) (user.User, error)
	GetUsers(ctx context.Context, f user.Filter) (user.Page, error)

	GetCategories(ctx context.Context) ([]category.Category, error)
	GetCategory(ctx context.Context, id int) (category.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (category.Category, error)
	CreateCategory(ctx context.Context, nc category.CategoryNew) (category.Category, error)

	GetAllCourses(ctx context.Context) ([]course.Course, error)
	GetFeaturedCourses(ctx context.Context) ([]course.Course, error)
	GetLatestCourses(ctx context.Context) ([]course.Course, error)
	GetCourse(ctx context.Context, id int) (course.Course, error)
	GetCourseBySlug(ctx context.Context, slug string) (course.Course, error)
	CreateCourse(ctx context.Context, nc course.CourseNew) (course.Course, error)
	UpdateCourse(ctx context.Context, id int, up course.CourseUp) (course.Course, error)
	DeleteCourse(ctx context.Context, id int) error
	IncrementCourseStudents(ctx context.Context, id int) error
	GetAdminCourses(ctx context.Context, f course.Filter) (course.Page, error)

	GetCourseSections(ctx context.Context, courseID int) ([]course.SectionWithLessons, error)
	CreateSection(ctx context.Context, ns course.SectionNew) (course.Section, error)
	CreateLesson(ctx context.Context, nl course.LessonNew) (course.Lesson, error)
	GetLesson(ctx context.Context, id int) (course.Lesson, error)

	GetCourseReviews(ctx context.Context, courseID int) ([]review.Review, error)
	GetUserCourseReview(ctx context.Context, userID, courseID int) (review.Review, error)
	GetUserReviews(ctx context.Context, userID int) ([]review.Review, error)
	CreateReview(ctx context.Context, nr review.ReviewNew) (review.Review, error)
	GetTestimonials(ctx context.Context) ([]review.Testimonial, error)

	GetUserEnrollments(ctx context.Context, userID int) ([]enrollment.WithCourse, error)
	GetUserCourseEnrollment(ctx context.Context, userID, courseID int) (enrollment.Enrollment, error)
	CreateEnrollment(ctx context.Context, ne enrollment.EnrollmentNew) (enrollment.Enrollment, error)
	UpdateEnrollmentProgress(ctx context.Context, userID, courseID, progress int) (enrollment.Enrollment, error)
	Enroll(ctx context.Context, userID, courseID int) (enrollment.Enrollment, order.Order, error)

	GetUserRecentProgress(ctx context.Context, userID int) ([]progress.Recent, error)
	SaveProgress(ctx context.Context, np progress.ProgressNew) (progress.Progress, error)

	GetUserOrders(ctx context.Context, userID int) ([]order.WithCourse, error)
	CreateOrder(ctx context.Context, no order.OrderNew) (order.Order, error)
	GetRecentOrders(ctx context.Context) ([]order.Detail, error)

	GetAdminStats(ctx context.Context) (stats.Stats, error)
	GetRevenueByMonth(ctx context.Context, year int) ([]stats.MonthlyRevenue, error)
}

// Clock returns the current time. Backends stamp every created or updated
// record with it.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// stamp truncates to microseconds, the precision postgres keeps, so both
// backends hand back identical timestamps.
func (c Clock) stamp() time.Time {
	return c().UTC().Truncate(time.Microsecond)
}

type options struct {
	clock Clock
}

// Option configures a backend.
type Option func(*options)

// WithClock replaces the wall clock used to stamp records.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: utcNow}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
