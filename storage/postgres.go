package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/irsalhamdi/e-learning/core/category"
	"github.com/irsalhamdi/e-learning/core/course"
	"github.com/irsalhamdi/e-learning/core/enrollment"
	"github.com/irsalhamdi/e-learning/core/order"
	"github.com/irsalhamdi/e-learning/core/progress"
	"github.com/irsalhamdi/e-learning/core/review"
	"github.com/irsalhamdi/e-learning/core/stats"
	"github.com/irsalhamdi/e-learning/core/user"
	"github.com/irsalhamdi/e-learning/database"
	"github.com/irsalhamdi/e-learning/validate"
	"github.com/jmoiron/sqlx"
)

// Postgres implements Storage on top of the schema in database/migrations.
type Postgres struct {
	db  *sqlx.DB
	now Clock
}

func NewPostgres(db *sqlx.DB, opts ...Option) *Postgres {
	o := buildOptions(opts)
	return &Postgres{db: db, now: o.clock}
}

// =============================================================================
// Users

func (p *Postgres) GetUser(ctx context.Context, id int) (user.User, error) {
	u, err := user.Fetch(ctx, p.db, id)
	if err != nil {
		return user.User{}, fmt.Errorf("fetching user[%d]: %w", id, err)
	}
	return u, nil
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	u, err := user.FetchByUsername(ctx, p.db, username)
	if err != nil {
		return user.User{}, fmt.Errorf("fetching user[%s]: %w", username, err)
	}
	return u, nil
}

func (p *Postgres) CreateUser(ctx context.Context, nu user.UserNew) (user.User, error) {
	u, err := user.Create(ctx, p.db, user.New(nu, p.now.stamp()))
	if err != nil {
		return user.User{}, fmt.Errorf("creating user[%s]: %w", nu.Username, err)
	}
	return u, nil
}

func (p *Postgres) UpdateUserStatus(ctx context.Context, id int, active bool) (user.User, error) {
	if err := user.UpdateStatus(ctx, p.db, id, active); err != nil {
		return user.User{}, fmt.Errorf("updating status of user[%d]: %w", id, err)
	}
	return p.GetUser(ctx, id)
}

func (p *Postgres) GetUsers(ctx context.Context, f user.Filter) (user.Page, error) {
	page, err := user.List(ctx, p.db, f)
	if err != nil {
		return user.Page{}, fmt.Errorf("listing users: %w", err)
	}
	return page, nil
}

// =============================================================================
// Categories

func (p *Postgres) GetCategories(ctx context.Context) ([]category.Category, error) {
	cats, err := category.List(ctx, p.db)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return cats, nil
}

func (p *Postgres) GetCategory(ctx context.Context, id int) (category.Category, error) {
	c, err := category.Fetch(ctx, p.db, id)
	if err != nil {
		return category.Category{}, fmt.Errorf("fetching category[%d]: %w", id, err)
	}
	return c, nil
}

func (p *Postgres) GetCategoryBySlug(ctx context.Context, slug string) (category.Category, error) {
	c, err := category.FetchBySlug(ctx, p.db, slug)
	if err != nil {
		return category.Category{}, fmt.Errorf("fetching category[%s]: %w", slug, err)
	}
	return c, nil
}

func (p *Postgres) CreateCategory(ctx context.Context, nc category.CategoryNew) (category.Category, error) {
	c, err := category.Create(ctx, p.db, category.New(nc))
	if err != nil {
		return category.Category{}, fmt.Errorf("creating category[%s]: %w", nc.Slug, err)
	}
	return c, nil
}

// =============================================================================
// Courses

func (p *Postgres) GetAllCourses(ctx context.Context) ([]course.Course, error) {
	courses, err := course.ListListed(ctx, p.db, false, 0)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	return courses, nil
}

func (p *Postgres) GetFeaturedCourses(ctx context.Context) ([]course.Course, error) {
	courses, err := course.ListListed(ctx, p.db, true, course.FeaturedLimit)
	if err != nil {
		return nil, fmt.Errorf("listing featured courses: %w", err)
	}
	return courses, nil
}

func (p *Postgres) GetLatestCourses(ctx context.Context) ([]course.Course, error) {
	courses, err := course.ListListed(ctx, p.db, false, course.LatestLimit)
	if err != nil {
		return nil, fmt.Errorf("listing latest courses: %w", err)
	}
	return courses, nil
}

func (p *Postgres) GetCourse(ctx context.Context, id int) (course.Course, error) {
	c, err := course.Fetch(ctx, p.db, id)
	if err != nil {
		return course.Course{}, fmt.Errorf("fetching course[%d]: %w", id, err)
	}
	return c, nil
}

func (p *Postgres) GetCourseBySlug(ctx context.Context, slug string) (course.Course, error) {
	c, err := course.FetchBySlug(ctx, p.db, slug)
	if err != nil {
		return course.Course{}, fmt.Errorf("fetching course[%s]: %w", slug, err)
	}
	return c, nil
}

func (p *Postgres) CreateCourse(ctx context.Context, nc course.CourseNew) (course.Course, error) {
	c, err := course.Create(ctx, p.db, course.New(nc, p.now.stamp()))
	if err != nil {
		return course.Course{}, fmt.Errorf("creating course[%s]: %w", nc.Slug, err)
	}
	return c, nil
}

func (p *Postgres) UpdateCourse(ctx context.Context, id int, up course.CourseUp) (course.Course, error) {
	var c course.Course
	err := database.Transaction(ctx, p.db, func(tx sqlx.ExtContext) error {
		var err error
		if c, err = course.FetchForUpdate(ctx, tx, id); err != nil {
			return err
		}
		up.Apply(&c, p.now.stamp())
		return course.Update(ctx, tx, c)
	})
	if err != nil {
		return course.Course{}, fmt.Errorf("updating course[%d]: %w", id, err)
	}
	return c, nil
}

func (p *Postgres) DeleteCourse(ctx context.Context, id int) error {
	err := database.Transaction(ctx, p.db, func(tx sqlx.ExtContext) error {
		if _, err := course.FetchForUpdate(ctx, tx, id); err != nil {
			return err
		}
		if err := progress.DeleteByCourse(ctx, tx, id); err != nil {
			return fmt.Errorf("deleting progress: %w", err)
		}
		if err := course.DeleteCurriculum(ctx, tx, id); err != nil {
			return err
		}
		if err := enrollment.DeleteByCourse(ctx, tx, id); err != nil {
			return fmt.Errorf("deleting enrollments: %w", err)
		}
		if err := review.DeleteByCourse(ctx, tx, id); err != nil {
			return fmt.Errorf("deleting reviews: %w", err)
		}
		return course.Delete(ctx, tx, id)
	})
	if err != nil {
		return fmt.Errorf("deleting course[%d]: %w", id, err)
	}
	return nil
}

func (p *Postgres) IncrementCourseStudents(ctx context.Context, id int) error {
	if err := course.IncrementStudents(ctx, p.db, id); err != nil {
		return fmt.Errorf("incrementing students of course[%d]: %w", id, err)
	}
	return nil
}

func (p *Postgres) GetAdminCourses(ctx context.Context, f course.Filter) (course.Page, error) {
	page, err := course.ListAdmin(ctx, p.db, f)
	if err != nil {
		return course.Page{}, fmt.Errorf("listing admin courses: %w", err)
	}
	return page, nil
}

// =============================================================================
// Curriculum

func (p *Postgres) GetCourseSections(ctx context.Context, courseID int) ([]course.SectionWithLessons, error) {
	sections, err := course.ListSections(ctx, p.db, courseID)
	if err != nil {
		return nil, fmt.Errorf("listing sections of course[%d]: %w", courseID, err)
	}
	lessons, err := course.ListLessons(ctx, p.db, courseID)
	if err != nil {
		return nil, fmt.Errorf("listing lessons of course[%d]: %w", courseID, err)
	}
	return course.Curriculum(sections, lessons), nil
}

func (p *Postgres) CreateSection(ctx context.Context, ns course.SectionNew) (course.Section, error) {
	s, err := course.CreateSection(ctx, p.db, course.NewSection(ns))
	if err != nil {
		return course.Section{}, fmt.Errorf("creating section of course[%d]: %w", ns.CourseID, err)
	}
	return s, nil
}

func (p *Postgres) CreateLesson(ctx context.Context, nl course.LessonNew) (course.Lesson, error) {
	s, err := course.FetchSection(ctx, p.db, nl.SectionID)
	if err != nil {
		return course.Lesson{}, fmt.Errorf("fetching section[%d]: %w", nl.SectionID, err)
	}
	l, err := course.CreateLesson(ctx, p.db, course.NewLesson(nl, s))
	if err != nil {
		return course.Lesson{}, fmt.Errorf("creating lesson of section[%d]: %w", nl.SectionID, err)
	}
	return l, nil
}

func (p *Postgres) GetLesson(ctx context.Context, id int) (course.Lesson, error) {
	l, err := course.FetchLesson(ctx, p.db, id)
	if err != nil {
		return course.Lesson{}, fmt.Errorf("fetching lesson[%d]: %w", id, err)
	}
	return l, nil
}

// =============================================================================
// Reviews

func (p *Postgres) GetCourseReviews(ctx context.Context, courseID int) ([]review.Review, error) {
	reviews, err := review.ListByCourse(ctx, p.db, courseID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews of course[%d]: %w", courseID, err)
	}
	return reviews, nil
}

func (p *Postgres) GetUserCourseReview(ctx context.Context, userID, courseID int) (review.Review, error) {
	r, err := review.Fetch(ctx, p.db, userID, courseID)
	if err != nil {
		return review.Review{}, fmt.Errorf("fetching review of user[%d] on course[%d]: %w", userID, courseID, err)
	}
	return r, nil
}

func (p *Postgres) GetUserReviews(ctx context.Context, userID int) ([]review.Review, error) {
	reviews, err := review.ListByUser(ctx, p.db, userID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews of user[%d]: %w", userID, err)
	}
	return reviews, nil
}

// CreateReview inserts the review and refreshes the course rating in the
// same transaction. The course row lock serializes concurrent reviews.
func (p *Postgres) CreateReview(ctx context.Context, nr review.ReviewNew) (review.Review, error) {
	var r review.Review
	err := database.Transaction(ctx, p.db, func(tx sqlx.ExtContext) error {
		if _, err := course.FetchForUpdate(ctx, tx, nr.CourseID); err != nil {
			return err
		}

		var err error
		if r, err = review.Create(ctx, tx, review.New(nr, p.now.stamp())); err != nil {
			return err
		}

		if err := course.RecomputeRating(ctx, tx, nr.CourseID); err != nil {
			return fmt.Errorf("recomputing rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return review.Review{}, fmt.Errorf("creating review of user[%d] on course[%d]: %w", nr.UserID, nr.CourseID, err)
	}
	return r, nil
}

func (p *Postgres) GetTestimonials(ctx context.Context) ([]review.Testimonial, error) {
	ts, err := review.ListTestimonials(ctx, p.db, review.TestimonialLimit)
	if err != nil {
		return nil, fmt.Errorf("listing testimonials: %w", err)
	}
	return ts, nil
}

// =============================================================================
// Enrollments

func (p *Postgres) GetUserEnrollments(ctx context.Context, userID int) ([]enrollment.WithCourse, error) {
	enrollments, err := enrollment.ListByUser(ctx, p.db, userID)
	if err != nil {
		return nil, fmt.Errorf("listing enrollments of user[%d]: %w", userID, err)
	}

	ids := make([]int, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.CourseID)
	}
	courses, err := course.FetchByIDs(ctx, p.db, ids)
	if err != nil {
		return nil, fmt.Errorf("fetching enrolled courses of user[%d]: %w", userID, err)
	}

	out := make([]enrollment.WithCourse, 0, len(enrollments))
	for _, e := range enrollments {
		if c, ok := courses[e.CourseID]; ok {
			out = append(out, enrollment.WithCourse{Enrollment: e, Course: c})
		}
	}
	return out, nil
}

func (p *Postgres) GetUserCourseEnrollment(ctx context.Context, userID, courseID int) (enrollment.Enrollment, error) {
	e, err := enrollment.Fetch(ctx, p.db, userID, courseID)
	if err != nil {
		return enrollment.Enrollment{}, fmt.Errorf("fetching enrollment of user[%d] in course[%d]: %w", userID, courseID, err)
	}
	return e, nil
}

func (p *Postgres) CreateEnrollment(ctx context.Context, ne enrollment.EnrollmentNew) (enrollment.Enrollment, error) {
	var e enrollment.Enrollment
	err := database.Transaction(ctx, p.db, func(tx sqlx.ExtContext) error {
		if _, err := course.FetchForUpdate(ctx, tx, ne.CourseID); err != nil {
			return err
		}
		var err error
		e, err = p.enroll(ctx, tx, ne)
		return err
	})
	if err != nil {
		return enrollment.Enrollment{}, fmt.Errorf("enrolling user[%d] in course[%d]: %w", ne.UserID, ne.CourseID, err)
	}
	return e, nil
}

func (p *Postgres) enroll(ctx context.Context, tx sqlx.ExtContext, ne enrollment.EnrollmentNew) (enrollment.Enrollment, error) {
	e, err := enrollment.Create(ctx, tx, enrollment.New(ne, p.now.stamp()))
	if err != nil {
		return enrollment.Enrollment{}, err
	}
	if err := course.IncrementStudents(ctx, tx, ne.CourseID); err != nil {
		return enrollment.Enrollment{}, fmt.Errorf("incrementing students: %w", err)
	}
	return e, nil
}

func (p *Postgres) UpdateEnrollmentProgress(ctx context.Context, userID, courseID, pct int) (enrollment.Enrollment, error) {
	e, err := enrollment.Fetch(ctx, p.db, userID, courseID)
	if err != nil {
		return enrollment.Enrollment{}, fmt.Errorf("fetching enrollment of user[%d] in course[%d]: %w", userID, courseID, err)
	}

	e.SetProgress(pct)
	if err := enrollment.UpdateProgress(ctx, p.db, e); err != nil {
		return enrollment.Enrollment{}, fmt.Errorf("updating progress of enrollment[%d]: %w", e.ID, err)
	}
	return e, nil
}

// Enroll purchases a course: it records a completed order for the current
// price and the matching enrollment in one transaction.
func (p *Postgres) Enroll(ctx context.Context, userID, courseID int) (enrollment.Enrollment, order.Order, error) {
	var (
		e   enrollment.Enrollment
		ord order.Order
	)

	err := database.Transaction(ctx, p.db, func(tx sqlx.ExtContext) error {
		c, err := course.FetchForUpdate(ctx, tx, courseID)
		if err != nil {
			return err
		}
		if !c.Listed() {
			return database.ErrNotPurchasable
		}

		_, err = enrollment.Fetch(ctx, tx, userID, courseID)
		switch {
		case err == nil:
			return database.ErrDuplicateEnrollment
		case !errors.Is(err, database.ErrNotFound):
			return fmt.Errorf("checking enrollment: %w", err)
		}

		no := order.OrderNew{UserID: userID, CourseID: courseID, Amount: c.Price, Status: order.Completed}
		if ord, err = order.Create(ctx, tx, order.New(no, validate.GenerateID(), p.now.stamp())); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}

		ne := enrollment.EnrollmentNew{UserID: userID, CourseID: courseID, Price: c.Price}
		e, err = p.enroll(ctx, tx, ne)
		return err
	})
	if err != nil {
		return enrollment.Enrollment{}, order.Order{}, fmt.Errorf("enrolling user[%d] in course[%d]: %w", userID, courseID, err)
	}
	return e, ord, nil
}

// =============================================================================
// Progress

func (p *Postgres) GetUserRecentProgress(ctx context.Context, userID int) ([]progress.Recent, error) {
	rows, err := progress.ListRecent(ctx, p.db, userID, progress.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("listing progress of user[%d]: %w", userID, err)
	}

	lessonIDs := make([]int, 0, len(rows))
	courseIDs := make([]int, 0, len(rows))
	for _, r := range rows {
		lessonIDs = append(lessonIDs, r.LessonID)
		courseIDs = append(courseIDs, r.CourseID)
	}

	lessons, err := course.FetchLessonsByIDs(ctx, p.db, lessonIDs)
	if err != nil {
		return nil, fmt.Errorf("fetching watched lessons: %w", err)
	}
	courses, err := course.FetchByIDs(ctx, p.db, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("fetching watched courses: %w", err)
	}

	out := make([]progress.Recent, 0, len(rows))
	for _, r := range rows {
		l, ok := lessons[r.LessonID]
		if !ok {
			continue
		}
		c, ok := courses[l.CourseID]
		if !ok {
			continue
		}
		out = append(out, progress.Recent{Progress: r, Lesson: l, Course: c})
	}
	return out, nil
}

func (p *Postgres) SaveProgress(ctx context.Context, np progress.ProgressNew) (progress.Progress, error) {
	l, err := course.FetchLesson(ctx, p.db, np.LessonID)
	if err != nil {
		return progress.Progress{}, fmt.Errorf("fetching lesson[%d]: %w", np.LessonID, err)
	}

	row, err := progress.Upsert(ctx, p.db, progress.New(np, l, p.now.stamp()))
	if err != nil {
		return progress.Progress{}, fmt.Errorf("saving progress of user[%d] on lesson[%d]: %w", np.UserID, np.LessonID, err)
	}
	return row, nil
}

// =============================================================================
// Orders

func (p *Postgres) GetUserOrders(ctx context.Context, userID int) ([]order.WithCourse, error) {
	orders, err := order.ListByUser(ctx, p.db, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders of user[%d]: %w", userID, err)
	}

	ids := make([]int, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.CourseID)
	}
	courses, err := course.FetchByIDs(ctx, p.db, ids)
	if err != nil {
		return nil, fmt.Errorf("fetching ordered courses of user[%d]: %w", userID, err)
	}

	out := make([]order.WithCourse, 0, len(orders))
	for _, o := range orders {
		if c, ok := courses[o.CourseID]; ok {
			out = append(out, order.WithCourse{Order: o, Course: c})
		}
	}
	return out, nil
}

func (p *Postgres) CreateOrder(ctx context.Context, no order.OrderNew) (order.Order, error) {
	o, err := order.Create(ctx, p.db, order.New(no, validate.GenerateID(), p.now.stamp()))
	if err != nil {
		return order.Order{}, fmt.Errorf("creating order of user[%d] for course[%d]: %w", no.UserID, no.CourseID, err)
	}
	return o, nil
}

func (p *Postgres) GetRecentOrders(ctx context.Context) ([]order.Detail, error) {
	orders, err := order.ListRecent(ctx, p.db, order.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("listing recent orders: %w", err)
	}

	userIDs := make([]int, 0, len(orders))
	courseIDs := make([]int, 0, len(orders))
	for _, o := range orders {
		userIDs = append(userIDs, o.UserID)
		courseIDs = append(courseIDs, o.CourseID)
	}

	users, err := user.FetchByIDs(ctx, p.db, userIDs)
	if err != nil {
		return nil, fmt.Errorf("fetching buyers: %w", err)
	}
	courses, err := course.FetchByIDs(ctx, p.db, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("fetching ordered courses: %w", err)
	}

	out := make([]order.Detail, 0, len(orders))
	for _, o := range orders {
		u, ok := users[o.UserID]
		if !ok {
			continue
		}
		c, ok := courses[o.CourseID]
		if !ok {
			continue
		}
		out = append(out, order.Detail{Order: o, User: u, Course: c})
	}
	return out, nil
}

// =============================================================================
// Admin statistics

func (p *Postgres) GetAdminStats(ctx context.Context) (stats.Stats, error) {
	period := stats.PeriodAt(p.now())

	users, err := stats.Count(ctx, p.db, "users", period)
	if err != nil {
		return stats.Stats{}, err
	}
	courses, err := stats.Count(ctx, p.db, "courses", period)
	if err != nil {
		return stats.Stats{}, err
	}
	orders, err := stats.Count(ctx, p.db, "orders", period)
	if err != nil {
		return stats.Stats{}, err
	}
	revenue, err := stats.Revenue(ctx, p.db, period)
	if err != nil {
		return stats.Stats{}, err
	}

	return stats.Compose(users, courses, orders, revenue), nil
}

func (p *Postgres) GetRevenueByMonth(ctx context.Context, year int) ([]stats.MonthlyRevenue, error) {
	return stats.RevenueByMonth(ctx, p.db, year)
}
