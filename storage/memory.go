package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

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
)

// Memory keeps every record in process memory. It is safe for concurrent
// use; each operation holds the lock for its whole duration, so composite
// writes such as Enroll are atomic. Records are returned by value.
type Memory struct {
	mu  sync.RWMutex
	now Clock

	users       map[int]user.User
	categories  map[int]category.Category
	courses     map[int]course.Course
	sections    map[int]course.Section
	lessons     map[int]course.Lesson
	enrollments map[int]enrollment.Enrollment
	reviews     map[int]review.Review
	progress    map[int]progress.Progress
	orders      map[int]order.Order

	seq map[string]int
}

func NewMemory(opts ...Option) *Memory {
	o := buildOptions(opts)
	return &Memory{
		now:         o.clock,
		users:       make(map[int]user.User),
		categories:  make(map[int]category.Category),
		courses:     make(map[int]course.Course),
		sections:    make(map[int]course.Section),
		lessons:     make(map[int]course.Lesson),
		enrollments: make(map[int]enrollment.Enrollment),
		reviews:     make(map[int]review.Review),
		progress:    make(map[int]progress.Progress),
		orders:      make(map[int]order.Order),
		seq:         make(map[string]int),
	}
}

func (m *Memory) nextID(table string) int {
	m.seq[table]++
	return m.seq[table]
}

func notFound(what string, id int) error {
	return fmt.Errorf("%s[%d]: %w", what, id, database.ErrNotFound)
}

// contains reports whether any of fields holds term, ignoring case.
func contains(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// newer orders by time descending, then id descending.
func newer(ti time.Time, idi int, tj time.Time, idj int) bool {
	if !ti.Equal(tj) {
		return ti.After(tj)
	}
	return idi > idj
}

// window returns the [start, end) bounds of a page over n items.
func window(page, limit, n int) (int, int) {
	_, limit, offset := database.Paginate(page, limit)
	if offset > n {
		offset = n
	}
	end := n
	if limit < n-offset {
		end = offset + limit
	}
	return offset, end
}

// =============================================================================
// Users

func (m *Memory) GetUser(ctx context.Context, id int) (user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return user.User{}, notFound("user", id)
	}
	return u, nil
}

func (m *Memory) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return user.User{}, fmt.Errorf("user[%s]: %w", username, database.ErrNotFound)
}

func (m *Memory) CreateUser(ctx context.Context, nu user.UserNew) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == nu.Username {
			return user.User{}, fmt.Errorf("creating user[%s]: %w", nu.Username, database.ErrDuplicateUsername)
		}
	}
	for _, u := range m.users {
		if u.Email == nu.Email {
			return user.User{}, fmt.Errorf("creating user[%s]: %w", nu.Username, database.ErrDuplicateEmail)
		}
	}

	u := user.New(nu, m.now.stamp())
	u.ID = m.nextID("users")
	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) UpdateUserStatus(ctx context.Context, id int, active bool) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return user.User{}, notFound("user", id)
	}
	u.IsActive = active
	m.users[id] = u
	return u, nil
}

func (m *Memory) GetUsers(ctx context.Context, f user.Filter) (user.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]user.User, 0, len(m.users))
	for _, u := range m.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.IsActive != nil && u.IsActive != *f.IsActive {
			continue
		}
		if !contains(f.Search, u.Username, u.Email, u.FullName) {
			continue
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool {
		return newer(matched[i].CreatedAt, matched[i].ID, matched[j].CreatedAt, matched[j].ID)
	})

	start, end := window(f.Page, f.Limit, len(matched))
	return user.Page{Users: matched[start:end], Total: len(matched)}, nil
}

// =============================================================================
// Categories

func (m *Memory) GetCategories(ctx context.Context) ([]category.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cats := make([]category.Category, 0, len(m.categories))
	for _, c := range m.categories {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Name != cats[j].Name {
			return cats[i].Name < cats[j].Name
		}
		return cats[i].ID < cats[j].ID
	})
	return cats, nil
}

func (m *Memory) GetCategory(ctx context.Context, id int) (category.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.categories[id]
	if !ok {
		return category.Category{}, notFound("category", id)
	}
	return c, nil
}

func (m *Memory) GetCategoryBySlug(ctx context.Context, slug string) (category.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return category.Category{}, fmt.Errorf("category[%s]: %w", slug, database.ErrNotFound)
}

func (m *Memory) CreateCategory(ctx context.Context, nc category.CategoryNew) (category.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.categories {
		if c.Slug == nc.Slug {
			return category.Category{}, fmt.Errorf("creating category[%s]: %w", nc.Slug, database.ErrDuplicateSlug)
		}
	}

	c := category.New(nc)
	c.ID = m.nextID("categories")
	m.categories[c.ID] = c
	return c, nil
}

// =============================================================================
// Courses

// listed returns the public courses, newest first, keeping those accepted by
// keep and at most limit of them when limit is positive.
func (m *Memory) listed(keep func(course.Course) bool, limit int) []course.Course {
	courses := make([]course.Course, 0, len(m.courses))
	for _, c := range m.courses {
		if c.Listed() && keep(c) {
			courses = append(courses, c)
		}
	}
	sortCourses(courses)
	if limit > 0 && len(courses) > limit {
		courses = courses[:limit]
	}
	return courses
}

func sortCourses(courses []course.Course) {
	sort.Slice(courses, func(i, j int) bool {
		return newer(courses[i].CreatedAt, courses[i].ID, courses[j].CreatedAt, courses[j].ID)
	})
}

func anyCourse(course.Course) bool { return true }

func (m *Memory) GetAllCourses(ctx context.Context) ([]course.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.listed(anyCourse, 0), nil
}

func (m *Memory) GetFeaturedCourses(ctx context.Context) ([]course.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	featured := func(c course.Course) bool { return c.IsFeatured }
	return m.listed(featured, course.FeaturedLimit), nil
}

func (m *Memory) GetLatestCourses(ctx context.Context) ([]course.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.listed(anyCourse, course.LatestLimit), nil
}

func (m *Memory) GetCourse(ctx context.Context, id int) (course.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.courses[id]
	if !ok {
		return course.Course{}, notFound("course", id)
	}
	return c, nil
}

func (m *Memory) GetCourseBySlug(ctx context.Context, slug string) (course.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.courses {
		if c.Slug == slug {
			return c, nil
		}
	}
	return course.Course{}, fmt.Errorf("course[%s]: %w", slug, database.ErrNotFound)
}

func (m *Memory) slugTaken(slug string, except int) bool {
	for _, c := range m.courses {
		if c.Slug == slug && c.ID != except {
			return true
		}
	}
	return false
}

func (m *Memory) CreateCourse(ctx context.Context, nc course.CourseNew) (course.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.categories[nc.CategoryID]; !ok {
		return course.Course{}, notFound("category", nc.CategoryID)
	}
	if _, ok := m.users[nc.InstructorID]; !ok {
		return course.Course{}, notFound("user", nc.InstructorID)
	}
	if m.slugTaken(nc.Slug, 0) {
		return course.Course{}, fmt.Errorf("creating course[%s]: %w", nc.Slug, database.ErrDuplicateSlug)
	}

	c := course.New(nc, m.now.stamp())
	c.ID = m.nextID("courses")
	m.courses[c.ID] = c
	return c, nil
}

func (m *Memory) UpdateCourse(ctx context.Context, id int, up course.CourseUp) (course.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.courses[id]
	if !ok {
		return course.Course{}, notFound("course", id)
	}
	if up.Slug != nil && m.slugTaken(*up.Slug, id) {
		return course.Course{}, fmt.Errorf("updating course[%d]: %w", id, database.ErrDuplicateSlug)
	}
	if up.CategoryID != nil {
		if _, ok := m.categories[*up.CategoryID]; !ok {
			return course.Course{}, notFound("category", *up.CategoryID)
		}
	}

	up.Apply(&c, m.now.stamp())
	m.courses[id] = c
	return c, nil
}

func (m *Memory) DeleteCourse(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.courses[id]; !ok {
		return notFound("course", id)
	}

	for k, p := range m.progress {
		if p.CourseID == id {
			delete(m.progress, k)
		}
	}
	for k, l := range m.lessons {
		if l.CourseID == id {
			delete(m.lessons, k)
		}
	}
	for k, s := range m.sections {
		if s.CourseID == id {
			delete(m.sections, k)
		}
	}
	for k, e := range m.enrollments {
		if e.CourseID == id {
			delete(m.enrollments, k)
		}
	}
	for k, r := range m.reviews {
		if r.CourseID == id {
			delete(m.reviews, k)
		}
	}
	delete(m.courses, id)
	return nil
}

func (m *Memory) IncrementCourseStudents(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.courses[id]
	if !ok {
		return notFound("course", id)
	}
	c.TotalStudents++
	m.courses[id] = c
	return nil
}

func (m *Memory) GetAdminCourses(ctx context.Context, f course.Filter) (course.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]course.Course, 0, len(m.courses))
	for _, c := range m.courses {
		if f.IsApproved != nil && c.IsApproved != *f.IsApproved {
			continue
		}
		if f.IsPublished != nil && c.IsPublished != *f.IsPublished {
			continue
		}
		if !contains(f.Search, c.Title, c.Description) {
			continue
		}
		matched = append(matched, c)
	}
	sortCourses(matched)

	start, end := window(f.Page, f.Limit, len(matched))
	return course.Page{Courses: matched[start:end], Total: len(matched)}, nil
}

// =============================================================================
// Curriculum

func (m *Memory) GetCourseSections(ctx context.Context, courseID int) ([]course.SectionWithLessons, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sections := []course.Section{}
	for _, s := range m.sections {
		if s.CourseID == courseID {
			sections = append(sections, s)
		}
	}
	sort.Slice(sections, func(i, j int) bool {
		if sections[i].Order != sections[j].Order {
			return sections[i].Order < sections[j].Order
		}
		return sections[i].ID < sections[j].ID
	})

	lessons := []course.Lesson{}
	for _, l := range m.lessons {
		if l.CourseID == courseID {
			lessons = append(lessons, l)
		}
	}
	sort.Slice(lessons, func(i, j int) bool {
		if lessons[i].Order != lessons[j].Order {
			return lessons[i].Order < lessons[j].Order
		}
		return lessons[i].ID < lessons[j].ID
	})

	return course.Curriculum(sections, lessons), nil
}

func (m *Memory) CreateSection(ctx context.Context, ns course.SectionNew) (course.Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.courses[ns.CourseID]; !ok {
		return course.Section{}, notFound("course", ns.CourseID)
	}

	s := course.NewSection(ns)
	s.ID = m.nextID("sections")
	m.sections[s.ID] = s
	return s, nil
}

func (m *Memory) CreateLesson(ctx context.Context, nl course.LessonNew) (course.Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sections[nl.SectionID]
	if !ok {
		return course.Lesson{}, notFound("section", nl.SectionID)
	}

	l := course.NewLesson(nl, s)
	l.ID = m.nextID("lessons")
	m.lessons[l.ID] = l
	return l, nil
}

func (m *Memory) GetLesson(ctx context.Context, id int) (course.Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.lessons[id]
	if !ok {
		return course.Lesson{}, notFound("lesson", id)
	}
	return l, nil
}

// =============================================================================
// Reviews

func (m *Memory) reviewsWhere(keep func(review.Review) bool) []review.Review {
	reviews := []review.Review{}
	for _, r := range m.reviews {
		if keep(r) {
			reviews = append(reviews, r)
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		return newer(reviews[i].CreatedAt, reviews[i].ID, reviews[j].CreatedAt, reviews[j].ID)
	})
	return reviews
}

func (m *Memory) GetCourseReviews(ctx context.Context, courseID int) ([]review.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.reviewsWhere(func(r review.Review) bool { return r.CourseID == courseID }), nil
}

func (m *Memory) GetUserCourseReview(ctx context.Context, userID, courseID int) (review.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.reviews {
		if r.UserID == userID && r.CourseID == courseID {
			return r, nil
		}
	}
	return review.Review{}, fmt.Errorf("review of user[%d] on course[%d]: %w", userID, courseID, database.ErrNotFound)
}

func (m *Memory) GetUserReviews(ctx context.Context, userID int) ([]review.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.reviewsWhere(func(r review.Review) bool { return r.UserID == userID }), nil
}

func (m *Memory) CreateReview(ctx context.Context, nr review.ReviewNew) (review.Review, error) {
	if nr.Rating < review.MinRating || nr.Rating > review.MaxRating {
		return review.Review{}, fmt.Errorf("rating %d: %w", nr.Rating, database.ErrOutOfRange)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.courses[nr.CourseID]
	if !ok {
		return review.Review{}, notFound("course", nr.CourseID)
	}
	if _, ok := m.users[nr.UserID]; !ok {
		return review.Review{}, notFound("user", nr.UserID)
	}
	for _, r := range m.reviews {
		if r.UserID == nr.UserID && r.CourseID == nr.CourseID {
			return review.Review{}, fmt.Errorf("creating review of user[%d] on course[%d]: %w", nr.UserID, nr.CourseID, database.ErrDuplicateReview)
		}
	}

	r := review.New(nr, m.now.stamp())
	r.ID = m.nextID("reviews")
	m.reviews[r.ID] = r

	c.AverageRating, c.TotalRatings = review.Aggregate(m.reviewsWhere(func(r review.Review) bool { return r.CourseID == nr.CourseID }))
	m.courses[c.ID] = c
	return r, nil
}

func (m *Memory) GetTestimonials(ctx context.Context) ([]review.Testimonial, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []review.Testimonial{}
	for _, r := range m.reviewsWhere(review.Review.Qualifies) {
		u, ok := m.users[r.UserID]
		if !ok {
			continue
		}
		c, ok := m.courses[r.CourseID]
		if !ok {
			continue
		}
		out = append(out, review.Testimonial{
			ID:          r.ID,
			Content:     *r.Content,
			Rating:      r.Rating,
			CreatedAt:   r.CreatedAt,
			Name:        u.FullName,
			Avatar:      u.Avatar,
			Role:        u.Role,
			CourseTitle: c.Title,
		})
		if len(out) == review.TestimonialLimit {
			break
		}
	}
	return out, nil
}

// =============================================================================
// Enrollments

func (m *Memory) GetUserEnrollments(ctx context.Context, userID int) ([]enrollment.WithCourse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	enrollments := []enrollment.Enrollment{}
	for _, e := range m.enrollments {
		if e.UserID == userID {
			enrollments = append(enrollments, e)
		}
	}
	sort.Slice(enrollments, func(i, j int) bool {
		return newer(enrollments[i].EnrolledAt, enrollments[i].ID, enrollments[j].EnrolledAt, enrollments[j].ID)
	})

	out := make([]enrollment.WithCourse, 0, len(enrollments))
	for _, e := range enrollments {
		if c, ok := m.courses[e.CourseID]; ok {
			out = append(out, enrollment.WithCourse{Enrollment: e, Course: c})
		}
	}
	return out, nil
}

func (m *Memory) findEnrollment(userID, courseID int) (enrollment.Enrollment, bool) {
	for _, e := range m.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return e, true
		}
	}
	return enrollment.Enrollment{}, false
}

func (m *Memory) GetUserCourseEnrollment(ctx context.Context, userID, courseID int) (enrollment.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.findEnrollment(userID, courseID)
	if !ok {
		return enrollment.Enrollment{}, fmt.Errorf("enrollment of user[%d] in course[%d]: %w", userID, courseID, database.ErrNotFound)
	}
	return e, nil
}

// enroll inserts the enrollment and bumps the course's student count. The
// caller holds the write lock.
func (m *Memory) enroll(ne enrollment.EnrollmentNew) (enrollment.Enrollment, error) {
	c, ok := m.courses[ne.CourseID]
	if !ok {
		return enrollment.Enrollment{}, notFound("course", ne.CourseID)
	}
	if _, ok := m.users[ne.UserID]; !ok {
		return enrollment.Enrollment{}, notFound("user", ne.UserID)
	}
	if _, ok := m.findEnrollment(ne.UserID, ne.CourseID); ok {
		return enrollment.Enrollment{}, fmt.Errorf("enrolling user[%d] in course[%d]: %w", ne.UserID, ne.CourseID, database.ErrDuplicateEnrollment)
	}

	e := enrollment.New(ne, m.now.stamp())
	e.ID = m.nextID("enrollments")
	m.enrollments[e.ID] = e

	c.TotalStudents++
	m.courses[c.ID] = c
	return e, nil
}

func (m *Memory) CreateEnrollment(ctx context.Context, ne enrollment.EnrollmentNew) (enrollment.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.enroll(ne)
}

func (m *Memory) UpdateEnrollmentProgress(ctx context.Context, userID, courseID, pct int) (enrollment.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.findEnrollment(userID, courseID)
	if !ok {
		return enrollment.Enrollment{}, fmt.Errorf("enrollment of user[%d] in course[%d]: %w", userID, courseID, database.ErrNotFound)
	}
	e.SetProgress(pct)
	m.enrollments[e.ID] = e
	return e, nil
}

func (m *Memory) Enroll(ctx context.Context, userID, courseID int) (enrollment.Enrollment, order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.courses[courseID]
	if !ok {
		return enrollment.Enrollment{}, order.Order{}, notFound("course", courseID)
	}
	if !c.Listed() {
		return enrollment.Enrollment{}, order.Order{}, fmt.Errorf("enrolling in course[%d]: %w", courseID, database.ErrNotPurchasable)
	}
	if _, ok := m.users[userID]; !ok {
		return enrollment.Enrollment{}, order.Order{}, notFound("user", userID)
	}
	if _, ok := m.findEnrollment(userID, courseID); ok {
		return enrollment.Enrollment{}, order.Order{}, fmt.Errorf("enrolling user[%d] in course[%d]: %w", userID, courseID, database.ErrDuplicateEnrollment)
	}

	no := order.OrderNew{UserID: userID, CourseID: courseID, Amount: c.Price, Status: order.Completed}
	ord := m.insertOrder(no)

	e, err := m.enroll(enrollment.EnrollmentNew{UserID: userID, CourseID: courseID, Price: c.Price})
	if err != nil {
		delete(m.orders, ord.ID)
		return enrollment.Enrollment{}, order.Order{}, err
	}
	return e, ord, nil
}

// =============================================================================
// Progress

func (m *Memory) GetUserRecentProgress(ctx context.Context, userID int) ([]progress.Recent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := []progress.Progress{}
	for _, p := range m.progress {
		if p.UserID == userID && p.LastWatched != nil {
			rows = append(rows, p)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return newer(*rows[i].LastWatched, rows[i].ID, *rows[j].LastWatched, rows[j].ID)
	})

	out := []progress.Recent{}
	for _, p := range rows {
		l, ok := m.lessons[p.LessonID]
		if !ok {
			continue
		}
		c, ok := m.courses[l.CourseID]
		if !ok {
			continue
		}
		out = append(out, progress.Recent{Progress: p, Lesson: l, Course: c})
		if len(out) == progress.RecentLimit {
			break
		}
	}
	return out, nil
}

func (m *Memory) SaveProgress(ctx context.Context, np progress.ProgressNew) (progress.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.lessons[np.LessonID]
	if !ok {
		return progress.Progress{}, notFound("lesson", np.LessonID)
	}
	if _, ok := m.users[np.UserID]; !ok {
		return progress.Progress{}, notFound("user", np.UserID)
	}

	now := m.now.stamp()
	for id, p := range m.progress {
		if p.UserID == np.UserID && p.LessonID == np.LessonID {
			p = progress.Merge(p, np, now)
			m.progress[id] = p
			return p, nil
		}
	}

	p := progress.New(np, l, now)
	p.ID = m.nextID("progress")
	m.progress[p.ID] = p
	return p, nil
}

// =============================================================================
// Orders

func (m *Memory) insertOrder(no order.OrderNew) order.Order {
	o := order.New(no, validate.GenerateID(), m.now.stamp())
	o.ID = m.nextID("orders")
	m.orders[o.ID] = o
	return o
}

func (m *Memory) ordersWhere(keep func(order.Order) bool) []order.Order {
	orders := []order.Order{}
	for _, o := range m.orders {
		if keep(o) {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return newer(orders[i].CreatedAt, orders[i].ID, orders[j].CreatedAt, orders[j].ID)
	})
	return orders
}

func (m *Memory) GetUserOrders(ctx context.Context, userID int) ([]order.WithCourse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []order.WithCourse{}
	for _, o := range m.ordersWhere(func(o order.Order) bool { return o.UserID == userID }) {
		if c, ok := m.courses[o.CourseID]; ok {
			out = append(out, order.WithCourse{Order: o, Course: c})
		}
	}
	return out, nil
}

func (m *Memory) CreateOrder(ctx context.Context, no order.OrderNew) (order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[no.UserID]; !ok {
		return order.Order{}, notFound("user", no.UserID)
	}
	return m.insertOrder(no), nil
}

func (m *Memory) GetRecentOrders(ctx context.Context) ([]order.Detail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	orders := m.ordersWhere(func(order.Order) bool { return true })
	if len(orders) > order.RecentLimit {
		orders = orders[:order.RecentLimit]
	}

	out := make([]order.Detail, 0, len(orders))
	for _, o := range orders {
		u, ok := m.users[o.UserID]
		if !ok {
			continue
		}
		c, ok := m.courses[o.CourseID]
		if !ok {
			continue
		}
		out = append(out, order.Detail{Order: o, User: u, Course: c})
	}
	return out, nil
}

// =============================================================================
// Admin statistics

func (m *Memory) GetAdminStats(ctx context.Context) (stats.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	period := stats.PeriodAt(m.now())

	var users, courses, orders, revenue stats.Counter
	for _, u := range m.users {
		users.Add(period, u.CreatedAt, 1)
	}
	for _, c := range m.courses {
		courses.Add(period, c.CreatedAt, 1)
	}
	for _, o := range m.orders {
		orders.Add(period, o.CreatedAt, 1)
		if o.Status == order.Completed {
			revenue.Add(period, o.CreatedAt, o.Amount)
		}
	}

	return stats.Compose(users, courses, orders, revenue), nil
}

func (m *Memory) GetRevenueByMonth(ctx context.Context, year int) ([]stats.MonthlyRevenue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start, end := stats.YearBounds(year)
	sums := make(map[int]int)
	for _, o := range m.orders {
		if o.Status != order.Completed || o.CreatedAt.Before(start) || !o.CreatedAt.Before(end) {
			continue
		}
		sums[int(o.CreatedAt.UTC().Month())] += o.Amount
	}
	return stats.Year(sums), nil
}
