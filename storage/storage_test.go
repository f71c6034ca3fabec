package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/e-learning/core/category"
	"github.com/irsalhamdi/e-learning/core/course"
	"github.com/irsalhamdi/e-learning/core/enrollment"
	"github.com/irsalhamdi/e-learning/core/order"
	"github.com/irsalhamdi/e-learning/core/progress"
	"github.com/irsalhamdi/e-learning/core/review"
	"github.com/irsalhamdi/e-learning/core/stats"
	"github.com/irsalhamdi/e-learning/core/user"
	"github.com/irsalhamdi/e-learning/database"
)

// testClock advances by one second on every reading, so records created in
// a row get distinct, increasing timestamps.
type testClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func newTestClock(start time.Time) *testClock {
	return &testClock{t: start, step: time.Second}
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.t
	c.t = c.t.Add(c.step)
	return t
}

func (c *testClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type newStoreFunc func(t *testing.T, clock Clock) Storage

type fixture struct {
	t   *testing.T
	ctx context.Context
	s   Storage
	clk *testClock
	seq int
}

func newFixture(t *testing.T, newStore newStoreFunc) *fixture {
	clk := newTestClock(time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC))
	return &fixture{
		t:   t,
		ctx: context.Background(),
		s:   newStore(t, clk.now),
		clk: clk,
	}
}

func (f *fixture) user(username string, role user.Role) user.User {
	f.t.Helper()
	u, err := f.s.CreateUser(f.ctx, user.UserNew{
		Username: username,
		Password: "hashed",
		Email:    username + "@example.com",
		FullName: "Full " + username,
		Role:     role,
	})
	if err != nil {
		f.t.Fatalf("creating user[%s]: %v", username, err)
	}
	return u
}

func (f *fixture) category() category.Category {
	f.t.Helper()
	f.seq++
	c, err := f.s.CreateCategory(f.ctx, category.CategoryNew{
		Name: fmt.Sprintf("Category %d", f.seq),
		Slug: fmt.Sprintf("category-%d", f.seq),
		Icon: "code",
	})
	if err != nil {
		f.t.Fatalf("creating category: %v", err)
	}
	return c
}

// course creates a published and approved course, adjusted by edit.
func (f *fixture) course(cat category.Category, instructor user.User, edit func(*course.CourseNew)) course.Course {
	f.t.Helper()
	f.seq++
	nc := course.CourseNew{
		Title:        fmt.Sprintf("Course %d", f.seq),
		Slug:         fmt.Sprintf("course-%d", f.seq),
		Description:  "A course",
		Price:        100 * f.seq,
		Thumbnail:    "https://images.example.com/c.jpg",
		Level:        course.Beginner,
		CategoryID:   cat.ID,
		InstructorID: instructor.ID,
		IsPublished:  true,
		IsApproved:   true,
	}
	if edit != nil {
		edit(&nc)
	}
	c, err := f.s.CreateCourse(f.ctx, nc)
	if err != nil {
		f.t.Fatalf("creating course[%s]: %v", nc.Slug, err)
	}
	return c
}

func (f *fixture) section(c course.Course, order int) course.Section {
	f.t.Helper()
	s, err := f.s.CreateSection(f.ctx, course.SectionNew{Title: fmt.Sprintf("Section %d", order), CourseID: c.ID, Order: order})
	if err != nil {
		f.t.Fatalf("creating section: %v", err)
	}
	return s
}

func (f *fixture) lesson(s course.Section, order int) course.Lesson {
	f.t.Helper()
	l, err := f.s.CreateLesson(f.ctx, course.LessonNew{Title: fmt.Sprintf("Lesson %d", order), SectionID: s.ID, Order: order, Duration: 600})
	if err != nil {
		f.t.Fatalf("creating lesson: %v", err)
	}
	return l
}

func (f *fixture) basics() (user.User, category.Category) {
	f.t.Helper()
	return f.user("instructor", user.RoleInstructor), f.category()
}

func expectErr(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func courseIDs(courses []course.Course) []int {
	ids := make([]int, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	return ids
}

func testStorage(t *testing.T, newStore newStoreFunc) {
	tests := []struct {
		name string
		fn   func(t *testing.T, f *fixture)
	}{
		{"users", testUsers},
		{"duplicate user", testDuplicateUser},
		{"user status", testUserStatus},
		{"users pagination", testUsersPagination},
		{"categories", testCategories},
		{"course listings", testCourseListings},
		{"course update", testCourseUpdate},
		{"admin courses", testAdminCourses},
		{"curriculum", testCurriculum},
		{"review rating", testReviewRating},
		{"testimonials", testTestimonials},
		{"create enrollment", testCreateEnrollment},
		{"enroll", testEnroll},
		{"delete course", testDeleteCourse},
		{"progress", testProgress},
		{"orders", testOrders},
		{"admin stats", testAdminStats},
		{"revenue by month", testRevenueByMonth},
		{"seed", testSeed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newFixture(t, newStore))
		})
	}
}

func testUsers(t *testing.T, f *fixture) {
	u := f.user("alice", "")

	if u.ID == 0 {
		t.Fatal("expected an id")
	}
	if u.Role != user.RoleStudent || !u.IsActive {
		t.Fatalf("expected an active student, got role %q active %v", u.Role, u.IsActive)
	}

	got, err := f.s.GetUser(f.ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(u, got); diff != "" {
		t.Errorf("GetUser mismatch (-want +got):\n%s", diff)
	}

	got, err = f.s.GetUserByUsername(f.ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(u, got); diff != "" {
		t.Errorf("GetUserByUsername mismatch (-want +got):\n%s", diff)
	}

	_, err = f.s.GetUser(f.ctx, u.ID+100)
	expectErr(t, err, database.ErrNotFound)

	_, err = f.s.GetUserByUsername(f.ctx, "bob")
	expectErr(t, err, database.ErrNotFound)
}

func testDuplicateUser(t *testing.T, f *fixture) {
	alice := f.user("alice", user.RoleStudent)

	_, err := f.s.CreateUser(f.ctx, user.UserNew{Username: "alice", Password: "x", Email: "other@example.com", FullName: "Other"})
	expectErr(t, err, database.ErrDuplicateUsername)
	if !database.IsConflict(err) {
		t.Errorf("expected a conflict, got %v", err)
	}

	_, err = f.s.CreateUser(f.ctx, user.UserNew{Username: "alice2", Password: "x", Email: alice.Email, FullName: "Other"})
	expectErr(t, err, database.ErrDuplicateEmail)

	page, err := f.s.GetUsers(f.ctx, user.Filter{Page: 1, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(user.Page{Users: []user.User{alice}, Total: 1}, page); diff != "" {
		t.Errorf("store changed after failed creates (-want +got):\n%s", diff)
	}
}

func testUserStatus(t *testing.T, f *fixture) {
	u := f.user("alice", user.RoleStudent)

	got, err := f.s.UpdateUserStatus(f.ctx, u.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsActive {
		t.Fatal("expected the user to be deactivated")
	}

	got, err = f.s.GetUser(f.ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsActive {
		t.Fatal("deactivation was not stored")
	}

	if got, err = f.s.UpdateUserStatus(f.ctx, u.ID, true); err != nil || !got.IsActive {
		t.Fatalf("reactivating: %v, active %v", err, got.IsActive)
	}

	_, err = f.s.UpdateUserStatus(f.ctx, u.ID+100, true)
	expectErr(t, err, database.ErrNotFound)
}

func testUsersPagination(t *testing.T, f *fixture) {
	users := make([]user.User, 0, 15)
	for i := 1; i <= 15; i++ {
		role := user.RoleStudent
		if i == 3 {
			role = user.RoleAdmin
		}
		users = append(users, f.user(fmt.Sprintf("user%02d", i), role))
	}

	filter := user.Filter{Page: 2, Limit: 10}
	page, err := f.s.GetUsers(f.ctx, filter)
	if err != nil {
		t.Fatal(err)
	}

	want := user.Page{
		Users: []user.User{users[4], users[3], users[2], users[1], users[0]},
		Total: 15,
	}
	if diff := cmp.Diff(want, page); diff != "" {
		t.Errorf("page 2 mismatch (-want +got):\n%s", diff)
	}

	again, err := f.s.GetUsers(f.ctx, filter)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(page, again); diff != "" {
		t.Errorf("pagination not idempotent (-first +second):\n%s", diff)
	}

	page, err = f.s.GetUsers(f.ctx, user.Filter{Page: 0, Limit: 0, Search: "USER1"})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 6 || len(page.Users) != 6 || page.Users[0].Username != "user15" {
		t.Errorf("search: expected user15..user10, got total %d first %q", page.Total, page.Users[0].Username)
	}

	page, err = f.s.GetUsers(f.ctx, user.Filter{Page: 1, Limit: 10, Role: user.RoleAdmin})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(user.Page{Users: []user.User{users[2]}, Total: 1}, page); diff != "" {
		t.Errorf("role filter mismatch (-want +got):\n%s", diff)
	}

	inactive := false
	if _, err := f.s.UpdateUserStatus(f.ctx, users[7].ID, false); err != nil {
		t.Fatal(err)
	}
	page, err = f.s.GetUsers(f.ctx, user.Filter{Page: 1, Limit: 10, IsActive: &inactive})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Users[0].ID != users[7].ID {
		t.Errorf("active filter: expected user08 only, got %+v", page)
	}

	page, err = f.s.GetUsers(f.ctx, user.Filter{Page: 5, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 15 || len(page.Users) != 0 {
		t.Errorf("past the end: expected no users and total 15, got %d and %d", len(page.Users), page.Total)
	}

	for _, filter := range []user.Filter{
		{Page: 2, Limit: math.MaxInt},
		{Page: 1 << 60, Limit: 10},
		{Page: math.MaxInt, Limit: math.MaxInt},
	} {
		page, err = f.s.GetUsers(f.ctx, filter)
		if err != nil {
			t.Fatalf("page %d limit %d: %v", filter.Page, filter.Limit, err)
		}
		if page.Total != 15 || len(page.Users) != 0 {
			t.Errorf("page %d limit %d: expected no users and total 15, got %d and %d",
				filter.Page, filter.Limit, len(page.Users), page.Total)
		}
	}

	page, err = f.s.GetUsers(f.ctx, user.Filter{Page: 1, Limit: math.MaxInt})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 15 || len(page.Users) != 15 {
		t.Errorf("oversized limit: expected all 15 users, got %d of %d", len(page.Users), page.Total)
	}
}

func testCategories(t *testing.T, f *fixture) {
	for _, nc := range []category.CategoryNew{
		{Name: "Web", Slug: "web", Icon: "code"},
		{Name: "Business", Slug: "business", Icon: "briefcase"},
		{Name: "Design", Slug: "design", Icon: "palette"},
	} {
		if _, err := f.s.CreateCategory(f.ctx, nc); err != nil {
			t.Fatal(err)
		}
	}

	cats, err := f.s.GetCategories(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, c := range cats {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"Business", "Design", "Web"}, names); diff != "" {
		t.Errorf("categories not ordered by name (-want +got):\n%s", diff)
	}

	c, err := f.s.GetCategoryBySlug(f.ctx, "design")
	if err != nil {
		t.Fatal(err)
	}
	byID, err := f.s.GetCategory(f.ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(c, byID); diff != "" {
		t.Errorf("GetCategory mismatch (-want +got):\n%s", diff)
	}

	_, err = f.s.CreateCategory(f.ctx, category.CategoryNew{Name: "Web again", Slug: "web", Icon: "code"})
	expectErr(t, err, database.ErrDuplicateSlug)

	_, err = f.s.GetCategoryBySlug(f.ctx, "cooking")
	expectErr(t, err, database.ErrNotFound)
}

func testCourseListings(t *testing.T, f *fixture) {
	instructor, cat := f.basics()

	var featured []course.Course
	for i := 0; i < 10; i++ {
		featured = append(featured, f.course(cat, instructor, func(nc *course.CourseNew) { nc.IsFeatured = true }))
	}
	unapproved := f.course(cat, instructor, func(nc *course.CourseNew) { nc.IsFeatured = true; nc.IsApproved = false })
	f.course(cat, instructor, func(nc *course.CourseNew) { nc.IsPublished = false })
	plain := f.course(cat, instructor, nil)

	got, err := f.s.GetFeaturedCourses(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{featured[9].ID, featured[8].ID, featured[7].ID, featured[6].ID, featured[5].ID, featured[4].ID}
	if diff := cmp.Diff(want, courseIDs(got)); diff != "" {
		t.Errorf("featured mismatch (-want +got):\n%s", diff)
	}

	got, err = f.s.GetLatestCourses(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	want = []int{plain.ID, featured[9].ID, featured[8].ID, featured[7].ID, featured[6].ID, featured[5].ID, featured[4].ID, featured[3].ID}
	if diff := cmp.Diff(want, courseIDs(got)); diff != "" {
		t.Errorf("latest mismatch (-want +got):\n%s", diff)
	}

	got, err = f.s.GetAllCourses(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 11 {
		t.Fatalf("expected the 11 listed courses, got %d", len(got))
	}
	for _, c := range got {
		if !c.Listed() {
			t.Errorf("course[%d] is not listed", c.ID)
		}
	}

	bySlug, err := f.s.GetCourseBySlug(f.ctx, unapproved.Slug)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(unapproved, bySlug); diff != "" {
		t.Errorf("GetCourseBySlug mismatch (-want +got):\n%s", diff)
	}

	_, err = f.s.CreateCourse(f.ctx, course.CourseNew{
		Title: "Copy", Slug: plain.Slug, Description: "d", Thumbnail: "https://x.example.com/t.jpg",
		Level: course.Beginner, CategoryID: cat.ID, InstructorID: instructor.ID,
	})
	expectErr(t, err, database.ErrDuplicateSlug)

	_, err = f.s.GetCourse(f.ctx, plain.ID+100)
	expectErr(t, err, database.ErrNotFound)
}

func testCourseUpdate(t *testing.T, f *fixture) {
	instructor, cat := f.basics()
	c := f.course(cat, instructor, nil)
	other := f.course(cat, instructor, nil)

	if _, err := f.s.CreateEnrollment(f.ctx, enrollment.EnrollmentNew{UserID: instructor.ID, CourseID: c.ID, Price: c.Price}); err != nil {
		t.Fatal(err)
	}

	title := "Renamed"
	price := 4200
	published := false
	got, err := f.s.UpdateCourse(f.ctx, c.ID, course.CourseUp{Title: &title, Price: &price, IsPublished: &published})
	if err != nil {
		t.Fatal(err)
	}

	if got.Title != title || got.Price != price || got.IsPublished {
		t.Errorf("fields not updated: %+v", got)
	}
	if got.Slug != c.Slug || got.Description != c.Description {
		t.Errorf("untouched fields changed: %+v", got)
	}
	if got.TotalStudents != 1 {
		t.Errorf("derived counter lost: totalStudents %d", got.TotalStudents)
	}
	if !got.UpdatedAt.After(c.UpdatedAt) || !got.CreatedAt.Equal(c.CreatedAt) {
		t.Errorf("timestamps: created %v -> %v, updated %v -> %v", c.CreatedAt, got.CreatedAt, c.UpdatedAt, got.UpdatedAt)
	}

	stored, err := f.s.GetCourse(f.ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(got, stored); diff != "" {
		t.Errorf("stored course mismatch (-want +got):\n%s", diff)
	}

	_, err = f.s.UpdateCourse(f.ctx, c.ID, course.CourseUp{Slug: &other.Slug})
	expectErr(t, err, database.ErrDuplicateSlug)

	_, err = f.s.UpdateCourse(f.ctx, c.ID+100, course.CourseUp{Title: &title})
	expectErr(t, err, database.ErrNotFound)

	if err := f.s.IncrementCourseStudents(f.ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if stored, _ = f.s.GetCourse(f.ctx, c.ID); stored.TotalStudents != 2 {
		t.Errorf("expected 2 students, got %d", stored.TotalStudents)
	}
	expectErr(t, f.s.IncrementCourseStudents(f.ctx, c.ID+100), database.ErrNotFound)
}

func testAdminCourses(t *testing.T, f *fixture) {
	instructor, cat := f.basics()

	golang := f.course(cat, instructor, func(nc *course.CourseNew) { nc.Title = "Learning Go"; nc.IsApproved = false })
	f.course(cat, instructor, func(nc *course.CourseNew) { nc.Title = "Rust basics" })
	draft := f.course(cat, instructor, func(nc *course.CourseNew) { nc.Description = "Go concurrency"; nc.IsPublished = false })

	page, err := f.s.GetAdminCourses(f.ctx, course.Filter{Page: 1, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 3 || len(page.Courses) != 3 {
		t.Fatalf("expected all 3 courses, got %d of %d", len(page.Courses), page.Total)
	}

	page, err = f.s.GetAdminCourses(f.ctx, course.Filter{Page: 1, Limit: 10, Search: "go"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{draft.ID, golang.ID}, courseIDs(page.Courses)); diff != "" {
		t.Errorf("search over title and description (-want +got):\n%s", diff)
	}

	approved := false
	page, err = f.s.GetAdminCourses(f.ctx, course.Filter{Page: 1, Limit: 10, IsApproved: &approved})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{golang.ID}, courseIDs(page.Courses)); diff != "" {
		t.Errorf("approval filter (-want +got):\n%s", diff)
	}

	published := false
	page, err = f.s.GetAdminCourses(f.ctx, course.Filter{Page: 1, Limit: 1, IsPublished: &published})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Courses[0].ID != draft.ID {
		t.Errorf("publish filter: expected the draft, got %+v", page)
	}
}

func testCurriculum(t *testing.T, f *fixture) {
	instructor, cat := f.basics()
	c := f.course(cat, instructor, nil)

	second := f.section(c, 2)
	first := f.section(c, 1)
	l2 := f.lesson(first, 2)
	l1 := f.lesson(first, 1)
	l3 := f.lesson(second, 1)

	if l1.CourseID != c.ID {
		t.Errorf("lesson course: want %d, got %d", c.ID, l1.CourseID)
	}

	got, err := f.s.GetCourseSections(f.ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []course.SectionWithLessons{
		{Section: first, Lessons: []course.Lesson{l1, l2}},
		{Section: second, Lessons: []course.Lesson{l3}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("curriculum mismatch (-want +got):\n%s", diff)
	}

	lesson, err := f.s.GetLesson(f.ctx, l3.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(l3, lesson); diff != "" {
		t.Errorf("GetLesson mismatch (-want +got):\n%s", diff)
	}

	empty, err := f.s.GetCourseSections(f.ctx, c.ID+100)
	if err != nil || len(empty) != 0 {
		t.Errorf("unknown course: expected no sections, got %v, %v", empty, err)
	}

	_, err = f.s.CreateLesson(f.ctx, course.LessonNew{Title: "orphan", SectionID: second.ID + 100})
	expectErr(t, err, database.ErrNotFound)

	_, err = f.s.CreateSection(f.ctx, course.SectionNew{Title: "orphan", CourseID: c.ID + 100})
	expectErr(t, err, database.ErrNotFound)
}

func testReviewRating(t *testing.T, f *fixture) {
	instructor, cat := f.basics()
	c := f.course(cat, instructor, nil)
	alice := f.user("alice", user.RoleStudent)
	bob := f.user("bob", user.RoleStudent)

	if c.AverageRating != 0 || c.TotalRatings != 0 {
		t.Fatalf("new course has rating %v/%d", c.AverageRating, c.TotalRatings)
	}

	for _, nr := range []review.ReviewNew{
		{UserID: alice.ID, CourseID: c.ID, Rating: 4},
		{UserID: bob.ID, CourseID: c.ID, Rating: 5},
	} {
		if _, err := f.s.CreateReview(f.ctx, nr); err != nil {
			t.Fatal(err)
		}
	}

	got, err := f.s.GetCourse(f.ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.AverageRating != 4.5 || got.TotalRatings != 2 {
		t.Fatalf("expected 4.5 over 2 ratings, got %v over %d", got.AverageRating, got.TotalRatings)
	}

	_, err = f.s.CreateReview(f.ctx, review.ReviewNew{UserID: alice.ID, CourseID: c.ID, Rating: 1})
	expectErr(t, err, database.ErrDuplicateReview)

	carol := f.user("carol", user.RoleStudent)
	for _, rating := range []int{0, 6} {
		_, err = f.s.CreateReview(f.ctx, review.ReviewNew{UserID: carol.ID, CourseID: c.ID, Rating: rating})
		expectErr(t, err, database.ErrOutOfRange)
	}

	got, _ = f.s.GetCourse(f.ctx, c.ID)
	if got.AverageRating != 4.5 || got.TotalRatings != 2 {
		t.Fatalf("rejected review changed the rating: %v over %d", got.AverageRating, got.TotalRatings)
	}

	reviews, err := f.s.GetCourseReviews(f.ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(reviews) != 2 || reviews[0].UserID != bob.ID {
		t.Fatalf("expected bob's review first, got %+v", reviews)
	}

	mine, err := f.s.GetUserReviews(f.ctx, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	one, err := f.s.GetUserCourseReview(f.ctx, alice.ID, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]review.Review{one}, mine); diff != "" {
		t.Errorf("user reviews mismatch (-want +got):\n%s", diff)
	}

	_, err = f.s.GetUserCourseReview(f.ctx, instructor.ID, c.ID)
	expectErr(t, err, database.ErrNotFound)

	_, err = f.s.CreateReview(f.ctx, review.ReviewNew{UserID: alice.ID, CourseID: c.ID + 100, Rating: 5})
	expectErr(t, err, database.ErrNotFound)
}

func testTestimonials(t *testing.T, f *fixture) {
	instructor, cat := f.basics()
	c := f.course(cat, instructor, func(nc *course.CourseNew) { nc.Title = "Go for pros" })

	text := func(s string) *string { return &s }
	var kept []string
	for i := 0; i < 9; i++ {
		u := f.user(fmt.Sprintf("student%d", i), user.RoleStudent)
		nr := review.ReviewNew{UserID: u.ID, CourseID: c.ID, Rating: 5, Content: text(fmt.Sprintf("review %d", i))}
		switch i {
		case 1:
			nr.Rating = 3
		case 2:
			nr.Content = nil
		case 3:
			nr.Content = text("")
		default:
			kept = append([]string{*nr.Content}, kept...)
		}
		if _, err := f.s.CreateReview(f.ctx, nr); err != nil {
			t.Fatal(err)
		}
	}

	got, err := f.s.GetTestimonials(f.ctx)
	if err != nil {
		t.Fatal(err)
	}

	var contents []string
	for _, ts := range got {
		contents = append(contents, ts.Content)
		if ts.CourseTitle != "Go for pros" || ts.Role != user.RoleStudent || ts.Rating < review.TestimonialMinRating {
			t.Errorf("badly enriched testimonial %+v", ts)
		}
	}
	if diff := cmp.Diff(kept[:review.TestimonialLimit], contents); diff != "" {
		t.Errorf("testimonials mismatch (-want +got):\n%s", diff)
	}
	if got[0].Name != "Full student8" {
		t.Errorf("expected the newest reviewer's name, got %q", got[0].Name)
	}
}

func testCreateEnrollment(t *testing.T, f *fixture) {
	instructor, cat := f.basics()
	c := f.course(cat, instructor, nil)
	alice := f.user("alice", user.RoleStudent)

	e, err := f.s.CreateEnrollment(f.ctx, enrollment.EnrollmentNew{UserID: alice.ID, CourseID: c.ID, Price: c.Price})
	if err != nil {
		t.Fatal(err)
	}

	got, err := f.s.GetUserCourseEnrollment(f.ctx, alice.ID, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Progress != 0 || got.Completed {
		t.Fatalf("expected a fresh enrollment, got %+v", got)
	}
	if diff := cmp.Diff(e, got); diff != "" {
		t.Errorf("enrollment mismatch (-want +got):\n%s", diff)
	}

	_, err = f.s.CreateEnrollment(f.ctx, enrollment.EnrollmentNew{UserID: alice.ID, CourseID: c.ID, Price: c.Price})
	expectErr(t, err, database.ErrDuplicateEnrollment)

	stored, err := f.s.GetCourse(f.ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.TotalStudents != 1 {
		t.Errorf("expected 1 student, got %d", stored.TotalStudents)
	}

	updated, err := f.s.UpdateEnrollmentProgress(f.ctx, alice.ID, c.ID, 150)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Progress != 100 || !updated.Completed {
		t.Errorf("expected a completed enrollment, got %+v", updated)
	}

	updated, err = f.s.UpdateEnrollmentProgress(f.ctx, alice.ID, c.ID, 40)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Progress != 40 || updated.Completed {
		t.Errorf("expected 40%% and not completed, got %+v", updated)
	}

	_, err = f.s.UpdateEnrollmentProgress(f.ctx, instructor.ID, c.ID, 10)
	expectErr(t, err, database.ErrNotFound)

	list, err := f.s.GetUserEnrollments(f.ctx, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Course.ID != c.ID || list[0].Progress != 40 {
		t.Errorf("unexpected enrollments %+v", list)
	}
}

func testEnroll(t *testing.T, f *fixture) {
	instructor, cat := f.basics()
	c := f.course(cat, instructor, func(nc *course.CourseNew) { nc.Price = 250000 })
	hidden := f.course(cat, instructor, func(nc *course.CourseNew) { nc.IsApproved = false })
	alice := f.user("alice", user.RoleStudent)

	e, ord, err := f.s.Enroll(f.ctx, alice.ID, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if e.Price != 250000 || e.Progress != 0 || e.Completed {
		t.Errorf("unexpected enrollment %+v", e)
	}
	if ord.Amount != 250000 || ord.Status != order.Completed || ord.Reference == "" || ord.CourseID != c.ID {
		t.Errorf("unexpected order %+v", ord)
	}

	_, _, err = f.s.Enroll(f.ctx, alice.ID, c.ID)
	expectErr(t, err, database.ErrDuplicateEnrollment)

	_, _, err = f.s.Enroll(f.ctx, alice.ID, hidden.ID)
	expectErr(t, err, database.ErrNotPurchasable)

	_, _, err = f.s.Enroll(f.ctx, alice.ID, c.ID+100)
	expectErr(t, err, database.ErrNotFound)

	orders, err := f.s.GetUserOrders(f.ctx, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 || orders[0].ID != ord.ID || orders[0].Course.ID != c.ID {
		t.Errorf("expected exactly the first order, got %+v", orders)
	}

	stored, err := f.s.GetCourse(f.ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.TotalStudents != 1 {
		t.Errorf("expected 1 student, got %d", stored.TotalStudents)
	}
}

func testDeleteCourse(t *testing.T, f *fixture) {
	instructor, cat := f.basics()
	c := f.course(cat, instructor, nil)
	kept := f.course(cat, instructor, nil)
	alice := f.user("alice", user.RoleStudent)

	var lessons []course.Lesson
	for i := 1; i <= 2; i++ {
		s := f.section(c, i)
		for j := 1; j <= 3; j++ {
			lessons = append(lessons, f.lesson(s, j))
		}
	}
	keptLesson := f.lesson(f.section(kept, 1), 1)

	if _, _, err := f.s.Enroll(f.ctx, alice.ID, c.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.s.CreateReview(f.ctx, review.ReviewNew{UserID: alice.ID, CourseID: c.ID, Rating: 5}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.s.SaveProgress(f.ctx, progress.ProgressNew{UserID: alice.ID, LessonID: lessons[0].ID, WatchedSeconds: 30}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.s.SaveProgress(f.ctx, progress.ProgressNew{UserID: alice.ID, LessonID: keptLesson.ID, WatchedSeconds: 10}); err != nil {
		t.Fatal(err)
	}

	if err := f.s.DeleteCourse(f.ctx, c.ID); err != nil {
		t.Fatal(err)
	}

	_, err := f.s.GetCourse(f.ctx, c.ID)
	expectErr(t, err, database.ErrNotFound)

	sections, err := f.s.GetCourseSections(f.ctx, c.ID)
	if err != nil || len(sections) != 0 {
		t.Errorf("sections survived: %v, %v", sections, err)
	}
	for _, l := range lessons {
		_, err := f.s.GetLesson(f.ctx, l.ID)
		expectErr(t, err, database.ErrNotFound)
	}

	_, err = f.s.GetUserCourseEnrollment(f.ctx, alice.ID, c.ID)
	expectErr(t, err, database.ErrNotFound)

	reviews, err := f.s.GetCourseReviews(f.ctx, c.ID)
	if err != nil || len(reviews) != 0 {
		t.Errorf("reviews survived: %v, %v", reviews, err)
	}

	recent, err := f.s.GetUserRecentProgress(f.ctx, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].LessonID != keptLesson.ID {
		t.Errorf("expected only the other course's progress, got %+v", recent)
	}

	st, err := f.s.GetAdminStats(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalOrders != 1 || st.TotalCourses != 1 {
		t.Errorf("expected the order kept and one course left, got %+v", st)
	}

	expectErr(t, f.s.DeleteCourse(f.ctx, c.ID), database.ErrNotFound)
}

func testProgress(t *testing.T, f *fixture) {
	instructor, cat := f.basics()
	c := f.course(cat, instructor, nil)
	alice := f.user("alice", user.RoleStudent)
	s := f.section(c, 1)

	var lessons []course.Lesson
	for i := 1; i <= 7; i++ {
		lessons = append(lessons, f.lesson(s, i))
	}

	first, err := f.s.SaveProgress(f.ctx, progress.ProgressNew{UserID: alice.ID, LessonID: lessons[0].ID, Completed: true, WatchedSeconds: 500})
	if err != nil {
		t.Fatal(err)
	}
	if first.CourseID != c.ID || first.LastWatched == nil {
		t.Fatalf("unexpected progress %+v", first)
	}

	again, err := f.s.SaveProgress(f.ctx, progress.ProgressNew{UserID: alice.ID, LessonID: lessons[0].ID, WatchedSeconds: 120})
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != first.ID || !again.Completed || again.WatchedSeconds != 500 {
		t.Errorf("expected sticky completion and position, got %+v", again)
	}
	if !again.LastWatched.After(*first.LastWatched) {
		t.Errorf("lastWatched not refreshed: %v then %v", first.LastWatched, again.LastWatched)
	}

	for _, l := range lessons[1:] {
		if _, err := f.s.SaveProgress(f.ctx, progress.ProgressNew{UserID: alice.ID, LessonID: l.ID, WatchedSeconds: 60}); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := f.s.GetUserRecentProgress(f.ctx, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	var got []int
	for _, r := range recent {
		got = append(got, r.Lesson.ID)
		if r.Course.ID != c.ID {
			t.Errorf("progress[%d] enriched with course %d", r.ID, r.Course.ID)
		}
	}
	want := []int{lessons[6].ID, lessons[5].ID, lessons[4].ID, lessons[3].ID, lessons[2].ID}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("recent progress mismatch (-want +got):\n%s", diff)
	}

	_, err = f.s.SaveProgress(f.ctx, progress.ProgressNew{UserID: alice.ID, LessonID: lessons[6].ID + 100})
	expectErr(t, err, database.ErrNotFound)
}

func testOrders(t *testing.T, f *fixture) {
	instructor, cat := f.basics()
	c := f.course(cat, instructor, nil)
	alice := f.user("alice", user.RoleStudent)

	var created []order.Order
	for i := 0; i < 12; i++ {
		o, err := f.s.CreateOrder(f.ctx, order.OrderNew{UserID: alice.ID, CourseID: c.ID, Amount: 10 * (i + 1)})
		if err != nil {
			t.Fatal(err)
		}
		if o.Status != order.Pending {
			t.Fatalf("expected a pending order, got %q", o.Status)
		}
		created = append(created, o)
	}

	mine, err := f.s.GetUserOrders(f.ctx, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 12 || mine[0].ID != created[11].ID || mine[0].Course.ID != c.ID {
		t.Fatalf("unexpected user orders: %d, first %+v", len(mine), mine[0].Order)
	}

	recent, err := f.s.GetRecentOrders(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != order.RecentLimit {
		t.Fatalf("expected %d recent orders, got %d", order.RecentLimit, len(recent))
	}
	if recent[0].ID != created[11].ID || recent[0].User.ID != alice.ID || recent[0].Course.ID != c.ID {
		t.Errorf("unexpected newest order %+v", recent[0])
	}
	if recent[9].ID != created[2].ID {
		t.Errorf("expected the tenth newest order last, got %d", recent[9].ID)
	}

	_, err = f.s.CreateOrder(f.ctx, order.OrderNew{UserID: alice.ID + 100, CourseID: c.ID, Amount: 1})
	expectErr(t, err, database.ErrNotFound)
}

func testAdminStats(t *testing.T, f *fixture) {
	f.clk.set(time.Date(2024, time.February, 10, 9, 0, 0, 0, time.UTC))
	instructor, cat := f.basics()
	old := f.user("old", user.RoleStudent)
	c := f.course(cat, instructor, func(nc *course.CourseNew) { nc.Price = 1000 })
	if _, _, err := f.s.Enroll(f.ctx, old.ID, c.ID); err != nil {
		t.Fatal(err)
	}

	f.clk.set(time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC))
	for _, name := range []string{"a", "b", "c"} {
		u := f.user(name, user.RoleStudent)
		if _, _, err := f.s.Enroll(f.ctx, u.ID, c.ID); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.s.CreateOrder(f.ctx, order.OrderNew{UserID: old.ID, CourseID: c.ID, Amount: 7777}); err != nil {
		t.Fatal(err)
	}

	got, err := f.s.GetAdminStats(f.ctx)
	if err != nil {
		t.Fatal(err)
	}

	want := stats.Stats{
		TotalUsers:    5,
		TotalCourses:  1,
		TotalOrders:   5,
		Revenue:       4000,
		UsersChange:   50,
		CoursesChange: -100,
		OrdersChange:  300,
		RevenueChange: 200,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func testRevenueByMonth(t *testing.T, f *fixture) {
	alice := f.user("alice", user.RoleStudent)

	orders := []struct {
		at     time.Time
		amount int
		status order.Status
	}{
		{time.Date(2022, time.December, 31, 23, 59, 0, 0, time.UTC), 999, order.Completed},
		{time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), 100, order.Completed},
		{time.Date(2023, time.January, 20, 0, 0, 0, 0, time.UTC), 50, order.Pending},
		{time.Date(2023, time.March, 3, 0, 0, 0, 0, time.UTC), 200, order.Completed},
		{time.Date(2023, time.March, 31, 23, 0, 0, 0, time.UTC), 300, order.Completed},
		{time.Date(2023, time.December, 31, 12, 0, 0, 0, time.UTC), 400, order.Completed},
		{time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), 888, order.Completed},
	}
	for _, o := range orders {
		f.clk.set(o.at)
		if _, err := f.s.CreateOrder(f.ctx, order.OrderNew{UserID: alice.ID, CourseID: 1, Amount: o.amount, Status: o.status}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := f.s.GetRevenueByMonth(f.ctx, 2023)
	if err != nil {
		t.Fatal(err)
	}

	want := stats.Year(map[int]int{1: 100, 3: 500, 12: 400})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("revenue mismatch (-want +got):\n%s", diff)
	}

	var total int
	for _, m := range got {
		total += m.Revenue
	}
	if total != 1000 {
		t.Errorf("expected 1000 over the year, got %d", total)
	}

	empty, err := f.s.GetRevenueByMonth(f.ctx, 2019)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(stats.Year(nil), empty); diff != "" {
		t.Errorf("empty year mismatch (-want +got):\n%s", diff)
	}
}
