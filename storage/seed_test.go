package storage

import (
	"io"
	"testing"

	"github.com/irsalhamdi/e-learning/core/user"
	"github.com/sirupsen/logrus"
)

func testSeed(t *testing.T, f *fixture) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	if err := Seed(f.ctx, f.s, log); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	users, err := f.s.GetUsers(f.ctx, user.Filter{Page: 1, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if users.Total != 3 {
		t.Fatalf("expected 3 users, got %d", users.Total)
	}

	cats, err := f.s.GetCategories(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != len(seedCategories) {
		t.Errorf("expected %d categories, got %d", len(seedCategories), len(cats))
	}

	listed, err := f.s.GetAllCourses(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 5 {
		t.Errorf("expected 5 listed courses, got %d", len(listed))
	}

	featured, err := f.s.GetFeaturedCourses(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(featured) != 4 {
		t.Errorf("expected 4 featured courses, got %d", len(featured))
	}

	student, err := f.s.GetUserByUsername(f.ctx, "student")
	if err != nil {
		t.Fatal(err)
	}
	enrollments, err := f.s.GetUserEnrollments(f.ctx, student.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(enrollments) != 5 {
		t.Errorf("expected 5 enrollments, got %d", len(enrollments))
	}

	bootcamp, err := f.s.GetCourseBySlug(f.ctx, "complete-web-development-bootcamp")
	if err != nil {
		t.Fatal(err)
	}
	if bootcamp.AverageRating != 5 || bootcamp.TotalRatings != 1 || bootcamp.TotalStudents != 1 {
		t.Errorf("unexpected bootcamp counters %+v", bootcamp)
	}

	sections, err := f.s.GetCourseSections(f.ctx, bootcamp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(sections) != 2 || len(sections[0].Lessons) != 3 || !sections[0].Lessons[0].IsFree {
		t.Errorf("unexpected bootcamp curriculum %+v", sections)
	}

	if err := Seed(f.ctx, f.s, log); err != nil {
		t.Fatalf("seeding again: %v", err)
	}
	users, err = f.s.GetUsers(f.ctx, user.Filter{Page: 1, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if users.Total != 3 {
		t.Errorf("second seed added users: %d", users.Total)
	}
}
