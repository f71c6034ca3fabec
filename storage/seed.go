package storage

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/e-learning/core/auth"
	"github.com/irsalhamdi/e-learning/core/category"
	"github.com/irsalhamdi/e-learning/core/course"
	"github.com/irsalhamdi/e-learning/core/progress"
	"github.com/irsalhamdi/e-learning/core/review"
	"github.com/irsalhamdi/e-learning/core/user"
	"github.com/sirupsen/logrus"
)

// SeedPassword is the password of every demo account.
const SeedPassword = "password123"

type seedCourse struct {
	course.CourseNew
	category string
	sections []seedSection
}

type seedSection struct {
	title   string
	lessons []string
}

func strptr(s string) *string { return &s }

func intptr(n int) *int { return &n }

var seedCategories = []category.CategoryNew{
	{Name: "Web Development", Slug: "web-development", Icon: "code", Description: strptr("Front end and back end web technologies.")},
	{Name: "Data Science", Slug: "data-science", Icon: "chart", Description: strptr("Statistics, machine learning and data tooling.")},
	{Name: "Mobile Development", Slug: "mobile-development", Icon: "phone", Description: strptr("Native and cross platform apps.")},
	{Name: "Design", Slug: "design", Icon: "palette", Description: strptr("UI, UX and visual design.")},
	{Name: "Business", Slug: "business", Icon: "briefcase", Description: strptr("Marketing, management and entrepreneurship.")},
}

func curriculum(topic string) []seedSection {
	return []seedSection{
		{title: "Getting started with " + topic, lessons: []string{"Welcome", "Setting up your environment", "First steps"}},
		{title: topic + " in practice", lessons: []string{"Building a project", "Going further"}},
	}
}

var seedCourses = []seedCourse{
	{
		CourseNew: course.CourseNew{
			Title: "Complete Web Development Bootcamp", Slug: "complete-web-development-bootcamp",
			Description: "HTML, CSS, JavaScript and Go from zero to a deployed application.",
			Price:       499000, OriginalPrice: intptr(899000), Thumbnail: "https://images.example.com/courses/web-bootcamp.jpg",
			Level: course.Beginner, IsPublished: true, IsApproved: true, IsFeatured: true, IsPopular: true, TotalHours: 42,
		},
		category: "web-development", sections: curriculum("the web"),
	},
	{
		CourseNew: course.CourseNew{
			Title: "Advanced Go Services", Slug: "advanced-go-services",
			Description: "Concurrency, observability and PostgreSQL in production Go services.",
			Price:       599000, Thumbnail: "https://images.example.com/courses/advanced-go.jpg",
			Level: course.Advanced, IsPublished: true, IsApproved: true, IsFeatured: true, TotalHours: 28,
		},
		category: "web-development", sections: curriculum("Go"),
	},
	{
		CourseNew: course.CourseNew{
			Title: "Data Science with Python", Slug: "data-science-with-python",
			Description: "Pandas, visualisation and your first machine learning models.",
			Price:       549000, OriginalPrice: intptr(749000), Thumbnail: "https://images.example.com/courses/data-science.jpg",
			Level: course.Intermediate, IsPublished: true, IsApproved: true, IsFeatured: true, IsPopular: true, TotalHours: 36,
		},
		category: "data-science", sections: curriculum("data analysis"),
	},
	{
		CourseNew: course.CourseNew{
			Title: "Flutter Mobile Apps", Slug: "flutter-mobile-apps",
			Description: "Ship one code base to Android and iOS.",
			Price:       449000, Thumbnail: "https://images.example.com/courses/flutter.jpg",
			Level: course.Intermediate, IsPublished: true, IsApproved: true, IsPopular: true, TotalHours: 24,
		},
		category: "mobile-development", sections: curriculum("Flutter"),
	},
	{
		CourseNew: course.CourseNew{
			Title: "UI Design Fundamentals", Slug: "ui-design-fundamentals",
			Description: "Layout, typography and colour for product designers.",
			Price:       0, Thumbnail: "https://images.example.com/courses/ui-design.jpg",
			Level: course.AllLevels, IsPublished: true, IsApproved: true, IsFeatured: true, TotalHours: 8,
		},
		category: "design", sections: curriculum("UI design"),
	},
	{
		CourseNew: course.CourseNew{
			Title: "Digital Marketing Strategy", Slug: "digital-marketing-strategy",
			Description: "Plan, run and measure campaigns across channels.",
			Price:       349000, Thumbnail: "https://images.example.com/courses/marketing.jpg",
			Level: course.Beginner, IsPublished: true, IsApproved: false, TotalHours: 12,
		},
		category: "business", sections: curriculum("marketing"),
	},
	{
		CourseNew: course.CourseNew{
			Title: "Machine Learning Engineering", Slug: "machine-learning-engineering",
			Description: "From notebooks to models served in production.",
			Price:       699000, Thumbnail: "https://images.example.com/courses/ml-engineering.jpg",
			Level: course.Advanced, IsPublished: false, IsApproved: false, TotalHours: 30,
		},
		category: "data-science", sections: curriculum("ML engineering"),
	},
}

// Seed loads a demo catalog: an admin, an instructor and a student, five
// categories, seven courses with their curriculum, and a few purchases,
// reviews and watched lessons. It does nothing if the store has users.
func Seed(ctx context.Context, s Storage, log logrus.FieldLogger) error {
	existing, err := s.GetUsers(ctx, user.Filter{Page: 1, Limit: 1})
	if err != nil {
		return fmt.Errorf("checking existing users: %w", err)
	}
	if existing.Total > 0 {
		log.Info("store already populated, skipping seed")
		return nil
	}

	hash, err := auth.HashPassword(SeedPassword)
	if err != nil {
		return err
	}

	people := []user.UserNew{
		{Username: "admin", Email: "admin@elearning.local", FullName: "Site Administrator", Role: user.RoleAdmin},
		{Username: "instructor", Email: "instructor@elearning.local", FullName: "Nadia Pratama", Role: user.RoleInstructor,
			Bio: strptr("Software engineer and teacher for ten years.")},
		{Username: "student", Email: "student@elearning.local", FullName: "Budi Santoso", Role: user.RoleStudent,
			Avatar: strptr("https://images.example.com/avatars/student.png")},
	}
	users := make(map[string]user.User, len(people))
	for _, nu := range people {
		nu.Password = hash
		u, err := s.CreateUser(ctx, nu)
		if err != nil {
			return fmt.Errorf("seeding user[%s]: %w", nu.Username, err)
		}
		users[u.Username] = u
	}

	cats := make(map[string]category.Category, len(seedCategories))
	for _, nc := range seedCategories {
		c, err := s.CreateCategory(ctx, nc)
		if err != nil {
			return fmt.Errorf("seeding category[%s]: %w", nc.Slug, err)
		}
		cats[c.Slug] = c
	}

	courses := make([]course.Course, 0, len(seedCourses))
	firstLessons := make(map[int][]course.Lesson, len(seedCourses))
	for _, sc := range seedCourses {
		nc := sc.CourseNew
		nc.CategoryID = cats[sc.category].ID
		nc.InstructorID = users["instructor"].ID

		c, err := s.CreateCourse(ctx, nc)
		if err != nil {
			return fmt.Errorf("seeding course[%s]: %w", nc.Slug, err)
		}
		courses = append(courses, c)

		for i, ss := range sc.sections {
			sec, err := s.CreateSection(ctx, course.SectionNew{Title: ss.title, CourseID: c.ID, Order: i + 1})
			if err != nil {
				return fmt.Errorf("seeding section of course[%s]: %w", c.Slug, err)
			}
			for j, title := range ss.lessons {
				nl := course.LessonNew{
					Title:     title,
					VideoURL:  strptr(fmt.Sprintf("https://videos.example.com/%s/%d-%d.mp4", c.Slug, i+1, j+1)),
					Duration:  300 + 60*j,
					IsFree:    i == 0 && j == 0,
					SectionID: sec.ID,
					Order:     j + 1,
				}
				l, err := s.CreateLesson(ctx, nl)
				if err != nil {
					return fmt.Errorf("seeding lesson of course[%s]: %w", c.Slug, err)
				}
				if i == 0 {
					firstLessons[c.ID] = append(firstLessons[c.ID], l)
				}
			}
		}
	}

	student := users["student"]
	reviews := map[int]review.ReviewNew{
		0: {Rating: 5, Content: strptr("Clear explanations and great projects, I landed my first job after it.")},
		2: {Rating: 4, Content: strptr("Dense but very practical.")},
		4: {Rating: 3},
	}
	for i, c := range courses[:5] {
		if _, _, err := s.Enroll(ctx, student.ID, c.ID); err != nil {
			return fmt.Errorf("seeding enrollment in course[%s]: %w", c.Slug, err)
		}

		if nr, ok := reviews[i]; ok {
			nr.UserID = student.ID
			nr.CourseID = c.ID
			if _, err := s.CreateReview(ctx, nr); err != nil {
				return fmt.Errorf("seeding review of course[%s]: %w", c.Slug, err)
			}
		}
	}

	for i, c := range courses[:3] {
		for j, l := range firstLessons[c.ID] {
			np := progress.ProgressNew{
				UserID:         student.ID,
				LessonID:       l.ID,
				Completed:      j < len(firstLessons[c.ID])-1,
				WatchedSeconds: l.Duration - 30*j,
			}
			if _, err := s.SaveProgress(ctx, np); err != nil {
				return fmt.Errorf("seeding progress on lesson[%d]: %w", l.ID, err)
			}
		}
		if _, err := s.UpdateEnrollmentProgress(ctx, student.ID, c.ID, 40-10*i); err != nil {
			return fmt.Errorf("seeding progress in course[%s]: %w", c.Slug, err)
		}
	}

	log.WithFields(logrus.Fields{
		"users":      len(users),
		"categories": len(cats),
		"courses":    len(courses),
	}).Info("seeded demo catalog")
	return nil
}
