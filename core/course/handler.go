package course

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/e-learning/api/web"
	"github.com/irsalhamdi/e-learning/api/weberr"
	"github.com/irsalhamdi/e-learning/core/claims"
	"github.com/irsalhamdi/e-learning/database"
	"github.com/irsalhamdi/e-learning/random"
	"github.com/irsalhamdi/e-learning/validate"
)

type Store interface {
	GetAllCourses(ctx context.Context) ([]Course, error)
	GetFeaturedCourses(ctx context.Context) ([]Course, error)
	GetLatestCourses(ctx context.Context) ([]Course, error)
	GetCourse(ctx context.Context, id int) (Course, error)
	GetCourseBySlug(ctx context.Context, slug string) (Course, error)
	CreateCourse(ctx context.Context, nc CourseNew) (Course, error)
	UpdateCourse(ctx context.Context, id int, up CourseUp) (Course, error)
	DeleteCourse(ctx context.Context, id int) error
	GetAdminCourses(ctx context.Context, f Filter) (Page, error)

	GetCourseSections(ctx context.Context, courseID int) ([]SectionWithLessons, error)
	CreateSection(ctx context.Context, ns SectionNew) (Section, error)
	CreateLesson(ctx context.Context, nl LessonNew) (Lesson, error)
}

const slugAttempts = 3

func listHandler(list func(context.Context) ([]Course, error), what string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courses, err := list(ctx)
		if err != nil {
			return fmt.Errorf("listing %s courses: %w", what, err)
		}

		return web.Respond(ctx, w, courses, http.StatusOK)
	}
}

func HandleList(store Store) web.Handler {
	return listHandler(store.GetAllCourses, "published")
}

func HandleListFeatured(store Store) web.Handler {
	return listHandler(store.GetFeaturedCourses, "featured")
}

func HandleListLatest(store Store) web.Handler {
	return listHandler(store.GetLatestCourses, "latest")
}

// HandleShow serves a catalog course by slug. Courses that are not both
// published and approved are hidden.
func HandleShow(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		slug := web.Param(r, "slug")

		c, err := store.GetCourseBySlug(ctx, slug)
		if err != nil {
			return weberr.FromStore(fmt.Errorf("fetching course[%s]: %w", slug, err))
		}

		if !c.Listed() {
			return weberr.NotFound(fmt.Errorf("course[%s] is not listed", slug))
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleListSections(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := validate.ParseID(web.Param(r, "id"))
		if err != nil {
			return weberr.BadRequest(err)
		}

		if _, err := store.GetCourse(ctx, id); err != nil {
			return weberr.FromStore(fmt.Errorf("fetching course[%d]: %w", id, err))
		}

		sections, err := store.GetCourseSections(ctx, id)
		if err != nil {
			return fmt.Errorf("listing sections of course[%d]: %w", id, err)
		}

		return web.Respond(ctx, w, sections, http.StatusOK)
	}
}

// =============================================================================
// Admin

// HandleListAdmin serves every course regardless of its state. Query
// parameters: page, limit, search, isApproved and isPublished.
func HandleListAdmin(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var (
			f   Filter
			err error
		)
		if f.Page, err = web.QueryInt(r, "page", 1); err != nil {
			return weberr.BadRequest(err)
		}
		if f.Limit, err = web.QueryInt(r, "limit", 10); err != nil {
			return weberr.BadRequest(err)
		}
		if f.IsApproved, err = web.QueryBool(r, "isApproved"); err != nil {
			return weberr.BadRequest(err)
		}
		if f.IsPublished, err = web.QueryBool(r, "isPublished"); err != nil {
			return weberr.BadRequest(err)
		}
		f.Search = r.URL.Query().Get("search")

		page, err := store.GetAdminCourses(ctx, f)
		if err != nil {
			return fmt.Errorf("listing admin courses: %w", err)
		}

		return web.Respond(ctx, w, page, http.StatusOK)
	}
}

// HandleCreate creates a course. Without a slug one is derived from the
// title, with a random suffix when the plain one is taken. Without an
// instructor the admin creating the course is used.
func HandleCreate(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var nc CourseNew
		if err := web.Decode(w, r, &nc); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if nc.InstructorID == 0 {
			if clm, err := claims.Get(ctx); err == nil {
				nc.InstructorID = clm.UserID
			}
		}

		generated := nc.Slug == ""
		if generated {
			nc.Slug = Slugify(nc.Title)
			if nc.Slug == "" {
				nc.Slug = random.String(8)
			}
		}

		if err := validate.Check(nc); err != nil {
			return weberr.BadRequest(err)
		}

		base := nc.Slug
		for attempt := 1; ; attempt++ {
			c, err := store.CreateCourse(ctx, nc)
			if err == nil {
				return web.Respond(ctx, w, c, http.StatusCreated)
			}
			if !generated || !errors.Is(err, database.ErrDuplicateSlug) || attempt == slugAttempts {
				return weberr.FromStore(fmt.Errorf("creating course[%s]: %w", nc.Slug, err))
			}
			nc.Slug = base + "-" + random.String(6)
		}
	}
}

func HandleUpdate(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := validate.ParseID(web.Param(r, "id"))
		if err != nil {
			return weberr.BadRequest(err)
		}

		var up CourseUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.BadRequest(err)
		}

		c, err := store.UpdateCourse(ctx, id, up)
		if err != nil {
			return weberr.FromStore(fmt.Errorf("updating course[%d]: %w", id, err))
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleDelete(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := validate.ParseID(web.Param(r, "id"))
		if err != nil {
			return weberr.BadRequest(err)
		}

		if err := store.DeleteCourse(ctx, id); err != nil {
			return weberr.FromStore(fmt.Errorf("deleting course[%d]: %w", id, err))
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleCreateSection(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := validate.ParseID(web.Param(r, "id"))
		if err != nil {
			return weberr.BadRequest(err)
		}

		var ns SectionNew
		if err := web.Decode(w, r, &ns); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		ns.CourseID = id

		if err := validate.Check(ns); err != nil {
			return weberr.BadRequest(err)
		}

		s, err := store.CreateSection(ctx, ns)
		if err != nil {
			return weberr.FromStore(fmt.Errorf("creating section of course[%d]: %w", id, err))
		}

		return web.Respond(ctx, w, s, http.StatusCreated)
	}
}

func HandleCreateLesson(store Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := validate.ParseID(web.Param(r, "id"))
		if err != nil {
			return weberr.BadRequest(err)
		}

		var nl LessonNew
		if err := web.Decode(w, r, &nl); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		nl.SectionID = id

		if err := validate.Check(nl); err != nil {
			return weberr.BadRequest(err)
		}

		l, err := store.CreateLesson(ctx, nl)
		if err != nil {
			return weberr.FromStore(fmt.Errorf("creating lesson of section[%d]: %w", id, err))
		}

		return web.Respond(ctx, w, l, http.StatusCreated)
	}
}
