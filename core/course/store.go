package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/irsalhamdi/e-learning/database"
	"github.com/jmoiron/sqlx"
)

const columns = `course_id, title, slug, description, price, original_price, thumbnail, preview_video,
	level, category_id, instructor_id, is_published, is_approved, is_featured, is_popular,
	total_students, total_hours, average_rating, total_ratings, created_at, updated_at`

// ListListed returns published and approved courses, newest first. A limit
// of zero returns them all.
func ListListed(ctx context.Context, db sqlx.ExtContext, featuredOnly bool, limit int) ([]Course, error) {
	q := `SELECT ` + columns + ` FROM courses WHERE is_published AND is_approved`
	if featuredOnly {
		q += ` AND is_featured`
	}
	q += ` ORDER BY created_at DESC, course_id DESC`

	var args []interface{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}

	courses := []Course{}
	if err := sqlx.SelectContext(ctx, db, &courses, q, args...); err != nil {
		return nil, err
	}
	return courses, nil
}

func ListAdmin(ctx context.Context, db sqlx.ExtContext, f Filter) (Page, error) {
	var w database.Where
	if f.IsApproved != nil {
		w.And("is_approved = ?", *f.IsApproved)
	}
	if f.IsPublished != nil {
		w.And("is_published = ?", *f.IsPublished)
	}
	w.Search(f.Search, "title", "description")

	var total int
	if err := sqlx.GetContext(ctx, db, &total, db.Rebind(`SELECT count(*) FROM courses`+w.Clause()), w.Args()...); err != nil {
		return Page{}, fmt.Errorf("counting courses: %w", err)
	}

	_, limit, offset := database.Paginate(f.Page, f.Limit)
	q := `SELECT ` + columns + ` FROM courses` + w.Clause() + ` ORDER BY created_at DESC, course_id DESC LIMIT ? OFFSET ?`
	args := append(append([]interface{}{}, w.Args()...), limit, offset)

	courses := []Course{}
	if err := sqlx.SelectContext(ctx, db, &courses, db.Rebind(q), args...); err != nil {
		return Page{}, fmt.Errorf("selecting courses: %w", err)
	}

	return Page{Courses: courses, Total: total}, nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id int) (Course, error) {
	return fetchBy(ctx, db, "course_id", id)
}

func FetchBySlug(ctx context.Context, db sqlx.ExtContext, slug string) (Course, error) {
	return fetchBy(ctx, db, "slug", slug)
}

func fetchBy(ctx context.Context, db sqlx.ExtContext, column string, val interface{}) (Course, error) {
	var c Course
	q := `SELECT ` + columns + ` FROM courses WHERE ` + column + ` = $1`
	if err := sqlx.GetContext(ctx, db, &c, q, val); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, database.ErrNotFound
		}
		return Course{}, err
	}
	return c, nil
}

// FetchForUpdate reads the course row and locks it until the transaction ends.
func FetchForUpdate(ctx context.Context, tx sqlx.ExtContext, id int) (Course, error) {
	var c Course
	q := `SELECT ` + columns + ` FROM courses WHERE course_id = $1 FOR UPDATE`
	if err := sqlx.GetContext(ctx, tx, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, database.ErrNotFound
		}
		return Course{}, err
	}
	return c, nil
}

// FetchByIDs returns the courses found among ids, keyed by id.
func FetchByIDs(ctx context.Context, db sqlx.ExtContext, ids []int) (map[int]Course, error) {
	m := make(map[int]Course, len(ids))
	if len(ids) == 0 {
		return m, nil
	}

	q, args, err := sqlx.In(`SELECT `+columns+` FROM courses WHERE course_id IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	var courses []Course
	if err := sqlx.SelectContext(ctx, db, &courses, db.Rebind(q), args...); err != nil {
		return nil, err
	}
	for _, c := range courses {
		m[c.ID] = c
	}
	return m, nil
}

func Create(ctx context.Context, db sqlx.ExtContext, c Course) (Course, error) {
	const q = `
	INSERT INTO courses (title, slug, description, price, original_price, thumbnail, preview_video,
		level, category_id, instructor_id, is_published, is_approved, is_featured, is_popular,
		total_students, total_hours, average_rating, total_ratings, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	RETURNING course_id`

	err := db.QueryRowxContext(ctx, q,
		c.Title, c.Slug, c.Description, c.Price, c.OriginalPrice, c.Thumbnail, c.PreviewVideo,
		c.Level, c.CategoryID, c.InstructorID, c.IsPublished, c.IsApproved, c.IsFeatured, c.IsPopular,
		c.TotalStudents, c.TotalHours, c.AverageRating, c.TotalRatings, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return Course{}, database.Classify(err)
	}
	return c, nil
}

// Update writes the editable columns of c. Derived counters are left alone.
func Update(ctx context.Context, db sqlx.ExtContext, c Course) error {
	const q = `
	UPDATE courses SET
		title = $1, slug = $2, description = $3, price = $4, original_price = $5,
		thumbnail = $6, preview_video = $7, level = $8, category_id = $9,
		is_published = $10, is_approved = $11, is_featured = $12, is_popular = $13,
		total_hours = $14, updated_at = $15
	WHERE course_id = $16`

	res, err := db.ExecContext(ctx, q,
		c.Title, c.Slug, c.Description, c.Price, c.OriginalPrice,
		c.Thumbnail, c.PreviewVideo, c.Level, c.CategoryID,
		c.IsPublished, c.IsApproved, c.IsFeatured, c.IsPopular,
		c.TotalHours, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return database.Classify(err)
	}
	return expectOne(res)
}

func Delete(ctx context.Context, db sqlx.ExtContext, id int) error {
	res, err := db.ExecContext(ctx, `DELETE FROM courses WHERE course_id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func IncrementStudents(ctx context.Context, db sqlx.ExtContext, id int) error {
	res, err := db.ExecContext(ctx, `UPDATE courses SET total_students = total_students + 1 WHERE course_id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// RecomputeRating refreshes the rating aggregates of a course from its reviews.
func RecomputeRating(ctx context.Context, db sqlx.ExtContext, id int) error {
	const q = `
	UPDATE courses SET
		average_rating = (SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE course_id = $1),
		total_ratings = (SELECT count(*) FROM reviews WHERE course_id = $1)
	WHERE course_id = $1`

	res, err := db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}

// =============================================================================
// Curriculum

const (
	sectionColumns = `section_id, title, description, course_id, sort_order`
	lessonColumns  = `lesson_id, title, description, content, video_url, duration, is_free, section_id, course_id, sort_order`
)

func ListSections(ctx context.Context, db sqlx.ExtContext, courseID int) ([]Section, error) {
	sections := []Section{}
	q := `SELECT ` + sectionColumns + ` FROM sections WHERE course_id = $1 ORDER BY sort_order, section_id`
	if err := sqlx.SelectContext(ctx, db, &sections, q, courseID); err != nil {
		return nil, err
	}
	return sections, nil
}

func ListLessons(ctx context.Context, db sqlx.ExtContext, courseID int) ([]Lesson, error) {
	lessons := []Lesson{}
	q := `SELECT ` + lessonColumns + ` FROM lessons WHERE course_id = $1 ORDER BY sort_order, lesson_id`
	if err := sqlx.SelectContext(ctx, db, &lessons, q, courseID); err != nil {
		return nil, err
	}
	return lessons, nil
}

func FetchSection(ctx context.Context, db sqlx.ExtContext, id int) (Section, error) {
	var s Section
	q := `SELECT ` + sectionColumns + ` FROM sections WHERE section_id = $1`
	if err := sqlx.GetContext(ctx, db, &s, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Section{}, database.ErrNotFound
		}
		return Section{}, err
	}
	return s, nil
}

func FetchLesson(ctx context.Context, db sqlx.ExtContext, id int) (Lesson, error) {
	var l Lesson
	q := `SELECT ` + lessonColumns + ` FROM lessons WHERE lesson_id = $1`
	if err := sqlx.GetContext(ctx, db, &l, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lesson{}, database.ErrNotFound
		}
		return Lesson{}, err
	}
	return l, nil
}

// FetchLessonsByIDs returns the lessons found among ids, keyed by id.
func FetchLessonsByIDs(ctx context.Context, db sqlx.ExtContext, ids []int) (map[int]Lesson, error) {
	m := make(map[int]Lesson, len(ids))
	if len(ids) == 0 {
		return m, nil
	}

	q, args, err := sqlx.In(`SELECT `+lessonColumns+` FROM lessons WHERE lesson_id IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	var lessons []Lesson
	if err := sqlx.SelectContext(ctx, db, &lessons, db.Rebind(q), args...); err != nil {
		return nil, err
	}
	for _, l := range lessons {
		m[l.ID] = l
	}
	return m, nil
}

func CreateSection(ctx context.Context, db sqlx.ExtContext, s Section) (Section, error) {
	const q = `
	INSERT INTO sections (title, description, course_id, sort_order)
	VALUES ($1, $2, $3, $4)
	RETURNING section_id`

	if err := db.QueryRowxContext(ctx, q, s.Title, s.Description, s.CourseID, s.Order).Scan(&s.ID); err != nil {
		return Section{}, database.Classify(err)
	}
	return s, nil
}

func CreateLesson(ctx context.Context, db sqlx.ExtContext, l Lesson) (Lesson, error) {
	const q = `
	INSERT INTO lessons (title, description, content, video_url, duration, is_free, section_id, course_id, sort_order)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING lesson_id`

	err := db.QueryRowxContext(ctx, q,
		l.Title, l.Description, l.Content, l.VideoURL, l.Duration, l.IsFree, l.SectionID, l.CourseID, l.Order,
	).Scan(&l.ID)
	if err != nil {
		return Lesson{}, database.Classify(err)
	}
	return l, nil
}

// DeleteCurriculum removes every lesson and section of a course.
func DeleteCurriculum(ctx context.Context, db sqlx.ExtContext, courseID int) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM lessons WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("deleting lessons: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM sections WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("deleting sections: %w", err)
	}
	return nil
}
