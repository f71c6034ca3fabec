package database

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateUsername   = errors.New("username already taken")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrDuplicateSlug       = errors.New("slug already in use")
	ErrDuplicateEnrollment = errors.New("user already enrolled in course")
	ErrDuplicateReview     = errors.New("user already reviewed course")
	ErrNotPurchasable      = errors.New("course is not available for purchase")
	ErrOutOfRange          = errors.New("value out of range")
)

var conflicts = []error{
	ErrDuplicateUsername,
	ErrDuplicateEmail,
	ErrDuplicateSlug,
	ErrDuplicateEnrollment,
	ErrDuplicateReview,
}

// IsConflict reports whether err is one of the uniqueness violations.
func IsConflict(err error) bool {
	for _, c := range conflicts {
		if errors.Is(err, c) {
			return true
		}
	}
	return false
}

func constraintError(constraint string) error {
	switch constraint {
	case "users_username_key":
		return ErrDuplicateUsername
	case "users_email_key":
		return ErrDuplicateEmail
	case "categories_slug_key", "courses_slug_key":
		return ErrDuplicateSlug
	case "enrollments_user_course_key":
		return ErrDuplicateEnrollment
	case "reviews_user_course_key":
		return ErrDuplicateReview
	}
	return nil
}

const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
	checkViolation      = "23514"
)

// Classify turns a unique violation into the matching sentinel, a dangling
// reference into ErrNotFound and a failed check into ErrOutOfRange. Every
// other error is returned as is.
func Classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case uniqueViolation:
		if sentinel := constraintError(pqErr.Constraint); sentinel != nil {
			return fmt.Errorf("%w: %s", sentinel, pqErr.Detail)
		}
	case foreignKeyViolation:
		return fmt.Errorf("%w: %s", ErrNotFound, pqErr.Detail)
	case checkViolation:
		return fmt.Errorf("%w: %s", ErrOutOfRange, pqErr.Constraint)
	}
	return err
}

type Config struct {
	User         string `conf:"default:postgres"`
	Password     string `conf:"default:postgres,mask"`
	Host         string `conf:"default:localhost:5432"`
	Name         string `conf:"default:elearning"`
	DisableTLS   bool   `conf:"default:true"`
	MaxIdleConns int    `conf:"default:5"`
	MaxOpenConns int    `conf:"default:20"`
}

func Open(cfg Config) (*sqlx.DB, error) {
	sslMode := "require"
	if cfg.DisableTLS {
		sslMode = "disable"
	}

	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host,
		Path:     cfg.Name,
		RawQuery: q.Encode(),
	}

	db, err := sqlx.Open("postgres", u.String())
	if err != nil {
		return nil, err
	}
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// StatusCheck waits until the database answers or ctx expires.
func StatusCheck(ctx context.Context, db *sqlx.DB) error {
	var pingErr error
	for attempts := 1; ; attempts++ {
		pingErr = db.PingContext(ctx)
		if pingErr == nil {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready after %d attempts: %w", attempts, pingErr)
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}

	var ok bool
	return db.QueryRowContext(ctx, `SELECT true`).Scan(&ok)
}

func Transaction(ctx context.Context, db *sqlx.DB, fn func(sqlx.ExtContext) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("rolling back transaction (%v): %w", rerr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Where accumulates AND-ed predicates written with '?' placeholders.
type Where struct {
	conds []string
	args  []interface{}
}

func (w *Where) And(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// Search adds a case-insensitive substring match over any of the columns.
func (w *Where) Search(term string, columns ...string) {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return
	}

	pattern := "%" + escapeLike(term) + "%"
	ors := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, c := range columns {
		ors = append(ors, c+" ILIKE ?")
		args = append(args, pattern)
	}
	w.And("("+strings.Join(ors, " OR ")+")", args...)
}

func (w *Where) Clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (w *Where) Args() []interface{} {
	return w.args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// MaxLimit bounds the page size of every listing.
const MaxLimit = 100

// Paginate normalizes a 1-based page and its limit and returns them with the
// matching row offset. An offset past math.MaxInt saturates.
func Paginate(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit < 1:
		limit = 10
	case limit > MaxLimit:
		limit = MaxLimit
	}
	if page-1 > math.MaxInt/limit {
		return page, limit, math.MaxInt
	}
	return page, limit, (page - 1) * limit
}
