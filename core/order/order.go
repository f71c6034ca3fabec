package order

import (
	"time"

	"github.com/irsalhamdi/e-learning/core/course"
	"github.com/irsalhamdi/e-learning/core/user"
)

type Status string

const (
	Pending   Status = "pending"
	Completed Status = "completed"
	Cancelled Status = "cancelled"
)

// Order is the financial record of a course purchase. Reference is the
// public order number.
type Order struct {
	ID        int       `json:"id" db:"order_id"`
	Reference string    `json:"reference" db:"reference"`
	UserID    int       `json:"userId" db:"user_id"`
	CourseID  int       `json:"courseId" db:"course_id"`
	Amount    int       `json:"amount" db:"amount"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type OrderNew struct {
	UserID   int    `json:"userId" validate:"required,gt=0"`
	CourseID int    `json:"courseId" validate:"required,gt=0"`
	Amount   int    `json:"amount" validate:"gte=0"`
	Status   Status `json:"status" validate:"omitempty,oneof=pending completed cancelled"`
}

// New builds the order stored for no. Orders without a status are pending.
func New(no OrderNew, reference string, now time.Time) Order {
	status := no.Status
	if status == "" {
		status = Pending
	}
	return Order{
		Reference: reference,
		UserID:    no.UserID,
		CourseID:  no.CourseID,
		Amount:    no.Amount,
		Status:    status,
		CreatedAt: now,
	}
}

type WithCourse struct {
	Order
	Course course.Course `json:"course"`
}

type Detail struct {
	Order
	User   user.User     `json:"user"`
	Course course.Course `json:"course"`
}

const RecentLimit = 10
