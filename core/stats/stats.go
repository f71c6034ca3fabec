// Package stats computes the admin dashboard figures: totals, month over
// month deltas and completed revenue per month.
package stats

import (
	"fmt"
	"math"
	"time"
)

type Stats struct {
	TotalUsers    int `json:"totalUsers"`
	TotalCourses  int `json:"totalCourses"`
	TotalOrders   int `json:"totalOrders"`
	Revenue       int `json:"revenue"`
	UsersChange   int `json:"usersChange"`
	CoursesChange int `json:"coursesChange"`
	OrdersChange  int `json:"ordersChange"`
	RevenueChange int `json:"revenueChange"`
}

// Counter holds an all-time total and the amounts of the current and the
// previous calendar month.
type Counter struct {
	Total    int `db:"total"`
	Current  int `db:"current"`
	Previous int `db:"previous"`
}

type MonthlyRevenue struct {
	Month   string `json:"month"`
	Revenue int    `json:"revenue"`
}

// Change is the percentage variation from previous to current. A previous
// value of zero reports 100.
func Change(current, previous int) int {
	if previous == 0 {
		return 100
	}
	return int(math.Round(float64(current-previous) / float64(previous) * 100))
}

func Compose(users, courses, orders, revenue Counter) Stats {
	return Stats{
		TotalUsers:    users.Total,
		TotalCourses:  courses.Total,
		TotalOrders:   orders.Total,
		Revenue:       revenue.Total,
		UsersChange:   Change(users.Current, users.Previous),
		CoursesChange: Change(courses.Current, courses.Previous),
		OrdersChange:  Change(orders.Current, orders.Previous),
		RevenueChange: Change(revenue.Current, revenue.Previous),
	}
}

// Period bounds the previous month, the current month and the next one in
// UTC, as consecutive instants [Previous, Current) and [Current, Next).
type Period struct {
	Previous time.Time
	Current  time.Time
	Next     time.Time
}

func PeriodAt(now time.Time) Period {
	now = now.UTC()
	cur := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Previous: cur.AddDate(0, -1, 0),
		Current:  cur,
		Next:     cur.AddDate(0, 1, 0),
	}
}

// Add counts amount for a record created at t.
func (c *Counter) Add(p Period, t time.Time, amount int) {
	c.Total += amount
	switch {
	case !t.Before(p.Current) && t.Before(p.Next):
		c.Current += amount
	case !t.Before(p.Previous) && t.Before(p.Current):
		c.Previous += amount
	}
}

// YearBounds returns [Jan 1 of year, Jan 1 of year+1) in UTC.
func YearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

// Year builds the twelve buckets T1..T12 from per-month sums keyed 1..12.
func Year(sums map[int]int) []MonthlyRevenue {
	out := make([]MonthlyRevenue, 12)
	for m := 1; m <= 12; m++ {
		out[m-1] = MonthlyRevenue{Month: fmt.Sprintf("T%d", m), Revenue: sums[m]}
	}
	return out
}
