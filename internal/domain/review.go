package domain

import "time"

type Review struct {
	ID         int64
	PropertyID int64
	UserID     *int64  // nil for reviews imported from external sources
	SourceID   *string
	Author     *string
	Rating     float64 // 1..5
	Comment    *string
	CreatedAt  time.Time
	RawJSON    []byte // original payload for seeded reviews
}

type ReviewsPage struct {
	Items      []Review
	NextCursor *string
}
