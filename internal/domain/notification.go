package domain

import "time"

const (
	NotifyBookingCreated   = "booking_created"
	NotifyBookingConfirmed = "booking_confirmed"
	NotifyBookingRejected  = "booking_rejected"
	NotifyBookingCancelled = "booking_cancelled"
	NotifyListingApproved  = "listing_approved"
	NotifyListingSuspended = "listing_suspended"
)

type Notification struct {
	ID        int64
	UserID    int64
	Kind      string
	Title     string
	Body      string
	ReadAt    *time.Time
	CreatedAt time.Time
}
