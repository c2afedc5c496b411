package domain

import "time"

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingRejected  = "rejected"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"
	BookingExpired   = "expired"
)

// Booking covers a date range with an exclusive check-out day: a stay from
// the 10th to the 12th occupies the nights of the 10th and the 11th.
type Booking struct {
	ID            int64
	Reference     string // uuid handed to the guest
	PropertyID    int64
	GuestID       int64
	CheckIn       time.Time
	CheckOut      time.Time
	Guests        int
	NightlyCents  int64
	CleaningCents int64
	TotalCents    int64
	Currency      string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (b Booking) Nights() int {
	return int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
}

// BookingView joins the fields list screens need.
type BookingView struct {
	Booking
	PropertyTitle string
	PropertyCity  string
	GuestName     string
}

type Quote struct {
	Nights        int
	NightlyCents  int64
	CleaningCents int64
	TotalCents    int64
	Currency      string
}

// HostStats backs the host dashboard.
type HostStats struct {
	Properties     int64
	Pending        int64
	Confirmed      int64
	Completed      int64
	RevenueCents   int64
	OccupiedNights int64
	Occupancy      float64
	Trends         *TrendsSummary
}

// OverviewStats backs the admin overview.
type OverviewStats struct {
	TotalUsers        int64
	ActiveUsers       int64
	TotalProperties   int64
	PendingProperties int64
	TotalBookings     int64
	PendingBookings   int64
	ConfirmedBookings int64
	RevenueCents      int64
	RecentBookings    []BookingView
}
