package domain

import (
	"context"
	"time"
)

type UserRepository interface {
	CreateUser(ctx context.Context, u User) (int64, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context, pg PageQuery) ([]User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	SetActive(ctx context.Context, id int64, active bool) error
	SetPushToken(ctx context.Context, id int64, token string) error
	SetRefreshHash(ctx context.Context, id int64, hash *string) error
	SetLastLogout(ctx context.Context, id int64, at time.Time) error

	UpsertPasswordReset(ctx context.Context, pr PasswordReset) error
	GetPasswordReset(ctx context.Context, userID int64) (PasswordReset, error)
	MarkPasswordResetVerified(ctx context.Context, userID int64, at time.Time) error
	DeletePasswordReset(ctx context.Context, userID int64) error
}

type PropertyRepository interface {
	CreateProperty(ctx context.Context, p Property) (int64, error)
	UpsertProperty(ctx context.Context, p Property) (int64, error) // keyed by source_id
	UpdateProperty(ctx context.Context, p Property) error
	SetPropertyStatus(ctx context.Context, id int64, status string) error
	GetProperty(ctx context.Context, id int64) (Property, error)
	ListProperties(ctx context.Context, q PropertiesQuery) (PropertiesPage, error)
	ListPropertiesByHost(ctx context.Context, hostID int64) ([]Property, error)
	ListPropertiesByStatus(ctx context.Context, status string, pg PageQuery) ([]Property, error)
}

type BookingRepository interface {
	// CreateBooking performs the overlap check and the insert in one
	// transaction; an overlapping active booking yields ErrConflict.
	CreateBooking(ctx context.Context, b Booking) (int64, error)
	GetBooking(ctx context.Context, id int64) (Booking, error)
	// UpdateBookingStatus flips status only when the current one is in from;
	// returns false when the row was in another state.
	UpdateBookingStatus(ctx context.Context, id int64, from []string, to string) (bool, error)
	ListBookingsByGuest(ctx context.Context, guestID int64, pg PageQuery) ([]BookingView, error)
	ListBookingsByHost(ctx context.Context, hostID int64, status *string, pg PageQuery) ([]BookingView, error)
	ListBookingsByStatus(ctx context.Context, status *string, pg PageQuery) ([]BookingView, error)
	ListBookingsInRange(ctx context.Context, propertyID int64, from, to time.Time) ([]Booking, error)
	HasCompletedStay(ctx context.Context, guestID, propertyID int64) (bool, error)
	ExpirePending(ctx context.Context, olderThan time.Time) (int64, error)
	CompleteFinished(ctx context.Context, now time.Time) (int64, error)
	HostStats(ctx context.Context, hostID int64, monthStart, monthEnd time.Time) (HostStats, error)
	AdminOverview(ctx context.Context) (OverviewStats, error)
}

type ReviewRepository interface {
	AddReview(ctx context.Context, rv Review) (int64, error)
	UpsertReviews(ctx context.Context, rs []Review) error // keyed by source_id
	ListReviews(ctx context.Context, propertyID int64, pg PageQuery) (ReviewsPage, error)
}

type NotificationRepository interface {
	AddNotification(ctx context.Context, n Notification) (int64, error)
	ListNotifications(ctx context.Context, userID int64, pg PageQuery) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id int64) error
}

type FavoriteRepository interface {
	AddFavorite(ctx context.Context, userID, propertyID int64) error
	RemoveFavorite(ctx context.Context, userID, propertyID int64) error
	ListFavorites(ctx context.Context, userID int64) ([]Property, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	// SetNX stores the value only when the key is absent; used as a short
	// lived lock around upstream fetches.
	SetNX(ctx context.Context, key string, v any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

type TrendsClient interface {
	CitySummary(ctx context.Context, city string) (TrendsSummary, error)
}

type Mailer interface {
	SendOTP(ctx context.Context, to, name, otp string) error
	Send(ctx context.Context, to, subject, body string) error
}

type Pusher interface {
	Push(ctx context.Context, token, title, body string, data map[string]any) error
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}
