package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"stayhub/internal/domain"
)

// Event subjects published on the bus.
const (
	SubjectBookingCreated   = "booking.created"
	SubjectBookingConfirmed = "booking.confirmed"
	SubjectBookingRejected  = "booking.rejected"
	SubjectBookingCancelled = "booking.cancelled"
	SubjectPropertyCreated  = "property.created"
)

// NotifyService fans a domain event out to the inbox, mail, push, and the
// event bus. Every delivery is best effort: a failed channel logs and the
// request that triggered it still succeeds.
type NotifyService struct {
	inbox  domain.NotificationRepository
	users  domain.UserRepository
	mailer domain.Mailer
	pusher domain.Pusher
	events domain.EventPublisher
	log    zerolog.Logger
}

func NewNotifyService(inbox domain.NotificationRepository, users domain.UserRepository, m domain.Mailer, p domain.Pusher, ev domain.EventPublisher, log zerolog.Logger) *NotifyService {
	return &NotifyService{inbox: inbox, users: users, mailer: m, pusher: p, events: ev, log: log}
}

func (s *NotifyService) BookingCreated(ctx context.Context, b domain.Booking, p domain.Property) {
	title := "New booking request"
	body := fmt.Sprintf("%s, %s to %s, %d guest(s)",
		p.Title, b.CheckIn.Format("2006-01-02"), b.CheckOut.Format("2006-01-02"), b.Guests)
	s.deliver(ctx, p.HostID, domain.NotifyBookingCreated, title, body)
	s.publish(ctx, SubjectBookingCreated, b)
}

func (s *NotifyService) BookingConfirmed(ctx context.Context, b domain.Booking, p domain.Property) {
	title := "Booking confirmed"
	body := fmt.Sprintf("Your stay at %s from %s is confirmed.", p.Title, b.CheckIn.Format("2006-01-02"))
	s.deliver(ctx, b.GuestID, domain.NotifyBookingConfirmed, title, body)
	s.publish(ctx, SubjectBookingConfirmed, b)
}

func (s *NotifyService) BookingRejected(ctx context.Context, b domain.Booking, p domain.Property) {
	title := "Booking declined"
	body := fmt.Sprintf("The host could not accommodate your stay at %s.", p.Title)
	s.deliver(ctx, b.GuestID, domain.NotifyBookingRejected, title, body)
	s.publish(ctx, SubjectBookingRejected, b)
}

func (s *NotifyService) BookingCancelled(ctx context.Context, b domain.Booking, p domain.Property) {
	title := "Booking cancelled"
	body := fmt.Sprintf("The guest cancelled the stay at %s from %s.", p.Title, b.CheckIn.Format("2006-01-02"))
	s.deliver(ctx, p.HostID, domain.NotifyBookingCancelled, title, body)
	s.publish(ctx, SubjectBookingCancelled, b)
}

func (s *NotifyService) ListingApproved(ctx context.Context, p domain.Property) {
	s.deliver(ctx, p.HostID, domain.NotifyListingApproved, "Listing approved",
		fmt.Sprintf("%q is now visible to guests.", p.Title))
}

func (s *NotifyService) ListingSuspended(ctx context.Context, p domain.Property) {
	s.deliver(ctx, p.HostID, domain.NotifyListingSuspended, "Listing suspended",
		fmt.Sprintf("%q was taken off the marketplace.", p.Title))
}

func (s *NotifyService) PropertyCreated(ctx context.Context, p domain.Property) {
	s.publish(ctx, SubjectPropertyCreated, p)
}

// deliver writes the inbox row and then tries mail and push for it.
func (s *NotifyService) deliver(ctx context.Context, userID int64, kind, title, body string) {
	n := domain.Notification{UserID: userID, Kind: kind, Title: title, Body: body}
	if _, err := s.inbox.AddNotification(ctx, n); err != nil {
		s.log.Error().Err(err).Int64("user_id", userID).Str("kind", kind).Msg("store notification")
	}

	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", userID).Str("kind", kind).Msg("load recipient")
		return
	}
	if s.mailer != nil {
		if err := s.mailer.Send(ctx, u.Email, title, body); err != nil {
			s.log.Warn().Err(err).Int64("user_id", userID).Str("kind", kind).Msg("mail notification")
		}
	}
	if s.pusher != nil && u.PushToken != nil {
		if err := s.pusher.Push(ctx, *u.PushToken, title, body, map[string]any{"kind": kind}); err != nil {
			s.log.Warn().Err(err).Int64("user_id", userID).Str("kind", kind).Msg("push notification")
		}
	}
}

func (s *NotifyService) publish(ctx context.Context, subject string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, subject, payload); err != nil {
		s.log.Warn().Err(err).Str("subject", subject).Msg("publish event")
	}
}

func (s *NotifyService) ListInbox(ctx context.Context, userID int64, pg domain.PageQuery) ([]domain.Notification, error) {
	return s.inbox.ListNotifications(ctx, userID, pg)
}

func (s *NotifyService) MarkRead(ctx context.Context, userID, id int64) error {
	return s.inbox.MarkNotificationRead(ctx, userID, id)
}
