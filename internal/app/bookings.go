package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stayhub/internal/domain"
)

type BookingService struct {
	bookings domain.BookingRepository
	props    domain.PropertyRepository
	notify   *NotifyService
	hold     time.Duration
}

func NewBookingService(b domain.BookingRepository, p domain.PropertyRepository, n *NotifyService, hold time.Duration) *BookingService {
	return &BookingService{bookings: b, props: p, notify: n, hold: hold}
}

// Quote prices a stay without reserving anything.
func (s *BookingService) Quote(ctx context.Context, propertyID int64, checkIn, checkOut string) (domain.Quote, error) {
	in, out, err := parseStayDates(checkIn, checkOut)
	if err != nil {
		return domain.Quote{}, err
	}
	p, err := s.props.GetProperty(ctx, propertyID)
	if err != nil {
		return domain.Quote{}, err
	}
	return quoteFor(p, in, out), nil
}

func (s *BookingService) Book(ctx context.Context, guestID, propertyID int64, checkIn, checkOut string, guests int) (domain.Booking, error) {
	in, out, err := parseStayDates(checkIn, checkOut)
	if err != nil {
		return domain.Booking{}, err
	}
	p, err := s.props.GetProperty(ctx, propertyID)
	if err != nil {
		return domain.Booking{}, err
	}
	if p.Status != domain.PropertyApproved {
		return domain.Booking{}, fmt.Errorf("%w: listing is not open for booking", domain.ErrUnavailable)
	}
	if p.HostID == guestID {
		return domain.Booking{}, fmt.Errorf("%w: hosts cannot book their own listing", domain.ErrForbidden)
	}
	if guests < 1 || guests > p.MaxGuests {
		return domain.Booking{}, fmt.Errorf("%w: listing sleeps between 1 and %d guests", domain.ErrInvalid, p.MaxGuests)
	}

	q := quoteFor(p, in, out)
	b := domain.Booking{
		Reference:     uuid.NewString(),
		PropertyID:    propertyID,
		GuestID:       guestID,
		CheckIn:       in,
		CheckOut:      out,
		Guests:        guests,
		NightlyCents:  q.NightlyCents,
		CleaningCents: q.CleaningCents,
		TotalCents:    q.TotalCents,
		Currency:      q.Currency,
		Status:        domain.BookingPending,
	}
	id, err := s.bookings.CreateBooking(ctx, b)
	if err != nil {
		return domain.Booking{}, err
	}
	b.ID = id

	// the host learns about the request right away; delivery failures only log
	s.notify.BookingCreated(ctx, b, p)
	return b, nil
}

// Confirm moves a pending request to confirmed. Only the host of the listing
// may do this, and only while the request is still pending.
func (s *BookingService) Confirm(ctx context.Context, hostID, bookingID int64) (domain.Booking, error) {
	b, p, err := s.loadForHost(ctx, hostID, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	ok, err := s.bookings.UpdateBookingStatus(ctx, bookingID, []string{domain.BookingPending}, domain.BookingConfirmed)
	if err != nil {
		return domain.Booking{}, err
	}
	if !ok {
		return domain.Booking{}, fmt.Errorf("%w: booking is no longer pending", domain.ErrConflict)
	}
	b, err = s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	s.notify.BookingConfirmed(ctx, b, p)
	return b, nil
}

func (s *BookingService) Reject(ctx context.Context, hostID, bookingID int64) (domain.Booking, error) {
	b, p, err := s.loadForHost(ctx, hostID, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	ok, err := s.bookings.UpdateBookingStatus(ctx, bookingID, []string{domain.BookingPending}, domain.BookingRejected)
	if err != nil {
		return domain.Booking{}, err
	}
	if !ok {
		return domain.Booking{}, fmt.Errorf("%w: booking is no longer pending", domain.ErrConflict)
	}
	b, err = s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	s.notify.BookingRejected(ctx, b, p)
	return b, nil
}

// Cancel lets the guest withdraw a pending or confirmed booking before the
// stay begins.
func (s *BookingService) Cancel(ctx context.Context, guestID, bookingID int64) (domain.Booking, error) {
	b, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if b.GuestID != guestID {
		return domain.Booking{}, fmt.Errorf("%w: not your booking", domain.ErrForbidden)
	}
	if !time.Now().UTC().Truncate(24 * time.Hour).Before(b.CheckIn) {
		return domain.Booking{}, fmt.Errorf("%w: the stay has already started", domain.ErrInvalid)
	}
	ok, err := s.bookings.UpdateBookingStatus(ctx, bookingID,
		[]string{domain.BookingPending, domain.BookingConfirmed}, domain.BookingCancelled)
	if err != nil {
		return domain.Booking{}, err
	}
	if !ok {
		return domain.Booking{}, fmt.Errorf("%w: booking cannot be cancelled anymore", domain.ErrConflict)
	}
	b, err = s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	p, perr := s.props.GetProperty(ctx, b.PropertyID)
	if perr == nil {
		s.notify.BookingCancelled(ctx, b, p)
	}
	return b, nil
}

func (s *BookingService) ListForGuest(ctx context.Context, guestID int64, pg domain.PageQuery) ([]domain.BookingView, error) {
	return s.bookings.ListBookingsByGuest(ctx, guestID, pg)
}

// GetForUser returns the booking when the caller is its guest, the host of
// the listing, or an admin.
func (s *BookingService) GetForUser(ctx context.Context, u domain.User, bookingID int64) (domain.Booking, error) {
	b, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if b.GuestID == u.ID || u.Role == domain.RoleAdmin {
		return b, nil
	}
	p, err := s.props.GetProperty(ctx, b.PropertyID)
	if err == nil && p.HostID == u.ID {
		return b, nil
	}
	return domain.Booking{}, fmt.Errorf("%w: not your booking", domain.ErrForbidden)
}

// Sweep expires stale pending requests and completes finished stays. It
// returns how many rows each pass touched so the caller can record them.
func (s *BookingService) Sweep(ctx context.Context) (expired, completed int64, err error) {
	expired, err = s.bookings.ExpirePending(ctx, time.Now().UTC().Add(-s.hold))
	if err != nil {
		return 0, 0, err
	}
	completed, err = s.bookings.CompleteFinished(ctx, time.Now().UTC())
	if err != nil {
		return expired, 0, err
	}
	return expired, completed, nil
}

func (s *BookingService) loadForHost(ctx context.Context, hostID, bookingID int64) (domain.Booking, domain.Property, error) {
	b, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, domain.Property{}, err
	}
	p, err := s.props.GetProperty(ctx, b.PropertyID)
	if err != nil {
		return domain.Booking{}, domain.Property{}, err
	}
	if p.HostID != hostID {
		return domain.Booking{}, domain.Property{}, fmt.Errorf("%w: not your listing", domain.ErrForbidden)
	}
	return b, p, nil
}

func quoteFor(p domain.Property, in, out time.Time) domain.Quote {
	nights := int(out.Sub(in).Hours() / 24)
	return domain.Quote{
		Nights:        nights,
		NightlyCents:  p.NightlyPriceCents,
		CleaningCents: p.CleaningFeeCents,
		TotalCents:    int64(nights)*p.NightlyPriceCents + p.CleaningFeeCents,
		Currency:      p.Currency,
	}
}

func parseStayDates(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := time.Parse("2006-01-02", checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: check_in must look like 2026-09-10", domain.ErrInvalid)
	}
	out, err := time.Parse("2006-01-02", checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: check_out must look like 2026-09-14", domain.ErrInvalid)
	}
	if !out.After(in) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: check_out must be after check_in", domain.ErrInvalid)
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if in.Before(today) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: check_in is in the past", domain.ErrInvalid)
	}
	return in, out, nil
}
