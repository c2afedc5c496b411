package app

import (
	"context"
	"fmt"

	"stayhub/internal/domain"
)

// AdminService backs the moderation screens. Mutations return the refreshed
// record so the client can swap it in without a second round trip.
type AdminService struct {
	users    domain.UserRepository
	props    domain.PropertyRepository
	bookings domain.BookingRepository
	cache    domain.Cache
	notify   *NotifyService
}

func NewAdminService(u domain.UserRepository, p domain.PropertyRepository, b domain.BookingRepository, c domain.Cache, n *NotifyService) *AdminService {
	return &AdminService{users: u, props: p, bookings: b, cache: c, notify: n}
}

func (s *AdminService) Overview(ctx context.Context) (domain.OverviewStats, error) {
	return s.bookings.AdminOverview(ctx)
}

func (s *AdminService) ListUsers(ctx context.Context, pg domain.PageQuery) ([]domain.User, error) {
	us, err := s.users.ListUsers(ctx, pg)
	if err != nil {
		return nil, err
	}
	for i := range us {
		us[i].PasswordHash = ""
		us[i].RefreshHash = nil
	}
	return us, nil
}

func (s *AdminService) SetUserActive(ctx context.Context, adminID, userID int64, active bool) (domain.User, error) {
	if adminID == userID && !active {
		return domain.User{}, fmt.Errorf("%w: cannot disable your own account", domain.ErrInvalid)
	}
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		return domain.User{}, err
	}
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	u.PasswordHash = ""
	u.RefreshHash = nil
	return u, nil
}

func (s *AdminService) ListPropertiesByStatus(ctx context.Context, status string, pg domain.PageQuery) ([]domain.Property, error) {
	switch status {
	case domain.PropertyPending, domain.PropertyApproved, domain.PropertySuspended:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalid, status)
	}
	return s.props.ListPropertiesByStatus(ctx, status, pg)
}

func (s *AdminService) ApproveProperty(ctx context.Context, id int64) (domain.Property, error) {
	return s.setPropertyStatus(ctx, id, domain.PropertyApproved)
}

func (s *AdminService) SuspendProperty(ctx context.Context, id int64) (domain.Property, error) {
	return s.setPropertyStatus(ctx, id, domain.PropertySuspended)
}

func (s *AdminService) setPropertyStatus(ctx context.Context, id int64, status string) (domain.Property, error) {
	if err := s.props.SetPropertyStatus(ctx, id, status); err != nil {
		return domain.Property{}, err
	}
	invalidateProperty(ctx, s.cache, id)
	p, err := s.props.GetProperty(ctx, id)
	if err != nil {
		return domain.Property{}, err
	}
	switch status {
	case domain.PropertyApproved:
		s.notify.ListingApproved(ctx, p)
	case domain.PropertySuspended:
		s.notify.ListingSuspended(ctx, p)
	}
	return p, nil
}

func (s *AdminService) ListBookings(ctx context.Context, status *string, pg domain.PageQuery) ([]domain.BookingView, error) {
	if status != nil && !knownBookingStatus(*status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalid, *status)
	}
	return s.bookings.ListBookingsByStatus(ctx, status, pg)
}
