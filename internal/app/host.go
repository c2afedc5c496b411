package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stayhub/internal/domain"
)

type PropertyInput struct {
	Title             string
	Description       string
	Type              string
	Address           domain.Address
	MaxGuests         int
	Bedrooms          int
	Bathrooms         int
	NightlyPriceCents int64
	CleaningFeeCents  int64
	Currency          string
	Amenities         []string
	Images            []string
}

type HostService struct {
	props    domain.PropertyRepository
	bookings domain.BookingRepository
	cache    domain.Cache
	trends   domain.TrendsClient
	notify   *NotifyService
	cacheTTL time.Duration
	log      zerolog.Logger
}

func NewHostService(p domain.PropertyRepository, b domain.BookingRepository, c domain.Cache, t domain.TrendsClient, n *NotifyService, ttl time.Duration, log zerolog.Logger) *HostService {
	return &HostService{props: p, bookings: b, cache: c, trends: t, notify: n, cacheTTL: ttl, log: log}
}

// CreateProperty registers a new listing. It stays pending until an admin
// approves it.
func (s *HostService) CreateProperty(ctx context.Context, hostID int64, in PropertyInput) (domain.Property, error) {
	p, err := propertyFromInput(in)
	if err != nil {
		return domain.Property{}, err
	}
	p.HostID = hostID
	p.Status = domain.PropertyPending

	id, err := s.props.CreateProperty(ctx, p)
	if err != nil {
		return domain.Property{}, err
	}
	p.ID = id
	s.notify.PropertyCreated(ctx, p)
	return p, nil
}

func (s *HostService) UpdateProperty(ctx context.Context, hostID, id int64, in PropertyInput) (domain.Property, error) {
	cur, err := s.props.GetProperty(ctx, id)
	if err != nil {
		return domain.Property{}, err
	}
	if cur.HostID != hostID {
		return domain.Property{}, fmt.Errorf("%w: not your listing", domain.ErrForbidden)
	}
	p, err := propertyFromInput(in)
	if err != nil {
		return domain.Property{}, err
	}
	p.ID = id
	p.HostID = hostID
	p.Status = cur.Status
	if err := s.props.UpdateProperty(ctx, p); err != nil {
		return domain.Property{}, err
	}
	invalidateProperty(ctx, s.cache, id)
	return s.props.GetProperty(ctx, id)
}

func (s *HostService) ListMine(ctx context.Context, hostID int64) ([]domain.Property, error) {
	return s.props.ListPropertiesByHost(ctx, hostID)
}

func (s *HostService) ListRequests(ctx context.Context, hostID int64, status *string, pg domain.PageQuery) ([]domain.BookingView, error) {
	if status != nil && !knownBookingStatus(*status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalid, *status)
	}
	return s.bookings.ListBookingsByHost(ctx, hostID, status, pg)
}

// Dashboard aggregates this month's numbers and, when the market data is
// reachable, the trend summary for the host's main city.
func (s *HostService) Dashboard(ctx context.Context, hostID int64) (domain.HostStats, error) {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	stats, err := s.bookings.HostStats(ctx, hostID, monthStart, monthEnd)
	if err != nil {
		return domain.HostStats{}, err
	}
	if stats.Properties > 0 {
		days := int64(monthEnd.Sub(monthStart).Hours() / 24)
		stats.Occupancy = float64(stats.OccupiedNights) / float64(stats.Properties*days)
	}
	if city := s.mainCity(ctx, hostID); city != "" {
		stats.Trends = s.citySummary(ctx, city)
	}
	return stats, nil
}

// mainCity is the city most of the host's listings sit in.
func (s *HostService) mainCity(ctx context.Context, hostID int64) string {
	ps, err := s.props.ListPropertiesByHost(ctx, hostID)
	if err != nil || len(ps) == 0 {
		return ""
	}
	counts := make(map[string]int, len(ps))
	best := ""
	for _, p := range ps {
		c := strings.ToLower(p.Address.City)
		if c == "" {
			continue
		}
		counts[c]++
		if best == "" || counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

// citySummary is cache-aside with a short lock so concurrent dashboards do
// not stampede the upstream. Missing data degrades to no trends block.
func (s *HostService) citySummary(ctx context.Context, city string) *domain.TrendsSummary {
	if s.trends == nil {
		return nil
	}
	key := "trends:" + city
	var ts domain.TrendsSummary
	if ok, _ := s.cache.Get(ctx, key, &ts); ok {
		return &ts
	}
	locked, _ := s.cache.SetNX(ctx, key+":lock", 1, 30*time.Second)
	if !locked {
		return nil
	}
	ts, err := s.trends.CitySummary(ctx, city)
	if err != nil {
		s.log.Warn().Err(err).Str("city", city).Msg("city summary")
		return nil
	}
	_ = s.cache.Set(ctx, key, ts, s.cacheTTL)
	return &ts
}

func propertyFromInput(in PropertyInput) (domain.Property, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Property{}, fmt.Errorf("%w: title is required", domain.ErrInvalid)
	}
	if !domain.ValidPropertyType(in.Type) {
		return domain.Property{}, fmt.Errorf("%w: unknown property type %q", domain.ErrInvalid, in.Type)
	}
	if strings.TrimSpace(in.Address.City) == "" || strings.TrimSpace(in.Address.Country) == "" {
		return domain.Property{}, fmt.Errorf("%w: city and country are required", domain.ErrInvalid)
	}
	if in.MaxGuests < 1 || in.MaxGuests > 32 {
		return domain.Property{}, fmt.Errorf("%w: max_guests must be between 1 and 32", domain.ErrInvalid)
	}
	if in.NightlyPriceCents <= 0 {
		return domain.Property{}, fmt.Errorf("%w: nightly_price_cents must be positive", domain.ErrInvalid)
	}
	if in.CleaningFeeCents < 0 {
		return domain.Property{}, fmt.Errorf("%w: cleaning_fee_cents cannot be negative", domain.ErrInvalid)
	}
	cur := strings.ToUpper(strings.TrimSpace(in.Currency))
	if cur == "" {
		cur = "USD"
	}
	if len(cur) != 3 {
		return domain.Property{}, fmt.Errorf("%w: currency must be a 3-letter code", domain.ErrInvalid)
	}
	return domain.Property{
		Title:             title,
		Description:       strings.TrimSpace(in.Description),
		Type:              in.Type,
		Address:           in.Address,
		MaxGuests:         in.MaxGuests,
		Bedrooms:          in.Bedrooms,
		Bathrooms:         in.Bathrooms,
		NightlyPriceCents: in.NightlyPriceCents,
		CleaningFeeCents:  in.CleaningFeeCents,
		Currency:          cur,
		Amenities:         in.Amenities,
		Images:            in.Images,
	}, nil
}

func knownBookingStatus(s string) bool {
	switch s {
	case domain.BookingPending, domain.BookingConfirmed, domain.BookingRejected,
		domain.BookingCancelled, domain.BookingCompleted, domain.BookingExpired:
		return true
	}
	return false
}
