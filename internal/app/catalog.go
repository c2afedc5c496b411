package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stayhub/internal/domain"
)

type CatalogService struct {
	props    domain.PropertyRepository
	reviews  domain.ReviewRepository
	bookings domain.BookingRepository
	favs     domain.FavoriteRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewCatalogService(p domain.PropertyRepository, rv domain.ReviewRepository, b domain.BookingRepository, f domain.FavoriteRepository, c domain.Cache, ttl time.Duration) *CatalogService {
	return &CatalogService{props: p, reviews: rv, bookings: b, favs: f, cache: c, cacheTTL: ttl}
}

// ListProperties narrows by the structured filters in SQL, then applies the
// free-text and amenity predicates over the fetched page.
func (s *CatalogService) ListProperties(ctx context.Context, q domain.PropertiesQuery) (domain.PropertiesPage, error) {
	page, err := s.props.ListProperties(ctx, q)
	if err != nil {
		return domain.PropertiesPage{}, err
	}
	if q.Q == nil && q.Amenity == nil {
		return page, nil
	}

	filtered := make([]domain.Property, 0, len(page.Items))
	for _, p := range page.Items {
		if q.Q != nil && !matchesQuery(p, *q.Q) {
			continue
		}
		if q.Amenity != nil && !hasAmenity(p, *q.Amenity) {
			continue
		}
		filtered = append(filtered, p)
	}
	page.Items = filtered
	return page, nil
}

func (s *CatalogService) GetProperty(ctx context.Context, id int64) (domain.Property, error) {
	key := propertyKey(id)
	var p domain.Property
	if ok, _ := s.cache.Get(ctx, key, &p); ok {
		return p, nil
	}
	p, err := s.props.GetProperty(ctx, id)
	if err != nil {
		return domain.Property{}, err
	}
	_ = s.cache.Set(ctx, key, p, s.cacheTTL)
	return p, nil
}

func (s *CatalogService) ListReviews(ctx context.Context, propertyID int64, pg domain.PageQuery) (domain.ReviewsPage, error) {
	key := reviewsKey(propertyID, pg.Limit, pg.Sort)
	var out domain.ReviewsPage
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	rs, err := s.reviews.ListReviews(ctx, propertyID, pg)
	if err != nil {
		return domain.ReviewsPage{}, err
	}

	// copy slice to avoid aliasing the repo's backing array (prevents callers from mutating cached value)
	copyRS := deepCopyReviewsPage(rs)

	// optional size guard
	if b, _ := json.Marshal(copyRS); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, copyRS, s.cacheTTL)
	}
	return copyRS, nil
}

// Calendar reports, for every day of the month, whether some active booking
// covers it (check_in <= day < check_out).
func (s *CatalogService) Calendar(ctx context.Context, propertyID int64, month string) ([]domain.CalendarDay, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, fmt.Errorf("%w: month must look like 2026-09", domain.ErrInvalid)
	}
	end := start.AddDate(0, 1, 0)

	if _, err := s.GetProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	bookings, err := s.bookings.ListBookingsInRange(ctx, propertyID, start, end)
	if err != nil {
		return nil, err
	}

	days := make([]domain.CalendarDay, 0, 31)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		booked := false
		for _, b := range bookings {
			if !d.Before(b.CheckIn) && d.Before(b.CheckOut) {
				booked = true
				break
			}
		}
		days = append(days, domain.CalendarDay{Date: d.Format("2006-01-02"), Booked: booked})
	}
	return days, nil
}

func (s *CatalogService) AddReview(ctx context.Context, userID int64, userName string, propertyID int64, rating float64, comment string) (domain.Review, error) {
	if rating < 1 || rating > 5 {
		return domain.Review{}, fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrInvalid)
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > 2000 {
		return domain.Review{}, fmt.Errorf("%w: comment too long", domain.ErrInvalid)
	}

	if _, err := s.props.GetProperty(ctx, propertyID); err != nil {
		return domain.Review{}, err
	}
	stayed, err := s.bookings.HasCompletedStay(ctx, userID, propertyID)
	if err != nil {
		return domain.Review{}, err
	}
	if !stayed {
		return domain.Review{}, fmt.Errorf("%w: only guests with a completed stay can review", domain.ErrForbidden)
	}

	rv := domain.Review{
		PropertyID: propertyID,
		UserID:     &userID,
		Author:     &userName,
		Rating:     rating,
	}
	if comment != "" {
		rv.Comment = &comment
	}
	id, err := s.reviews.AddReview(ctx, rv)
	if err != nil {
		return domain.Review{}, err
	}
	rv.ID = id

	invalidateReviews(ctx, s.cache, propertyID)
	invalidateProperty(ctx, s.cache, propertyID) // rating summary changed
	return rv, nil
}

func (s *CatalogService) AddFavorite(ctx context.Context, userID, propertyID int64) error {
	if _, err := s.props.GetProperty(ctx, propertyID); err != nil {
		return err
	}
	return s.favs.AddFavorite(ctx, userID, propertyID)
}

func (s *CatalogService) RemoveFavorite(ctx context.Context, userID, propertyID int64) error {
	return s.favs.RemoveFavorite(ctx, userID, propertyID)
}

func (s *CatalogService) ListFavorites(ctx context.Context, userID int64) ([]domain.Property, error) {
	return s.favs.ListFavorites(ctx, userID)
}

// linear predicates over the fetched page

func matchesQuery(p domain.Property, q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Description), q) ||
		strings.Contains(strings.ToLower(p.Address.City), q) ||
		strings.Contains(strings.ToLower(p.Address.Country), q)
}

func hasAmenity(p domain.Property, want string) bool {
	for _, a := range p.Amenities {
		if strings.EqualFold(a, want) {
			return true
		}
	}
	return false
}

func deepCopyReviewsPage(in domain.ReviewsPage) domain.ReviewsPage {
	out := domain.ReviewsPage{NextCursor: in.NextCursor}
	if n := len(in.Items); n > 0 {
		out.Items = make([]domain.Review, n)
		copy(out.Items, in.Items)
	}
	return out
}

// cache keys shared by the services that invalidate them

func propertyKey(id int64) string { return fmt.Sprintf("property:%d", id) }

func reviewsKey(id int64, limit int, sort string) string {
	return fmt.Sprintf("reviews:%d:%d:%s", id, limit, sort)
}

func invalidateProperty(ctx context.Context, c domain.Cache, id int64) {
	if c == nil {
		return
	}
	_ = c.Del(ctx, propertyKey(id))
}

// invalidate the most common review cache variants
func invalidateReviews(ctx context.Context, c domain.Cache, id int64) {
	if c == nil {
		return
	}
	// the API default is limit=50, sort=-created_at; clear a few common limits too
	for _, lim := range []int{50, 100, 200} {
		_ = c.Del(ctx, reviewsKey(id, lim, "-created_at"))
	}
}
