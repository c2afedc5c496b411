package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"stayhub/internal/app"
	"stayhub/internal/domain"
)

// ---- fakes ----

// memStore backs every repository port with maps. Aggregate queries return
// canned values set by the test.
type memStore struct {
	users    map[int64]domain.User
	resets   map[int64]domain.PasswordReset
	props    map[int64]domain.Property
	bookings map[int64]domain.Booking
	reviews  []domain.Review
	notes    []domain.Notification
	favs     map[int64][]int64
	nextID   int64

	hostStats domain.HostStats
	overview  domain.OverviewStats
}

var (
	_ domain.UserRepository         = (*memStore)(nil)
	_ domain.PropertyRepository     = (*memStore)(nil)
	_ domain.BookingRepository      = (*memStore)(nil)
	_ domain.ReviewRepository       = (*memStore)(nil)
	_ domain.NotificationRepository = (*memStore)(nil)
	_ domain.FavoriteRepository     = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		users:    map[int64]domain.User{},
		resets:   map[int64]domain.PasswordReset{},
		props:    map[int64]domain.Property{},
		bookings: map[int64]domain.Booking{},
		favs:     map[int64][]int64{},
	}
}

func (m *memStore) id() int64 { m.nextID++; return m.nextID }

// users

func (m *memStore) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	for _, ex := range m.users {
		if ex.Email == u.Email {
			return 0, fmt.Errorf("%w: duplicate email", domain.ErrConflict)
		}
	}
	u.ID = m.id()
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return u.ID, nil
}

func (m *memStore) GetUser(ctx context.Context, id int64) (domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m *memStore) ListUsers(ctx context.Context, pg domain.PageQuery) ([]domain.User, error) {
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdatePassword(ctx context.Context, id int64, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = hash
	m.users[id] = u
	return nil
}

func (m *memStore) SetActive(ctx context.Context, id int64, active bool) error {
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Active = active
	m.users[id] = u
	return nil
}

func (m *memStore) SetPushToken(ctx context.Context, id int64, token string) error {
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PushToken = &token
	m.users[id] = u
	return nil
}

func (m *memStore) SetRefreshHash(ctx context.Context, id int64, hash *string) error {
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.RefreshHash = hash
	m.users[id] = u
	return nil
}

func (m *memStore) SetLastLogout(ctx context.Context, id int64, at time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.LastLogoutAt = &at
	m.users[id] = u
	return nil
}

func (m *memStore) UpsertPasswordReset(ctx context.Context, pr domain.PasswordReset) error {
	pr.VerifiedAt = nil
	m.resets[pr.UserID] = pr
	return nil
}

func (m *memStore) GetPasswordReset(ctx context.Context, userID int64) (domain.PasswordReset, error) {
	pr, ok := m.resets[userID]
	if !ok {
		return domain.PasswordReset{}, domain.ErrNotFound
	}
	return pr, nil
}

func (m *memStore) MarkPasswordResetVerified(ctx context.Context, userID int64, at time.Time) error {
	pr, ok := m.resets[userID]
	if !ok {
		return domain.ErrNotFound
	}
	pr.VerifiedAt = &at
	m.resets[userID] = pr
	return nil
}

func (m *memStore) DeletePasswordReset(ctx context.Context, userID int64) error {
	delete(m.resets, userID)
	return nil
}

// properties

func (m *memStore) CreateProperty(ctx context.Context, p domain.Property) (int64, error) {
	p.ID = m.id()
	p.CreatedAt = time.Now()
	m.props[p.ID] = p
	return p.ID, nil
}

func (m *memStore) UpsertProperty(ctx context.Context, p domain.Property) (int64, error) {
	if p.SourceID != nil {
		for id, ex := range m.props {
			if ex.SourceID != nil && *ex.SourceID == *p.SourceID {
				p.ID = id
				m.props[id] = p
				return id, nil
			}
		}
	}
	return m.CreateProperty(ctx, p)
}

func (m *memStore) UpdateProperty(ctx context.Context, p domain.Property) error {
	if _, ok := m.props[p.ID]; !ok {
		return domain.ErrNotFound
	}
	m.props[p.ID] = p
	return nil
}

func (m *memStore) SetPropertyStatus(ctx context.Context, id int64, status string) error {
	p, ok := m.props[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	m.props[id] = p
	return nil
}

func (m *memStore) GetProperty(ctx context.Context, id int64) (domain.Property, error) {
	p, ok := m.props[id]
	if !ok {
		return domain.Property{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *memStore) ListProperties(ctx context.Context, q domain.PropertiesQuery) (domain.PropertiesPage, error) {
	var out []domain.Property
	for _, p := range m.props {
		if p.Status != domain.PropertyApproved {
			continue
		}
		if q.City != nil && p.Address.City != *q.City {
			continue
		}
		if q.Type != nil && p.Type != *q.Type {
			continue
		}
		if q.Guests != nil && p.MaxGuests < *q.Guests {
			continue
		}
		if q.MinCents != nil && p.NightlyPriceCents < *q.MinCents {
			continue
		}
		if q.MaxCents != nil && p.NightlyPriceCents > *q.MaxCents {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return domain.PropertiesPage{Items: out}, nil
}

func (m *memStore) ListPropertiesByHost(ctx context.Context, hostID int64) ([]domain.Property, error) {
	var out []domain.Property
	for _, p := range m.props {
		if p.HostID == hostID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListPropertiesByStatus(ctx context.Context, status string, pg domain.PageQuery) ([]domain.Property, error) {
	var out []domain.Property
	for _, p := range m.props {
		if p.Status == status {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// bookings

func (m *memStore) CreateBooking(ctx context.Context, b domain.Booking) (int64, error) {
	p, ok := m.props[b.PropertyID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if p.Status != domain.PropertyApproved {
		return 0, fmt.Errorf("%w: listing not open", domain.ErrUnavailable)
	}
	for _, ex := range m.bookings {
		if ex.PropertyID != b.PropertyID {
			continue
		}
		if ex.Status != domain.BookingPending && ex.Status != domain.BookingConfirmed {
			continue
		}
		if ex.CheckIn.Before(b.CheckOut) && ex.CheckOut.After(b.CheckIn) {
			return 0, fmt.Errorf("%w: dates taken", domain.ErrConflict)
		}
	}
	b.ID = m.id()
	b.CreatedAt = time.Now()
	m.bookings[b.ID] = b
	return b.ID, nil
}

func (m *memStore) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (m *memStore) UpdateBookingStatus(ctx context.Context, id int64, from []string, to string) (bool, error) {
	b, ok := m.bookings[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if b.Status == f {
			b.Status = to
			b.UpdatedAt = time.Now()
			m.bookings[id] = b
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) view(b domain.Booking) domain.BookingView {
	v := domain.BookingView{Booking: b}
	if p, ok := m.props[b.PropertyID]; ok {
		v.PropertyTitle = p.Title
		v.PropertyCity = p.Address.City
	}
	if u, ok := m.users[b.GuestID]; ok {
		v.GuestName = u.Name
	}
	return v
}

func (m *memStore) ListBookingsByGuest(ctx context.Context, guestID int64, pg domain.PageQuery) ([]domain.BookingView, error) {
	var out []domain.BookingView
	for _, b := range m.bookings {
		if b.GuestID == guestID {
			out = append(out, m.view(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListBookingsByHost(ctx context.Context, hostID int64, status *string, pg domain.PageQuery) ([]domain.BookingView, error) {
	var out []domain.BookingView
	for _, b := range m.bookings {
		p, ok := m.props[b.PropertyID]
		if !ok || p.HostID != hostID {
			continue
		}
		if status != nil && b.Status != *status {
			continue
		}
		out = append(out, m.view(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListBookingsByStatus(ctx context.Context, status *string, pg domain.PageQuery) ([]domain.BookingView, error) {
	var out []domain.BookingView
	for _, b := range m.bookings {
		if status != nil && b.Status != *status {
			continue
		}
		out = append(out, m.view(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListBookingsInRange(ctx context.Context, propertyID int64, from, to time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.PropertyID != propertyID {
			continue
		}
		if b.Status != domain.BookingPending && b.Status != domain.BookingConfirmed {
			continue
		}
		if b.CheckIn.Before(to) && b.CheckOut.After(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) HasCompletedStay(ctx context.Context, guestID, propertyID int64) (bool, error) {
	for _, b := range m.bookings {
		if b.GuestID == guestID && b.PropertyID == propertyID && b.Status == domain.BookingCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ExpirePending(ctx context.Context, olderThan time.Time) (int64, error) {
	var n int64
	for id, b := range m.bookings {
		if b.Status == domain.BookingPending && b.CreatedAt.Before(olderThan) {
			b.Status = domain.BookingExpired
			m.bookings[id] = b
			n++
		}
	}
	return n, nil
}

func (m *memStore) CompleteFinished(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for id, b := range m.bookings {
		if b.Status == domain.BookingConfirmed && !b.CheckOut.After(now) {
			b.Status = domain.BookingCompleted
			m.bookings[id] = b
			n++
		}
	}
	return n, nil
}

func (m *memStore) HostStats(ctx context.Context, hostID int64, monthStart, monthEnd time.Time) (domain.HostStats, error) {
	return m.hostStats, nil
}

func (m *memStore) AdminOverview(ctx context.Context) (domain.OverviewStats, error) {
	return m.overview, nil
}

// reviews

func (m *memStore) AddReview(ctx context.Context, rv domain.Review) (int64, error) {
	rv.ID = m.id()
	rv.CreatedAt = time.Now()
	m.reviews = append(m.reviews, rv)
	return rv.ID, nil
}

func (m *memStore) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	for _, rv := range rs {
		replaced := false
		if rv.SourceID != nil {
			for i, ex := range m.reviews {
				if ex.SourceID != nil && *ex.SourceID == *rv.SourceID {
					rv.ID = ex.ID
					m.reviews[i] = rv
					replaced = true
					break
				}
			}
		}
		if !replaced {
			rv.ID = m.id()
			m.reviews = append(m.reviews, rv)
		}
	}
	return nil
}

func (m *memStore) ListReviews(ctx context.Context, propertyID int64, pg domain.PageQuery) (domain.ReviewsPage, error) {
	var out []domain.Review
	for _, rv := range m.reviews {
		if rv.PropertyID == propertyID {
			out = append(out, rv)
		}
	}
	return domain.ReviewsPage{Items: out}, nil
}

// notifications + favorites

func (m *memStore) AddNotification(ctx context.Context, n domain.Notification) (int64, error) {
	n.ID = m.id()
	n.CreatedAt = time.Now()
	m.notes = append(m.notes, n)
	return n.ID, nil
}

func (m *memStore) ListNotifications(ctx context.Context, userID int64, pg domain.PageQuery) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range m.notes {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	for i, n := range m.notes {
		if n.ID == id && n.UserID == userID {
			if n.ReadAt == nil {
				now := time.Now()
				m.notes[i].ReadAt = &now
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memStore) AddFavorite(ctx context.Context, userID, propertyID int64) error {
	for _, id := range m.favs[userID] {
		if id == propertyID {
			return nil
		}
	}
	m.favs[userID] = append(m.favs[userID], propertyID)
	return nil
}

func (m *memStore) RemoveFavorite(ctx context.Context, userID, propertyID int64) error {
	ids := m.favs[userID]
	for i, id := range ids {
		if id == propertyID {
			m.favs[userID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memStore) ListFavorites(ctx context.Context, userID int64) ([]domain.Property, error) {
	var out []domain.Property
	for _, id := range m.favs[userID] {
		if p, ok := m.props[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeCache round-trips through JSON like the real adapter.
type fakeCache struct {
	store map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) SetNX(ctx context.Context, key string, v any, ttl time.Duration) (bool, error) {
	if _, ok := c.store[key]; ok {
		return false, nil
	}
	return true, c.Set(ctx, key, v, ttl)
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

type fakeMailer struct {
	otps     []string
	sent     []string
	failNext bool
}

func (m *fakeMailer) SendOTP(ctx context.Context, to, name, otp string) error {
	if m.failNext {
		m.failNext = false
		return fmt.Errorf("smtp down")
	}
	m.otps = append(m.otps, otp)
	return nil
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.sent = append(m.sent, subject)
	return nil
}

type fakePusher struct{ pushed int }

func (p *fakePusher) Push(ctx context.Context, token, title, body string, data map[string]any) error {
	p.pushed++
	return nil
}

type fakeEvents struct{ subjects []string }

func (e *fakeEvents) Publish(ctx context.Context, subject string, payload any) error {
	e.subjects = append(e.subjects, subject)
	return nil
}

type fakeTrends struct {
	ts    domain.TrendsSummary
	err   error
	calls int
}

func (t *fakeTrends) CitySummary(ctx context.Context, city string) (domain.TrendsSummary, error) {
	t.calls++
	if t.err != nil {
		return domain.TrendsSummary{}, t.err
	}
	return t.ts, nil
}

func newNotify(m *memStore, mailer *fakeMailer, pusher *fakePusher, events *fakeEvents) *app.NotifyService {
	return app.NewNotifyService(m, m, mailer, pusher, events, zerolog.Nop())
}

// ---- helpers ----

func ptr[T any](v T) *T { return &v }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
