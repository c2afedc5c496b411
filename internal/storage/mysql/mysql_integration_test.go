//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"stayhub/internal/domain"
	mysqlrepo "stayhub/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string     { return &s }
func pint(i int) *int           { return &i }
func pfloat(f float64) *float64 { return &f }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// ---------- the test ----------
func TestRepo_MySQL_CoreFlows(t *testing.T) {
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=stayhub",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "stayhub")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	repo := mysqlrepo.New(db)
	ctx := context.Background()

	var guestID, hostID int64
	var prop1, prop2 int64

	t.Run("users and password resets", func(t *testing.T) {
		guestID, err = repo.CreateUser(ctx, domain.User{
			Name: "Greta Guest", Email: "greta@example.com", PasswordHash: "x", Role: domain.RoleGuest,
		})
		if err != nil {
			t.Fatalf("CreateUser guest: %v", err)
		}
		hostID, err = repo.CreateUser(ctx, domain.User{
			Name: "Hank Host", Email: "hank@example.com", PasswordHash: "x", Role: domain.RoleHost,
		})
		if err != nil {
			t.Fatalf("CreateUser host: %v", err)
		}

		if _, err := repo.CreateUser(ctx, domain.User{
			Name: "Imposter", Email: "greta@example.com", PasswordHash: "x", Role: domain.RoleGuest,
		}); !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("duplicate email: want ErrConflict, got %v", err)
		}

		u, err := repo.GetUserByEmail(ctx, "greta@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail: %v", err)
		}
		if u.ID != guestID || u.Role != domain.RoleGuest || !u.Active {
			t.Fatalf("unexpected user row: %+v", u)
		}
		if u.PushToken != nil || u.RefreshHash != nil || u.LastLogoutAt != nil {
			t.Fatalf("fresh user should have NULL optionals: %+v", u)
		}

		logout := time.Now().UTC().Truncate(time.Second)
		if err := repo.SetPushToken(ctx, guestID, "ExponentPushToken[abc]"); err != nil {
			t.Fatalf("SetPushToken: %v", err)
		}
		if err := repo.SetRefreshHash(ctx, guestID, pstr("deadbeef")); err != nil {
			t.Fatalf("SetRefreshHash: %v", err)
		}
		if err := repo.SetLastLogout(ctx, guestID, logout); err != nil {
			t.Fatalf("SetLastLogout: %v", err)
		}
		u, err = repo.GetUser(ctx, guestID)
		if err != nil {
			t.Fatalf("GetUser: %v", err)
		}
		if u.PushToken == nil || u.RefreshHash == nil || *u.RefreshHash != "deadbeef" {
			t.Fatalf("optionals did not stick: %+v", u)
		}
		if u.LastLogoutAt == nil || !u.LastLogoutAt.Equal(logout) {
			t.Fatalf("last logout: want %v, got %v", logout, u.LastLogoutAt)
		}

		// logout clears the session hash
		if err := repo.SetRefreshHash(ctx, guestID, nil); err != nil {
			t.Fatalf("clear refresh hash: %v", err)
		}
		if u, _ = repo.GetUser(ctx, guestID); u.RefreshHash != nil {
			t.Fatalf("refresh hash should be NULL after clear")
		}

		gen := time.Now().UTC().Truncate(time.Second)
		if err := repo.UpsertPasswordReset(ctx, domain.PasswordReset{UserID: guestID, OTPHash: "h1", GeneratedAt: gen}); err != nil {
			t.Fatalf("UpsertPasswordReset: %v", err)
		}
		if err := repo.MarkPasswordResetVerified(ctx, guestID, gen.Add(time.Minute)); err != nil {
			t.Fatalf("MarkPasswordResetVerified: %v", err)
		}
		pr, err := repo.GetPasswordReset(ctx, guestID)
		if err != nil {
			t.Fatalf("GetPasswordReset: %v", err)
		}
		if pr.OTPHash != "h1" || pr.VerifiedAt == nil {
			t.Fatalf("verified reset: %+v", pr)
		}

		// a new request replaces the OTP and drops the verification
		if err := repo.UpsertPasswordReset(ctx, domain.PasswordReset{UserID: guestID, OTPHash: "h2", GeneratedAt: gen.Add(2 * time.Minute)}); err != nil {
			t.Fatalf("re-upsert reset: %v", err)
		}
		pr, _ = repo.GetPasswordReset(ctx, guestID)
		if pr.OTPHash != "h2" || pr.VerifiedAt != nil {
			t.Fatalf("replaced reset should be unverified: %+v", pr)
		}

		if err := repo.DeletePasswordReset(ctx, guestID); err != nil {
			t.Fatalf("DeletePasswordReset: %v", err)
		}
		if _, err := repo.GetPasswordReset(ctx, guestID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("deleted reset: want ErrNotFound, got %v", err)
		}
	})

	t.Run("seed upsert is idempotent", func(t *testing.T) {
		p := domain.Property{
			HostID:   hostID,
			SourceID: pstr("feed-ams-1021"),
			Title:    "Canal loft",
			Type:     "apartment",
			Status:   domain.PropertyApproved,
			Address: domain.Address{
				Line1: "Prinsengracht 412", City: "Amsterdam", Country: "NL", PostalCode: "1016 JC",
				Lat: pfloat(52.37), Lng: pfloat(4.88),
			},
			MaxGuests: 2, Bedrooms: 1, Bathrooms: 1,
			NightlyPriceCents: 12000, CleaningFeeCents: 3000, Currency: "EUR",
			Amenities: []string{"wifi", "kitchen"},
			Images:    []string{"https://img.example/1.jpg"},
			RawJSON:   []byte(`{}`),
		}
		prop1, err = repo.UpsertProperty(ctx, p)
		if err != nil {
			t.Fatalf("UpsertProperty: %v", err)
		}

		p.Title = "Canal loft with skylight"
		again, err := repo.UpsertProperty(ctx, p)
		if err != nil {
			t.Fatalf("re-upsert: %v", err)
		}
		if again != prop1 {
			t.Fatalf("re-seed duplicated the row: first id %d, second id %d", prop1, again)
		}

		got, err := repo.GetProperty(ctx, prop1)
		if err != nil {
			t.Fatalf("GetProperty: %v", err)
		}
		if got.Title != "Canal loft with skylight" || got.Status != domain.PropertyApproved {
			t.Fatalf("upsert should refresh content and keep status: %+v", got)
		}
		if got.Address.Lat == nil || *got.Address.Lat != 52.37 || len(got.Amenities) != 2 {
			t.Fatalf("round-trip lost fields: %+v", got)
		}

		prop2, err = repo.CreateProperty(ctx, domain.Property{
			HostID: hostID, Title: "Harbour house", Type: "house", Status: domain.PropertyPending,
			Address:   domain.Address{City: "Rotterdam", Country: "NL"},
			MaxGuests: 6, Bedrooms: 3, Bathrooms: 2,
			NightlyPriceCents: 21000, Currency: "EUR",
		})
		if err != nil {
			t.Fatalf("CreateProperty: %v", err)
		}

		pending, err := repo.ListPropertiesByStatus(ctx, domain.PropertyPending, domain.PageQuery{})
		if err != nil {
			t.Fatalf("ListPropertiesByStatus: %v", err)
		}
		if len(pending) != 1 || pending[0].ID != prop2 {
			t.Fatalf("pending queue: %+v", pending)
		}

		mine, err := repo.ListPropertiesByHost(ctx, hostID)
		if err != nil {
			t.Fatalf("ListPropertiesByHost: %v", err)
		}
		if len(mine) != 2 {
			t.Fatalf("host should own 2 properties, got %d", len(mine))
		}

		// the public catalog only serves approved rows
		page, err := repo.ListProperties(ctx, domain.PropertiesQuery{City: pstr("Amsterdam"), Guests: pint(2)})
		if err != nil {
			t.Fatalf("ListProperties: %v", err)
		}
		if len(page.Items) != 1 || page.Items[0].ID != prop1 || page.NextCursor != nil {
			t.Fatalf("catalog page: %+v", page)
		}
		if page, _ = repo.ListProperties(ctx, domain.PropertiesQuery{City: pstr("Rotterdam")}); len(page.Items) != 0 {
			t.Fatalf("pending property leaked into the catalog: %+v", page.Items)
		}
	})

	t.Run("booking overlap and status", func(t *testing.T) {
		mk := func(in, out time.Time) domain.Booking {
			return domain.Booking{
				Reference: uuid.NewString(), PropertyID: prop1, GuestID: guestID,
				CheckIn: in, CheckOut: out, Guests: 2,
				NightlyCents: 12000, CleaningCents: 3000,
				TotalCents: 12000*int64(out.Sub(in).Hours()/24) + 3000,
				Currency:   "EUR", Status: domain.BookingPending,
			}
		}

		b1, err := repo.CreateBooking(ctx, mk(day(2026, 9, 10), day(2026, 9, 12)))
		if err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}

		if _, err := repo.CreateBooking(ctx, mk(day(2026, 9, 11), day(2026, 9, 13))); !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("overlap: want ErrConflict, got %v", err)
		}

		// check-out day is exclusive, back-to-back stays are fine
		b2, err := repo.CreateBooking(ctx, mk(day(2026, 9, 12), day(2026, 9, 14)))
		if err != nil {
			t.Fatalf("back-to-back booking: %v", err)
		}

		pendingProp := mk(day(2026, 10, 1), day(2026, 10, 3))
		pendingProp.PropertyID = prop2
		if _, err := repo.CreateBooking(ctx, pendingProp); !errors.Is(err, domain.ErrUnavailable) {
			t.Fatalf("unapproved property: want ErrUnavailable, got %v", err)
		}

		ghost := mk(day(2026, 10, 1), day(2026, 10, 3))
		ghost.PropertyID = 99999
		if _, err := repo.CreateBooking(ctx, ghost); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("missing property: want ErrNotFound, got %v", err)
		}

		ok, err := repo.UpdateBookingStatus(ctx, b1, []string{domain.BookingPending}, domain.BookingConfirmed)
		if err != nil || !ok {
			t.Fatalf("confirm: ok=%v err=%v", ok, err)
		}
		if ok, _ = repo.UpdateBookingStatus(ctx, b1, []string{domain.BookingPending}, domain.BookingConfirmed); ok {
			t.Fatalf("second confirm should lose the status race")
		}

		active, err := repo.ListBookingsInRange(ctx, prop1, day(2026, 9, 1), day(2026, 10, 1))
		if err != nil {
			t.Fatalf("ListBookingsInRange: %v", err)
		}
		if len(active) != 2 || !active[0].CheckIn.Equal(day(2026, 9, 10)) {
			t.Fatalf("range: %+v", active)
		}

		expired, err := repo.ExpirePending(ctx, time.Now().UTC().Add(time.Hour))
		if err != nil || expired != 1 {
			t.Fatalf("ExpirePending: n=%d err=%v (b2 was the only pending row)", expired, err)
		}
		completed, err := repo.CompleteFinished(ctx, day(2026, 9, 13))
		if err != nil || completed != 1 {
			t.Fatalf("CompleteFinished: n=%d err=%v", completed, err)
		}

		got, err := repo.GetBooking(ctx, b1)
		if err != nil || got.Status != domain.BookingCompleted {
			t.Fatalf("b1 after sweep: %+v err=%v", got, err)
		}
		if got, _ = repo.GetBooking(ctx, b2); got.Status != domain.BookingExpired {
			t.Fatalf("b2 after sweep: %+v", got)
		}

		done, err := repo.HasCompletedStay(ctx, guestID, prop1)
		if err != nil || !done {
			t.Fatalf("HasCompletedStay: %v %v", done, err)
		}

		views, err := repo.ListBookingsByGuest(ctx, guestID, domain.PageQuery{})
		if err != nil {
			t.Fatalf("ListBookingsByGuest: %v", err)
		}
		if len(views) != 2 || views[0].PropertyTitle == "" || views[0].GuestName != "Greta Guest" {
			t.Fatalf("guest views: %+v", views)
		}

		st, err := repo.HostStats(ctx, hostID, day(2026, 9, 1), day(2026, 10, 1))
		if err != nil {
			t.Fatalf("HostStats: %v", err)
		}
		if st.Properties != 2 || st.Completed != 1 || st.RevenueCents != 27000 || st.OccupiedNights != 2 {
			t.Fatalf("host stats: %+v", st)
		}

		ov, err := repo.AdminOverview(ctx)
		if err != nil {
			t.Fatalf("AdminOverview: %v", err)
		}
		if ov.TotalBookings != 2 || ov.RevenueCents != 27000 || len(ov.RecentBookings) != 2 {
			t.Fatalf("overview: %+v", ov)
		}
	})

	t.Run("reviews refresh rating", func(t *testing.T) {
		rs := []domain.Review{
			{PropertyID: prop1, SourceID: pstr("rv-1"), Author: pstr("Ana"), Rating: 4, Comment: pstr("great light"), CreatedAt: day(2025, 6, 1), RawJSON: []byte(`{}`)},
			{PropertyID: prop1, SourceID: pstr("rv-2"), Author: pstr("Bob"), Rating: 5, RawJSON: []byte(`{}`)}, // zero CreatedAt falls back to NOW()
		}
		if err := repo.UpsertReviews(ctx, rs); err != nil {
			t.Fatalf("UpsertReviews: %v", err)
		}

		p, err := repo.GetProperty(ctx, prop1)
		if err != nil {
			t.Fatalf("GetProperty: %v", err)
		}
		if p.Rating == nil || *p.Rating != 4.5 || p.ReviewCount != 2 {
			t.Fatalf("rating after first upsert: %+v", p)
		}

		// re-seed with a changed score and a missing author; COALESCE keeps Ana
		if err := repo.UpsertReviews(ctx, []domain.Review{
			{PropertyID: prop1, SourceID: pstr("rv-1"), Rating: 3, RawJSON: []byte(`{}`)},
		}); err != nil {
			t.Fatalf("re-upsert review: %v", err)
		}
		if p, _ = repo.GetProperty(ctx, prop1); p.Rating == nil || *p.Rating != 4 || p.ReviewCount != 2 {
			t.Fatalf("rating after re-upsert: %+v", p)
		}

		page, err := repo.ListReviews(ctx, prop1, domain.PageQuery{})
		if err != nil {
			t.Fatalf("ListReviews: %v", err)
		}
		if len(page.Items) != 2 {
			t.Fatalf("want 2 reviews, got %d", len(page.Items))
		}
		// rv-2 has no source timestamp, so it sorts newest
		if got := page.Items[0]; got.SourceID == nil || *got.SourceID != "rv-2" {
			t.Fatalf("order: %+v", page.Items)
		}
		if got := page.Items[1]; got.Author == nil || *got.Author != "Ana" || got.Rating != 3 {
			t.Fatalf("rv-1 after re-upsert: %+v", got)
		}
	})

	t.Run("notifications and favorites", func(t *testing.T) {
		nid, err := repo.AddNotification(ctx, domain.Notification{
			UserID: guestID, Kind: "booking_confirmed", Title: "Booking confirmed", Body: "See you in September",
		})
		if err != nil {
			t.Fatalf("AddNotification: %v", err)
		}

		ns, err := repo.ListNotifications(ctx, guestID, domain.PageQuery{})
		if err != nil || len(ns) != 1 || ns[0].ReadAt != nil {
			t.Fatalf("fresh inbox: %+v err=%v", ns, err)
		}

		if err := repo.MarkNotificationRead(ctx, guestID, nid); err != nil {
			t.Fatalf("MarkNotificationRead: %v", err)
		}
		if err := repo.MarkNotificationRead(ctx, guestID, nid); err != nil {
			t.Fatalf("marking twice should be a no-op: %v", err)
		}
		if err := repo.MarkNotificationRead(ctx, guestID, nid+100); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("missing notification: want ErrNotFound, got %v", err)
		}
		if ns, _ = repo.ListNotifications(ctx, guestID, domain.PageQuery{}); ns[0].ReadAt == nil {
			t.Fatalf("read_at did not stick: %+v", ns[0])
		}

		if err := repo.AddFavorite(ctx, guestID, prop1); err != nil {
			t.Fatalf("AddFavorite: %v", err)
		}
		if err := repo.AddFavorite(ctx, guestID, prop1); err != nil {
			t.Fatalf("favoriting twice should be a no-op: %v", err)
		}
		favs, err := repo.ListFavorites(ctx, guestID)
		if err != nil || len(favs) != 1 || favs[0].ID != prop1 {
			t.Fatalf("favorites: %+v err=%v", favs, err)
		}
		if err := repo.RemoveFavorite(ctx, guestID, prop1); err != nil {
			t.Fatalf("RemoveFavorite: %v", err)
		}
		if favs, _ = repo.ListFavorites(ctx, guestID); len(favs) != 0 {
			t.Fatalf("favorites after remove: %+v", favs)
		}
	})
}
