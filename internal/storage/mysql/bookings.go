package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"stayhub/internal/domain"
)

// CreateBooking serializes on the property row so two guests racing for the
// same dates cannot both pass the overlap check.
func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var status string
	if err := tx.QueryRowContext(ctx, lockPropertySQL, b.PropertyID).Scan(&status); err != nil {
		if err == sql.ErrNoRows {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	if status != domain.PropertyApproved {
		return 0, domain.ErrUnavailable
	}

	var overlap int
	if err := tx.QueryRowContext(ctx, overlapCountSQL, b.PropertyID, b.CheckOut, b.CheckIn).Scan(&overlap); err != nil {
		return 0, err
	}
	if overlap > 0 {
		return 0, domain.ErrConflict
	}

	res, err := tx.ExecContext(ctx, insertBookingSQL,
		b.Reference, b.PropertyID, b.GuestID, b.CheckIn, b.CheckOut, b.Guests,
		b.NightlyCents, b.CleaningCents, b.TotalCents, b.Currency, b.Status,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

func (r *Repo) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx, getBookingSQL, id))
}

func (r *Repo) UpdateBookingStatus(ctx context.Context, id int64, from []string, to string) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	ph := strings.Repeat(",?", len(from))[1:]
	args := make([]any, 0, len(from)+2)
	args = append(args, to, id)
	for _, f := range from {
		args = append(args, f)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status IN (`+ph+`)`,
		args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *Repo) ListBookingsByGuest(ctx context.Context, guestID int64, pg domain.PageQuery) ([]domain.BookingView, error) {
	return r.queryBookingViews(ctx,
		bookingViewSelect+"WHERE b.guest_id = ?\nORDER BY b.created_at DESC, b.id DESC\nLIMIT ?",
		guestID, pageLimit(pg))
}

func (r *Repo) ListBookingsByHost(ctx context.Context, hostID int64, status *string, pg domain.PageQuery) ([]domain.BookingView, error) {
	q := bookingViewSelect + "WHERE p.host_id = ?"
	args := []any{hostID}
	if status != nil {
		q += " AND b.status = ?"
		args = append(args, *status)
	}
	q += "\nORDER BY b.created_at DESC, b.id DESC\nLIMIT ?"
	args = append(args, pageLimit(pg))
	return r.queryBookingViews(ctx, q, args...)
}

func (r *Repo) ListBookingsByStatus(ctx context.Context, status *string, pg domain.PageQuery) ([]domain.BookingView, error) {
	q := bookingViewSelect
	args := []any{}
	if status != nil {
		q += "WHERE b.status = ?\n"
		args = append(args, *status)
	}
	q += "ORDER BY b.created_at DESC, b.id DESC\nLIMIT ?"
	args = append(args, pageLimit(pg))
	return r.queryBookingViews(ctx, q, args...)
}

func (r *Repo) ListBookingsInRange(ctx context.Context, propertyID int64, from, to time.Time) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, listBookingsInRangeSQL, propertyID, to, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) HasCompletedStay(ctx context.Context, guestID, propertyID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, hasCompletedStaySQL, guestID, propertyID).Scan(&n)
	return n > 0, err
}

func (r *Repo) ExpirePending(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, expirePendingSQL, olderThan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repo) CompleteFinished(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, completeFinishedSQL, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repo) HostStats(ctx context.Context, hostID int64, monthStart, monthEnd time.Time) (domain.HostStats, error) {
	var st domain.HostStats

	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM properties WHERE host_id = ?`, hostID).Scan(&st.Properties); err != nil {
		return st, err
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT b.status, COUNT(*), COALESCE(SUM(b.total_cents), 0)
FROM bookings b
JOIN properties p ON p.id = b.property_id
WHERE p.host_id = ?
GROUP BY b.status`, hostID)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count, cents int64
		if err := rows.Scan(&status, &count, &cents); err != nil {
			return st, err
		}
		switch status {
		case domain.BookingPending:
			st.Pending = count
		case domain.BookingConfirmed:
			st.Confirmed = count
			st.RevenueCents += cents
		case domain.BookingCompleted:
			st.Completed = count
			st.RevenueCents += cents
		}
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	// nights of the month covered by active stays, clipped to the month window
	err = r.db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(DATEDIFF(LEAST(b.check_out, ?), GREATEST(b.check_in, ?))), 0)
FROM bookings b
JOIN properties p ON p.id = b.property_id
WHERE p.host_id = ?
  AND b.status IN ('confirmed', 'completed')
  AND b.check_in < ? AND b.check_out > ?`,
		monthEnd, monthStart, hostID, monthEnd, monthStart).Scan(&st.OccupiedNights)
	return st, err
}

func (r *Repo) AdminOverview(ctx context.Context) (domain.OverviewStats, error) {
	var ov domain.OverviewStats

	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(active), 0) FROM users`).
		Scan(&ov.TotalUsers, &ov.ActiveUsers); err != nil {
		return ov, err
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(status = 'pending'), 0) FROM properties`).
		Scan(&ov.TotalProperties, &ov.PendingProperties); err != nil {
		return ov, err
	}
	if err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*),
       COALESCE(SUM(status = 'pending'), 0),
       COALESCE(SUM(status = 'confirmed'), 0),
       COALESCE(SUM(CASE WHEN status IN ('confirmed', 'completed') THEN total_cents ELSE 0 END), 0)
FROM bookings`).
		Scan(&ov.TotalBookings, &ov.PendingBookings, &ov.ConfirmedBookings, &ov.RevenueCents); err != nil {
		return ov, err
	}

	recent, err := r.queryBookingViews(ctx,
		bookingViewSelect+"ORDER BY b.created_at DESC, b.id DESC\nLIMIT ?", 10)
	if err != nil {
		return ov, err
	}
	ov.RecentBookings = recent
	return ov, nil
}

func (r *Repo) queryBookingViews(ctx context.Context, q string, args ...any) ([]domain.BookingView, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BookingView
	for rows.Next() {
		var v domain.BookingView
		if err := rows.Scan(
			&v.ID, &v.Reference, &v.PropertyID, &v.GuestID, &v.CheckIn, &v.CheckOut, &v.Guests,
			&v.NightlyCents, &v.CleaningCents, &v.TotalCents, &v.Currency, &v.Status,
			&v.CreatedAt, &v.UpdatedAt,
			&v.PropertyTitle, &v.PropertyCity, &v.GuestName,
		); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanBooking(row rowScanner) (domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.Reference, &b.PropertyID, &b.GuestID, &b.CheckIn, &b.CheckOut, &b.Guests,
		&b.NightlyCents, &b.CleaningCents, &b.TotalCents, &b.Currency, &b.Status,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Booking{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

func pageLimit(pg domain.PageQuery) int {
	if pg.Limit <= 0 {
		return 50
	}
	if pg.Limit > 200 {
		return 200
	}
	return pg.Limit
}
