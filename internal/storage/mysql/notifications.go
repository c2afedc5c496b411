package mysql

import (
	"context"
	"database/sql"

	"stayhub/internal/domain"
)

func (r *Repo) AddNotification(ctx context.Context, n domain.Notification) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertNotificationSQL, n.UserID, n.Kind, n.Title, n.Body)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) ListNotifications(ctx context.Context, userID int64, pg domain.PageQuery) ([]domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx, listNotificationsSQL, userID, pageLimit(pg))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var readAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &readAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.ReadAt = ptrFromNullTime(readAt)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *Repo) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, markNotificationReadSQL, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// already read is fine; missing row is not
		var one int
		if err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM notifications WHERE id = ? AND user_id = ?`, id, userID).Scan(&one); err == sql.ErrNoRows {
			return domain.ErrNotFound
		}
	}
	return nil
}

func (r *Repo) AddFavorite(ctx context.Context, userID, propertyID int64) error {
	_, err := r.db.ExecContext(ctx, addFavoriteSQL, userID, propertyID)
	return err
}

func (r *Repo) RemoveFavorite(ctx context.Context, userID, propertyID int64) error {
	_, err := r.db.ExecContext(ctx, removeFavoriteSQL, userID, propertyID)
	return err
}

func (r *Repo) ListFavorites(ctx context.Context, userID int64) ([]domain.Property, error) {
	rows, err := r.db.QueryContext(ctx, listFavoritesSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
