package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"stayhub/internal/domain"
)

func (r *Repo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertUserSQL, u.Name, u.Email, u.PasswordHash, u.Role)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return 0, domain.ErrConflict
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) GetUser(ctx context.Context, id int64) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserSQL, id))
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserByEmailSQL, email))
}

func (r *Repo) ListUsers(ctx context.Context, pg domain.PageQuery) ([]domain.User, error) {
	limit := pg.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listUsersSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	_, err := r.db.ExecContext(ctx, updatePasswordSQL, hash, id)
	return err
}

func (r *Repo) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := r.db.ExecContext(ctx, setActiveSQL, active, id)
	return err
}

func (r *Repo) SetPushToken(ctx context.Context, id int64, token string) error {
	_, err := r.db.ExecContext(ctx, setPushTokenSQL, token, id)
	return err
}

func (r *Repo) SetRefreshHash(ctx context.Context, id int64, hash *string) error {
	_, err := r.db.ExecContext(ctx, setRefreshHashSQL, valStr(hash), id)
	return err
}

func (r *Repo) SetLastLogout(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, setLastLogoutSQL, at, id)
	return err
}

func (r *Repo) UpsertPasswordReset(ctx context.Context, pr domain.PasswordReset) error {
	_, err := r.db.ExecContext(ctx, upsertResetSQL, pr.UserID, pr.OTPHash, pr.GeneratedAt)
	return err
}

func (r *Repo) GetPasswordReset(ctx context.Context, userID int64) (domain.PasswordReset, error) {
	var pr domain.PasswordReset
	var verified sql.NullTime
	err := r.db.QueryRowContext(ctx, getResetSQL, userID).
		Scan(&pr.UserID, &pr.OTPHash, &pr.GeneratedAt, &verified)
	if err == sql.ErrNoRows {
		return domain.PasswordReset{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.PasswordReset{}, err
	}
	pr.VerifiedAt = ptrFromNullTime(verified)
	return pr, nil
}

func (r *Repo) MarkPasswordResetVerified(ctx context.Context, userID int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, verifyResetSQL, at, userID)
	return err
}

func (r *Repo) DeletePasswordReset(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, deleteResetSQL, userID)
	return err
}

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	var push, refresh sql.NullString
	var lastLogout sql.NullTime
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Active,
		&push, &refresh, &lastLogout, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	u.PushToken = ptrFromNullStr(push)
	u.RefreshHash = ptrFromNullStr(refresh)
	u.LastLogoutAt = ptrFromNullTime(lastLogout)
	return u, nil
}
