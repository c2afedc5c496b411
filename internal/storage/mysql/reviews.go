package mysql

import (
	"context"
	"database/sql"
	"strings"

	"stayhub/internal/domain"
)

func (r *Repo) AddReview(ctx context.Context, rv domain.Review) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertReviewSQL,
		rv.PropertyID, valInt64(rv.UserID), valStr(rv.Author), rv.Rating, valStr(rv.Comment))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	_, err = r.db.ExecContext(ctx, refreshRatingSQL, rv.PropertyID)
	return id, err
}

func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*7)
	for _, rv := range rs {
		// created_at COALESCEs to now when the source has no timestamp
		var created any
		if !rv.CreatedAt.IsZero() {
			created = rv.CreatedAt
		}
		values = append(values, "(?,?,?,?,?,COALESCE(?, CURRENT_TIMESTAMP),?)")
		args = append(args,
			rv.PropertyID,
			valStr(rv.SourceID),
			valStr(rv.Author),
			rv.Rating,
			valStr(rv.Comment),
			created,
			valJSON(rv.RawJSON),
		)
	}
	sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, refreshRatingSQL, rs[0].PropertyID)
	return err
}

func (r *Repo) ListReviews(ctx context.Context, propertyID int64, pg domain.PageQuery) (domain.ReviewsPage, error) {
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, propertyID, pageLimit(pg))
	if err != nil {
		return domain.ReviewsPage{}, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var rv domain.Review
		var userID sql.NullInt64
		var sourceID, author, comment sql.NullString
		var raw sql.RawBytes
		if err := rows.Scan(
			&rv.ID, &rv.PropertyID, &userID, &sourceID, &author, &rv.Rating, &comment, &rv.CreatedAt, &raw,
		); err != nil {
			return domain.ReviewsPage{}, err
		}
		rv.UserID = ptrFromNullInt64(userID)
		rv.SourceID = ptrFromNullStr(sourceID)
		rv.Author = ptrFromNullStr(author)
		rv.Comment = ptrFromNullStr(comment)
		if len(raw) > 0 {
			rv.RawJSON = append([]byte(nil), raw...)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return domain.ReviewsPage{}, err
	}
	return domain.ReviewsPage{Items: out}, nil
}
