package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	"stayhub/internal/domain"
)

func (r *Repo) CreateProperty(ctx context.Context, p domain.Property) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertPropertySQL, propertyArgs(p)...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpsertProperty requires p.SourceID; LAST_INSERT_ID(id) in the update clause
// makes LastInsertId return the existing row id on the update path.
func (r *Repo) UpsertProperty(ctx context.Context, p domain.Property) (int64, error) {
	res, err := r.db.ExecContext(ctx, upsertPropertySQL, propertyArgs(p)...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) UpdateProperty(ctx context.Context, p domain.Property) error {
	amen, _ := json.Marshal(p.Amenities)
	imgs, _ := json.Marshal(p.Images)
	_, err := r.db.ExecContext(ctx, updatePropertySQL,
		p.Title, p.Description, p.Type,
		p.Address.Line1, p.Address.City, p.Address.Country, p.Address.PostalCode,
		valF64(p.Address.Lat), valF64(p.Address.Lng),
		p.MaxGuests, p.Bedrooms, p.Bathrooms,
		p.NightlyPriceCents, p.CleaningFeeCents, p.Currency,
		string(amen), string(imgs),
		p.ID,
	)
	return err
}

func (r *Repo) SetPropertyStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx, setPropertyStatusSQL, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// distinguish "missing" from "already in that status"
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM properties WHERE id = ?`, id).Scan(&one); err == sql.ErrNoRows {
			return domain.ErrNotFound
		}
	}
	return nil
}

func (r *Repo) GetProperty(ctx context.Context, id int64) (domain.Property, error) {
	return scanProperty(r.db.QueryRowContext(ctx, getPropertySQL, id))
}

func (r *Repo) ListProperties(ctx context.Context, q domain.PropertiesQuery) (domain.PropertiesPage, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT` + propertyColumns + "\nFROM properties p\nWHERE p.status = ?")
	args := []any{domain.PropertyApproved}

	if q.City != nil {
		sb.WriteString(" AND p.city = ?")
		args = append(args, *q.City)
	}
	if q.Country != nil {
		sb.WriteString(" AND p.country = ?")
		args = append(args, *q.Country)
	}
	if q.Type != nil {
		sb.WriteString(" AND p.type = ?")
		args = append(args, *q.Type)
	}
	if q.Guests != nil {
		sb.WriteString(" AND p.max_guests >= ?")
		args = append(args, *q.Guests)
	}
	if q.MinCents != nil {
		sb.WriteString(" AND p.nightly_cents >= ?")
		args = append(args, *q.MinCents)
	}
	if q.MaxCents != nil {
		sb.WriteString(" AND p.nightly_cents <= ?")
		args = append(args, *q.MaxCents)
	}
	if q.Cursor != nil {
		if after, err := strconv.ParseInt(*q.Cursor, 10, 64); err == nil {
			sb.WriteString(" AND p.id > ?")
			args = append(args, after)
		}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	sb.WriteString(" ORDER BY p.id LIMIT ?")
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return domain.PropertiesPage{}, err
	}
	defer rows.Close()

	var out []domain.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return domain.PropertiesPage{}, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return domain.PropertiesPage{}, err
	}

	page := domain.PropertiesPage{Items: out}
	if len(out) == limit {
		next := strconv.FormatInt(out[len(out)-1].ID, 10)
		page.NextCursor = &next
	}
	return page, nil
}

func (r *Repo) ListPropertiesByHost(ctx context.Context, hostID int64) ([]domain.Property, error) {
	rows, err := r.db.QueryContext(ctx, listPropertiesByHostSQL, hostID)
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

func (r *Repo) ListPropertiesByStatus(ctx context.Context, status string, pg domain.PageQuery) ([]domain.Property, error) {
	limit := pg.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT`+propertyColumns+"\nFROM properties p\nWHERE p.status = ?\nORDER BY p.id DESC LIMIT ?",
		status, limit)
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

func propertyArgs(p domain.Property) []any {
	amen, _ := json.Marshal(p.Amenities)
	imgs, _ := json.Marshal(p.Images)
	return []any{
		p.HostID, valStr(p.SourceID), p.Title, p.Description, p.Type, p.Status,
		p.Address.Line1, p.Address.City, p.Address.Country, p.Address.PostalCode,
		valF64(p.Address.Lat), valF64(p.Address.Lng),
		p.MaxGuests, p.Bedrooms, p.Bathrooms, p.NightlyPriceCents, p.CleaningFeeCents, p.Currency,
		string(amen), string(imgs), valJSON(p.RawJSON),
	}
}

func scanProperty(row rowScanner) (domain.Property, error) {
	var p domain.Property
	var sourceID, desc sql.NullString
	var lat, lng, rating sql.NullFloat64
	var amenJSON, imgJSON []byte

	err := row.Scan(
		&p.ID, &p.HostID, &sourceID, &p.Title, &desc, &p.Type, &p.Status,
		&p.Address.Line1, &p.Address.City, &p.Address.Country, &p.Address.PostalCode,
		&lat, &lng,
		&p.MaxGuests, &p.Bedrooms, &p.Bathrooms, &p.NightlyPriceCents, &p.CleaningFeeCents, &p.Currency,
		&amenJSON, &imgJSON, &rating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Property{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Property{}, err
	}

	p.SourceID = ptrFromNullStr(sourceID)
	p.Description = desc.String
	p.Address.Lat = ptrFromNullF64(lat)
	p.Address.Lng = ptrFromNullF64(lng)
	p.Rating = ptrFromNullF64(rating)
	_ = json.Unmarshal(amenJSON, &p.Amenities)
	_ = json.Unmarshal(imgJSON, &p.Images)
	return p, nil
}
