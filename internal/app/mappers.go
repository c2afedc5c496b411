package app

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"stayhub/internal/domain"
)

/********** alias registries (single source of truth) **********/

var propertyAliases = map[string][]string{
	"source_id":   {"id", "listing_id", "listingId", "external_id", "source_id"},
	"title":       {"title", "name", "listing_name", "headline"},
	"description": {"description", "summary", "about", "space"},
	"type":        {"type", "property_type", "propertyType", "category", "room_type"},
	"city":        {"address.city", "city", "locality", "town"},
	"country":     {"address.country", "country", "countryCode", "country_code"},
	"line1":       {"address.line1", "address.street", "address", "street", "street_address", "full_address"},
	"postal":      {"address.postal_code", "address.zip", "postal_code", "zipcode", "zip"},
	"currency":    {"currency", "price.currency", "currency_code"},
}

var reviewAliases = map[string][]string{
	"author":       {"author", "name", "userName", "reviewer", "reviewer.name", "guest_name"},
	"author_first": {"first_name", "firstname", "user.first_name", "user.firstName"},
	"author_last":  {"last_name", "lastname", "user.last_name", "user.lastName"},
	"comment":      {"comment", "text", "review_text", "review", "content", "body", "message"},
	"source_id":    {"id", "review_id", "reviewId"},
	"rating":       {"rating", "rate", "score", "rating.value", "scores.overall", "stars"},
	"created":      {"created_at", "createdAt", "date", "submitted_at"},
}

var hostAliases = map[string][]string{
	"name":  {"host.name", "host_name", "owner.name", "host"},
	"email": {"host.email", "host_email", "owner.email"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) *string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return &s
		}
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, " ")
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstInt64Flexible: int64 from several paths (float64/int/string).
func firstInt64Flexible(m map[string]any, paths ...string) *int64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			x := int64(v)
			return &x
		case int:
			x := int64(v)
			return &x
		case int64:
			x := v
			return &x
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

// firstSliceStrings: accept []any with either strings or {url/src/name}.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		if raw, ok := lookupAny(m, k).([]any); ok {
			out := make([]string, 0, len(raw))
			for _, it := range raw {
				switch t := it.(type) {
				case string:
					if t != "" {
						out = append(out, t)
					}
				case map[string]any:
					if u, ok := t["url"].(string); ok && u != "" {
						out = append(out, u)
						continue
					}
					if u, ok := t["src"].(string); ok && u != "" {
						out = append(out, u)
						continue
					}
					if n, ok := t["name"].(string); ok && n != "" {
						out = append(out, n)
						continue
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

// centsFlexible reads a money amount: a *_cents path wins as-is, a unit
// price ("120.50") is scaled to cents.
func centsFlexible(m map[string]any, centPaths []string, unitPaths []string) *int64 {
	if v := firstInt64Flexible(m, centPaths...); v != nil {
		return v
	}
	if f := getFloatFlexible(m, unitPaths...); f != nil {
		c := int64(math.Round(*f * 100))
		return &c
	}
	return nil
}

func timeFlexible(m map[string]any, paths ...string) time.Time {
	for _, p := range paths {
		s := strings.TrimSpace(lookupStr(m, p))
		if s == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

/********** property mapper **********/

func mapSeedProperty(doc map[string]any) domain.Property {
	raw, err := json.Marshal(doc)
	if err != nil {
		log.Error().Err(err).Str("context", "mapSeedProperty").Msg("marshal source document")
	}

	title := deref(firstNonEmptyAlias(doc, propertyAliases, "title"))
	city := deref(firstNonEmptyAlias(doc, propertyAliases, "city"))
	country := deref(firstNonEmptyAlias(doc, propertyAliases, "country"))

	// source_id prefers the feed's own id; otherwise a stable hash so the
	// same fixture re-seeds instead of duplicating.
	sourceID := firstNonEmptyAlias(doc, propertyAliases, "source_id")
	if sourceID == nil {
		sum := sha1.Sum([]byte(strings.Join([]string{title, city, country}, "|")))
		id := hex.EncodeToString(sum[:])
		sourceID = &id
	}

	ptype := strings.ToLower(deref(firstNonEmptyAlias(doc, propertyAliases, "type")))
	if !domain.ValidPropertyType(ptype) {
		ptype = "apartment"
	}

	guests := 2
	if v := firstInt64Flexible(doc, "max_guests", "maxGuests", "sleeps", "capacity", "accommodates", "guests"); v != nil && *v > 0 {
		guests = int(*v)
	}
	bedrooms, bathrooms := 1, 1
	if v := firstInt64Flexible(doc, "bedrooms", "beds"); v != nil {
		bedrooms = int(*v)
	}
	if v := firstInt64Flexible(doc, "bathrooms", "baths"); v != nil {
		bathrooms = int(*v)
	}

	var nightly, cleaning int64
	if v := centsFlexible(doc,
		[]string{"nightly_price_cents", "price_cents"},
		[]string{"nightly_price", "price_per_night", "price.nightly", "price", "rate"}); v != nil {
		nightly = *v
	}
	if v := centsFlexible(doc,
		[]string{"cleaning_fee_cents"},
		[]string{"cleaning_fee", "price.cleaning"}); v != nil {
		cleaning = *v
	}

	currency := strings.ToUpper(deref(firstNonEmptyAlias(doc, propertyAliases, "currency")))
	if len(currency) != 3 {
		currency = "USD"
	}

	return domain.Property{
		SourceID:          sourceID,
		Title:             title,
		Description:       deref(firstNonEmptyAlias(doc, propertyAliases, "description")),
		Type:              ptype,
		Status:            domain.PropertyApproved,
		Address: domain.Address{
			Line1:      deref(firstNonEmptyAlias(doc, propertyAliases, "line1")),
			City:       city,
			Country:    country,
			PostalCode: deref(firstNonEmptyAlias(doc, propertyAliases, "postal")),
			Lat:        getFloatFlexible(doc, "latitude", "lat", "location.lat", "address.lat"),
			Lng:        getFloatFlexible(doc, "longitude", "lon", "lng", "location.lng", "address.lng"),
		},
		MaxGuests:         guests,
		Bedrooms:          bedrooms,
		Bathrooms:         bathrooms,
		NightlyPriceCents: nightly,
		CleaningFeeCents:  cleaning,
		Currency:          currency,
		Amenities:         firstSliceStrings(doc, "amenities", "facilities"),
		Images:            firstSliceStrings(doc, "images", "photos"),
		RawJSON:           raw,
	}
}

/********** reviews mapper **********/

func mapSeedReviews(in []map[string]any) []domain.Review {
	out := make([]domain.Review, 0, len(in))
	for _, r := range in {
		var rv domain.Review

		// Author → prefer single field; fallback to first + last.
		if s := firstNonEmptyAlias(r, reviewAliases, "author"); s != nil {
			rv.Author = s
		} else {
			first := firstNonEmptyAlias(r, reviewAliases, "author_first")
			last := firstNonEmptyAlias(r, reviewAliases, "author_last")
			if full := joinNonEmpty(deref(first), deref(last)); full != "" {
				rv.Author = &full
			}
		}

		if s := firstNonEmptyAlias(r, reviewAliases, "comment"); s != nil {
			rv.Comment = s
		}

		rating := 5.0
		if f := getFloatFlexible(r, reviewAliases["rating"]...); f != nil {
			rating = *f
		}
		if rating < 1 {
			rating = 1
		}
		if rating > 5 {
			rating = 5
		}
		rv.Rating = rating

		rv.CreatedAt = timeFlexible(r, reviewAliases["created"]...)

		// SourceID → prefer explicit; else synthesize stable hash.
		if s := firstNonEmptyAlias(r, reviewAliases, "source_id"); s != nil {
			rv.SourceID = s
		} else {
			sig := strings.Join([]string{deref(rv.Author), deref(rv.Comment), fmt.Sprintf("%.3f", rv.Rating)}, "|")
			sum := sha1.Sum([]byte(sig))
			id := hex.EncodeToString(sum[:])
			rv.SourceID = &id
		}

		if raw, err := json.Marshal(r); err == nil {
			rv.RawJSON = raw
		} else {
			log.Error().Err(err).Str("context", "mapSeedReviews").Msg("marshal review failed")
		}

		out = append(out, rv)
	}
	return out
}

/********** host mapper **********/

// mapSeedHost pulls the listing owner out of the document. Fixtures without
// one fall back to a shared catalog account.
func mapSeedHost(doc map[string]any) domain.User {
	name := deref(firstNonEmptyAlias(doc, hostAliases, "name"))
	email := deref(firstNonEmptyAlias(doc, hostAliases, "email"))
	if name == "" {
		name = "Marketplace Catalog"
	}
	if email == "" {
		sum := sha1.Sum([]byte(strings.ToLower(name)))
		email = "host-" + hex.EncodeToString(sum[:6]) + "@seed.stayhub.local"
	}
	return domain.User{
		Name:   name,
		Email:  normalizeEmail(email),
		Role:   domain.RoleHost,
		Active: true,
	}
}
