package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"stayhub/internal/domain"
)

// SeedService loads listing fixtures into the catalog. Files are JSON, one
// document or an array of them, in whatever shape the source feed used; the
// mappers tolerate the common field spellings.
type SeedService struct {
	users   domain.UserRepository
	props   domain.PropertyRepository
	reviews domain.ReviewRepository
	cache   domain.Cache
	log     zerolog.Logger
}

func NewSeedService(u domain.UserRepository, p domain.PropertyRepository, r domain.ReviewRepository, c domain.Cache, log zerolog.Logger) *SeedService {
	return &SeedService{users: u, props: p, reviews: r, cache: c, log: log}
}

// SeedFile loads every document in one file and reports how many listings
// landed. A bad document logs and skips; a bad file fails.
func (s *SeedService) SeedFile(ctx context.Context, path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	docs, err := decodeSeedDocs(b)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	n := 0
	for _, doc := range docs {
		if _, err := s.SeedDocument(ctx, doc); err != nil {
			s.log.Error().Err(err).Str("file", filepath.Base(path)).Msg("seed listing")
			continue
		}
		n++
	}
	return n, nil
}

func (s *SeedService) SeedDocument(ctx context.Context, doc map[string]any) (int64, error) {
	p := mapSeedProperty(doc)
	if p.Title == "" {
		return 0, fmt.Errorf("%w: document has no title", domain.ErrInvalid)
	}

	hostID, err := s.ensureHost(ctx, mapSeedHost(doc))
	if err != nil {
		return 0, err
	}
	p.HostID = hostID

	// Parent upsert first to satisfy the FK for reviews.
	id, err := s.props.UpsertProperty(ctx, p)
	if err != nil {
		return 0, err
	}

	if raw, ok := doc["reviews"].([]any); ok && len(raw) > 0 {
		inputs := make([]map[string]any, 0, len(raw))
		for _, it := range raw {
			if m, ok := it.(map[string]any); ok {
				inputs = append(inputs, m)
			}
		}
		rs := mapSeedReviews(inputs)
		for i := range rs {
			rs[i].PropertyID = id
		}
		if len(rs) > 0 {
			if err := s.reviews.UpsertReviews(ctx, rs); err != nil {
				return 0, fmt.Errorf("upsert reviews for %d: %w", id, err)
			}
		}
	}

	if s.cache != nil {
		invalidateProperty(ctx, s.cache, id)
		invalidateReviews(ctx, s.cache, id)
	}
	return id, nil
}

// ensureHost resolves the listing owner, creating the account on first sight.
func (s *SeedService) ensureHost(ctx context.Context, h domain.User) (int64, error) {
	u, err := s.users.GetUserByEmail(ctx, h.Email)
	if err == nil {
		return u.ID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return 0, err
	}

	// seed accounts cannot log in; the password is random and thrown away
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	h.PasswordHash = string(hash)
	id, err := s.users.CreateUser(ctx, h)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// lost the race with another worker
			u, gerr := s.users.GetUserByEmail(ctx, h.Email)
			if gerr != nil {
				return 0, gerr
			}
			return u.ID, nil
		}
		return 0, err
	}
	return id, nil
}

func decodeSeedDocs(b []byte) ([]map[string]any, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, nil
	}
	if b[0] == '[' {
		var docs []map[string]any
		if err := json.Unmarshal(b, &docs); err != nil {
			return nil, err
		}
		return docs, nil
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return []map[string]any{doc}, nil
}
