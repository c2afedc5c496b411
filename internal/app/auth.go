package app

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"stayhub/internal/domain"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

var (
	passwordLetter = regexp.MustCompile(`[A-Za-z]`)
	passwordDigit  = regexp.MustCompile(`[0-9]`)
	emailRx        = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidPassword reports whether pw is long enough and mixes letters with
// digits. Anything else about the password is the user's business.
func ValidPassword(pw string) bool {
	return len(pw) >= 8 && passwordLetter.MatchString(pw) && passwordDigit.MatchString(pw)
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthService struct {
	users  domain.UserRepository
	mailer domain.Mailer
	secret []byte
	otpTTL time.Duration
}

func NewAuthService(u domain.UserRepository, m domain.Mailer, secret string, otpTTL time.Duration) *AuthService {
	return &AuthService{users: u, mailer: m, secret: []byte(secret), otpTTL: otpTTL}
}

func (s *AuthService) Register(ctx context.Context, name, email, password, role string) (domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return domain.User{}, fmt.Errorf("%w: name is required", domain.ErrInvalid)
	}
	if !emailRx.MatchString(email) {
		return domain.User{}, fmt.Errorf("%w: malformed email", domain.ErrInvalid)
	}
	if !ValidPassword(password) {
		return domain.User{}, fmt.Errorf("%w: password must be at least 8 characters and mix letters with digits", domain.ErrInvalid)
	}
	if role == "" {
		role = domain.RoleGuest
	}
	if role != domain.RoleGuest && role != domain.RoleHost {
		return domain.User{}, fmt.Errorf("%w: role must be guest or host", domain.ErrInvalid)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	u := domain.User{Name: name, Email: email, PasswordHash: string(hash), Role: role, Active: true}
	id, err := s.users.CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.User{}, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		return domain.User{}, err
	}
	u.ID = id
	u.PasswordHash = ""
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (TokenPair, domain.User, error) {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return TokenPair{}, domain.User{}, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
		}
		return TokenPair{}, domain.User{}, err
	}
	if !u.Active {
		return TokenPair{}, domain.User{}, fmt.Errorf("%w: account disabled", domain.ErrUnauthorized)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return TokenPair{}, domain.User{}, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	pair, err := s.issue(ctx, u)
	if err != nil {
		return TokenPair{}, domain.User{}, err
	}
	u.PasswordHash = ""
	return pair, u, nil
}

// Refresh rotates the pair: the presented refresh token must match the hash
// stored at the last issue, so a stolen older token stops working as soon as
// the legitimate client refreshes.
func (s *AuthService) Refresh(ctx context.Context, raw string) (TokenPair, domain.User, error) {
	claims, err := s.parseToken(raw)
	if err != nil {
		return TokenPair{}, domain.User{}, err
	}
	if typ, _ := claims["typ"].(string); typ != "refresh" {
		return TokenPair{}, domain.User{}, fmt.Errorf("%w: not a refresh token", domain.ErrUnauthorized)
	}
	id, err := subjectID(claims)
	if err != nil {
		return TokenPair{}, domain.User{}, err
	}
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return TokenPair{}, domain.User{}, fmt.Errorf("%w: unknown user", domain.ErrUnauthorized)
		}
		return TokenPair{}, domain.User{}, err
	}
	if !u.Active {
		return TokenPair{}, domain.User{}, fmt.Errorf("%w: account disabled", domain.ErrUnauthorized)
	}
	if u.RefreshHash == nil || subtle.ConstantTimeCompare([]byte(*u.RefreshHash), []byte(hashToken(raw))) != 1 {
		return TokenPair{}, domain.User{}, fmt.Errorf("%w: refresh token superseded", domain.ErrUnauthorized)
	}
	if stale(claims, u.LastLogoutAt) {
		return TokenPair{}, domain.User{}, fmt.Errorf("%w: session expired", domain.ErrUnauthorized)
	}
	pair, err := s.issue(ctx, u)
	if err != nil {
		return TokenPair{}, domain.User{}, err
	}
	u.PasswordHash = ""
	return pair, u, nil
}

// Logout stamps the user so tokens issued before this moment stop validating.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if err := s.users.SetRefreshHash(ctx, userID, nil); err != nil {
		return err
	}
	return s.users.SetLastLogout(ctx, userID, time.Now().UTC())
}

// Authenticate resolves a bearer access token to its user.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (domain.User, error) {
	claims, err := s.parseToken(raw)
	if err != nil {
		return domain.User{}, err
	}
	if typ, _ := claims["typ"].(string); typ == "refresh" {
		return domain.User{}, fmt.Errorf("%w: refresh token used as access token", domain.ErrUnauthorized)
	}
	id, err := subjectID(claims)
	if err != nil {
		return domain.User{}, err
	}
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, fmt.Errorf("%w: unknown user", domain.ErrUnauthorized)
		}
		return domain.User{}, err
	}
	if !u.Active {
		return domain.User{}, fmt.Errorf("%w: account disabled", domain.ErrUnauthorized)
	}
	if stale(claims, u.LastLogoutAt) {
		return domain.User{}, fmt.Errorf("%w: session expired", domain.ErrUnauthorized)
	}
	return u, nil
}

// RequestPasswordOTP mints a one-time code and mails it to the account
// owner. Only the code's hash ever touches the database.
func (s *AuthService) RequestPasswordOTP(ctx context.Context, email string) error {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	otp, err := generateOTP()
	if err != nil {
		return err
	}
	pr := domain.PasswordReset{UserID: u.ID, OTPHash: hashToken(otp), GeneratedAt: time.Now().UTC()}
	if err := s.users.UpsertPasswordReset(ctx, pr); err != nil {
		return err
	}
	if err := s.mailer.SendOTP(ctx, u.Email, u.Name, otp); err != nil {
		return fmt.Errorf("%w: could not send the reset code: %v", domain.ErrUnavailable, err)
	}
	return nil
}

func (s *AuthService) VerifyPasswordOTP(ctx context.Context, email, otp string) error {
	u, pr, err := s.loadReset(ctx, email)
	if err != nil {
		return err
	}
	if err := s.checkOTP(pr, otp); err != nil {
		return err
	}
	return s.users.MarkPasswordResetVerified(ctx, u.ID, time.Now().UTC())
}

// ResetPassword finishes the wizard. The code must have been verified in the
// previous step and still be inside its window; every open session is
// invalidated on success.
func (s *AuthService) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	u, pr, err := s.loadReset(ctx, email)
	if err != nil {
		return err
	}
	if err := s.checkOTP(pr, otp); err != nil {
		return err
	}
	if pr.VerifiedAt == nil {
		return fmt.Errorf("%w: verify the code first", domain.ErrInvalid)
	}
	if !ValidPassword(newPassword) {
		return fmt.Errorf("%w: password must be at least 8 characters and mix letters with digits", domain.ErrInvalid)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
		return err
	}
	_ = s.users.DeletePasswordReset(ctx, u.ID)
	_ = s.users.SetRefreshHash(ctx, u.ID, nil)
	return s.users.SetLastLogout(ctx, u.ID, time.Now().UTC())
}

func (s *AuthService) SavePushToken(ctx context.Context, userID int64, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is required", domain.ErrInvalid)
	}
	return s.users.SetPushToken(ctx, userID, token)
}

func (s *AuthService) loadReset(ctx context.Context, email string) (domain.User, domain.PasswordReset, error) {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return domain.User{}, domain.PasswordReset{}, err
	}
	pr, err := s.users.GetPasswordReset(ctx, u.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.PasswordReset{}, fmt.Errorf("%w: no reset in progress", domain.ErrNotFound)
		}
		return domain.User{}, domain.PasswordReset{}, err
	}
	return u, pr, nil
}

func (s *AuthService) checkOTP(pr domain.PasswordReset, otp string) error {
	if time.Since(pr.GeneratedAt) > s.otpTTL {
		return fmt.Errorf("%w: code expired, request a new one", domain.ErrUnauthorized)
	}
	if subtle.ConstantTimeCompare([]byte(pr.OTPHash), []byte(hashToken(otp))) != 1 {
		return fmt.Errorf("%w: wrong code", domain.ErrUnauthorized)
	}
	return nil
}

func (s *AuthService) issue(ctx context.Context, u domain.User) (TokenPair, error) {
	now := time.Now()
	sub := strconv.FormatInt(u.ID, 10)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": u.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(accessTokenTTL).Unix(),
	})
	accessStr, err := access.SignedString(s.secret)
	if err != nil {
		return TokenPair{}, err
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"typ": "refresh",
		"iat": now.Unix(),
		"exp": now.Add(refreshTokenTTL).Unix(),
	})
	refreshStr, err := refresh.SignedString(s.secret)
	if err != nil {
		return TokenPair{}, err
	}

	h := hashToken(refreshStr)
	if err := s.users.SetRefreshHash(ctx, u.ID, &h); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  accessStr,
		RefreshToken: refreshStr,
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
	}, nil
}

func (s *AuthService) parseToken(raw string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	return claims, nil
}

// stale reports whether the token was minted before the user's last logout.
func stale(claims jwt.MapClaims, lastLogout *time.Time) bool {
	if lastLogout == nil {
		return false
	}
	iat, ok := claims["iat"].(float64)
	if !ok {
		return true
	}
	return int64(iat) < lastLogout.Unix()
}

func subjectID(claims jwt.MapClaims) (int64, error) {
	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: malformed subject", domain.ErrUnauthorized)
	}
	return id, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashToken(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
