package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend-colatrails/internal/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = errors.New("invalid account input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrPasswordRequired   = errors.New("current password required")
	ErrWrongPassword      = errors.New("incorrect current password")
	ErrInvalidToken       = errors.New("token invalid")
)

var (
	hashPasswordFn    = bcrypt.GenerateFromPassword
	signTokenFn       = func(t *jwt.Token, key []byte) (string, error) { return t.SignedString(key) }
	parseWithClaimsFn = jwt.ParseWithClaims
)

const userColumns = `id, email, username, name, password_hash, created_at, updated_at`

type Service struct {
	db       db.Querier
	secret   []byte
	tokenTTL time.Duration
	cache    *cache.Cache
	now      func() time.Time
}

// NewService caches account reads for cacheTTL; zero disables the cache.
func NewService(q db.Querier, secret string, tokenTTL, cacheTTL time.Duration) *Service {
	s := &Service{
		db:       q,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
	if cacheTTL > 0 {
		s.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return s
}

func (s *Service) Signup(ctx context.Context, req SignupRequest) (User, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return User{}, fmt.Errorf("%w: email and password required", ErrInvalidInput)
	}
	hash, err := hashPasswordFn([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	now := s.now().UTC()
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     strings.TrimSpace(req.Username),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, user.ID, user.Email, user.Username, user.Name, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if isUniqueViolation(err) {
		return User{}, ErrEmailTaken
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// Login returns a signed token for valid credentials.
func (s *Service) Login(ctx context.Context, req LoginRequest) (User, string, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return User{}, "", fmt.Errorf("%w: email and password required", ErrInvalidInput)
	}

	user, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return User{}, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(id); ok {
			return cached.(User), nil
		}
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return User{}, err
	}
	if s.cache != nil {
		s.cache.SetDefault(id, user)
	}
	return user, nil
}

// Update edits the profile. Changing the password requires the current one.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (User, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return User{}, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email == "" {
			return User{}, fmt.Errorf("%w: email cannot be empty", ErrInvalidInput)
		}
		user.Email = email
	}
	if req.NewPassword != "" {
		if req.CurrentPassword == "" {
			return User{}, ErrPasswordRequired
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			return User{}, ErrWrongPassword
		}
		hash, err := hashPasswordFn([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		user.PasswordHash = string(hash)
	}

	updated, err := scanUser(s.db.QueryRow(ctx, `
		UPDATE users
		SET name=$2, email=$3, password_hash=$4, updated_at=$5
		WHERE id=$1
		RETURNING `+userColumns,
		user.ID, user.Name, user.Email, user.PasswordHash, s.now().UTC()))
	if isUniqueViolation(err) {
		return User{}, ErrEmailTaken
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	if s.cache != nil {
		s.cache.Delete(id)
	}
	return updated, nil
}

func (s *Service) IssueToken(userID string) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return signTokenFn(jwt.NewWithClaims(jwt.SigningMethodHS256, claims), s.secret)
}

// ParseToken validates a bearer token and returns its user id.
func (s *Service) ParseToken(token string) (string, error) {
	parsed, err := parseWithClaimsFn(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

func (s *Service) load(ctx context.Context, id string) (User, error) {
	user, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return user, err
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
