package auth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"esilogis/internal/bootstrap/logging"
	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
	"esilogis/internal/ports"
	"esilogis/internal/usecase/intervention"
)

const minPasswordLength = 8

type Config struct {
	Secret   string
	TokenTTL time.Duration
	Issuer   string
}

type Service struct {
	identity ports.IdentityRepository
	cfg      Config
	now      func() time.Time
}

type Token struct {
	AccessToken string
	ExpiresAt   time.Time
	Actor       intervention.Actor
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func NewService(identity ports.IdentityRepository, cfg Config) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	return &Service{
		identity: identity,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Login checks the password of a non-blocked account and issues an HS256
// bearer token. Unknown emails and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, email string, password string) (Token, error) {
	if err := s.checkReady(); err != nil {
		return Token{}, err
	}
	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.auth"))

	account, err := s.identity.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ports.ErrAccountNotFound) {
			return Token{}, errs.Unauthenticated("invalid email or password")
		}
		return Token{}, errs.Persistence(err, "load account")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return Token{}, errs.Unauthenticated("invalid email or password")
	}
	if account.IsBlocked {
		logging.Warn(logCtx, "blocked account attempted login", slog.Uint64("account_id", account.ID))
		return Token{}, errs.Permission("account is blocked")
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.TokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(account.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(account.ID, 10),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return Token{}, errs.Wrap(err, "sign token")
	}

	logging.Info(logCtx, "login succeeded", slog.Uint64("account_id", account.ID), slog.String("role", string(account.Role)))
	return Token{
		AccessToken: signed,
		ExpiresAt:   expiresAt,
		Actor:       intervention.Actor{UserAccountID: account.ID, Role: account.Role},
	}, nil
}

// Authenticate verifies a bearer token and returns the actor it names.
func (s *Service) Authenticate(raw string) (intervention.Actor, error) {
	if err := s.checkReady(); err != nil {
		return intervention.Actor{}, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return intervention.Actor{}, errs.Unauthenticated("missing bearer token")
	}

	var parsed claims
	parser := jwt.Parser{
		ValidMethods: []string{jwt.SigningMethodHS256.Alg()},
	}
	_, err := parser.ParseWithClaims(raw, &parsed, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return intervention.Actor{}, errs.Unauthenticated("invalid token: %v", err)
	}
	if s.cfg.Issuer != "" && !parsed.VerifyIssuer(s.cfg.Issuer, true) {
		return intervention.Actor{}, errs.Unauthenticated("invalid token issuer")
	}

	accountID, err := strconv.ParseUint(parsed.Subject, 10, 64)
	if err != nil || accountID == 0 {
		return intervention.Actor{}, errs.Unauthenticated("invalid token subject")
	}
	role, err := domain.ParseRole(parsed.Role)
	if err != nil {
		return intervention.Actor{}, errs.Unauthenticated("invalid token role")
	}
	return intervention.Actor{UserAccountID: accountID, Role: role}, nil
}

type CreateAccountInput struct {
	Email     string
	Password  string
	Role      string
	FirstName string
	LastName  string
	Phone     string
	// WithPerson creates the person profile technicians and admins need to
	// be assigned, pause or resolve.
	WithPerson bool
}

func (s *Service) CreateAccount(ctx context.Context, input CreateAccountInput) (ports.UserAccount, error) {
	if err := s.checkReady(); err != nil {
		return ports.UserAccount{}, err
	}

	email := strings.TrimSpace(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return ports.UserAccount{}, errs.Validation("a valid email is required")
	}
	if len(input.Password) < minPasswordLength {
		return ports.UserAccount{}, errs.Validation("password must be at least %d characters", minPasswordLength)
	}
	role, err := domain.ParseRole(input.Role)
	if err != nil {
		return ports.UserAccount{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return ports.UserAccount{}, errs.Wrap(err, "hash password")
	}

	var person *ports.Person
	if input.WithPerson {
		person = &ports.Person{
			FirstName: strings.TrimSpace(input.FirstName),
			LastName:  strings.TrimSpace(input.LastName),
			Phone:     strings.TrimSpace(input.Phone),
		}
	}

	account, err := s.identity.CreateAccount(ctx, ports.UserAccount{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now(),
	}, person)
	if err != nil {
		return ports.UserAccount{}, errs.Persistence(err, "create account")
	}

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "usecase.auth")),
		"account created",
		slog.Uint64("account_id", account.ID),
		slog.String("role", string(role)),
	)
	return account, nil
}

func (s *Service) checkReady() error {
	if s == nil || s.identity == nil {
		return errors.New("auth service is not initialized")
	}
	if s.cfg.Secret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	return nil
}
