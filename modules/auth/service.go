package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/stackdek/stackdek/modules/company"
	"github.com/stackdek/stackdek/pkg/jwt"
	"github.com/stackdek/stackdek/pkg/logger"
	"github.com/stackdek/stackdek/pkg/tenant"
)

const minPasswordLength = 8

// Config holds auth settings loaded from the environment.
type Config struct {
	SigningKey string        `env:"JWT_SIGNING_KEY,required"`
	TokenTTL   time.Duration `env:"JWT_TOKEN_TTL" envDefault:"24h"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"stackdek"`
}

// Claims is the token payload: standard claims plus the ids the rest of the
// request pipeline needs.
type Claims struct {
	jwt.StandardClaims
	UserID    string `json:"uid"`
	CompanyID string `json:"company_id"`
	Email     string `json:"email"`
}

// Service handles registration and login. Registering a user also creates
// its company, which seeds the default subscription.
type Service struct {
	store     Store
	companies *company.Service
	tokens    *jwt.Service
	cfg       Config
	log       *slog.Logger
	now       func() time.Time
}

// NewService creates an auth service.
func NewService(store Store, companies *company.Service, tokens *jwt.Service, cfg Config, log *slog.Logger) *Service {
	return &Service{
		store:     store,
		companies: companies,
		tokens:    tokens,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// RegisterParams carries signup input. CompanyName becomes the new tenant.
type RegisterParams struct {
	CompanyName string `json:"company_name"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// AuthResult is a logged-in session: the user plus a bearer token.
type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Register creates a company and its first user, returning a ready session.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" {
		return nil, errors.Join(ErrInvalidInput, errors.New("email is required"))
	}
	if len(params.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}

	c, err := s.companies.Create(ctx, company.CreateParams{
		Name:  params.CompanyName,
		Email: email,
	})
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.New(),
		CompanyID:    c.ID,
		Email:        email,
		Name:         strings.TrimSpace(params.Name),
		PasswordHash: string(hash),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "user registered",
		logger.UserID(u.ID.String()), logger.CompanyID(c.ID.String()))
	return s.session(u)
}

// Login verifies credentials and returns a session. Lookup and compare
// failures collapse into one error so responses do not reveal which field
// was wrong.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.log.InfoContext(ctx, "user logged in",
		logger.UserID(u.ID.String()), logger.CompanyID(u.CompanyID.String()))
	return s.session(u)
}

// GetUser loads a user by id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) session(u *User) (*AuthResult, error) {
	now := s.now()
	token, err := s.tokens.Generate(Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   u.ID.String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.cfg.TokenTTL).Unix(),
		},
		UserID:    u.ID.String(),
		CompanyID: u.CompanyID.String(),
		Email:     u.Email,
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Token: token}, nil
}

// Middleware validates bearer tokens and injects Claims into the context.
func Middleware(tokens *jwt.Service) func(http.Handler) http.Handler {
	return jwt.Middleware[Claims](tokens)
}

// ClaimsResolver resolves the tenant from token claims. It runs after the
// token middleware, so an absent claim simply means an anonymous request.
func ClaimsResolver() tenant.Resolver {
	return tenant.ResolverFunc(func(r *http.Request) (string, error) {
		claims, ok := jwt.GetClaims[Claims](r.Context())
		if !ok {
			return "", nil
		}
		return claims.CompanyID, nil
	})
}
