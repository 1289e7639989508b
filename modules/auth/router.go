package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stackdek/stackdek/modules/company"
	"github.com/stackdek/stackdek/pkg/httpserver"
	"github.com/stackdek/stackdek/pkg/jwt"
	"github.com/stackdek/stackdek/pkg/logger"
)

// Router returns the public auth endpoints, mounted under /auth.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	return r
}

// MeHandler returns the current user; it requires the token middleware.
func (s *Service) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := jwt.GetClaims[Claims](r.Context())
		if !ok {
			httpserver.ErrorJSON(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			httpserver.ErrorJSON(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		u, err := s.GetUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				httpserver.ErrorJSON(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			httpserver.ErrorJSON(w, http.StatusInternalServerError, "failed to load user")
			return
		}
		httpserver.JSON(w, http.StatusOK, u)
	}
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var params RegisterParams
	if err := httpserver.DecodeJSON(r, &params); err != nil {
		httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.Register(r.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, ErrWeakPassword):
			httpserver.ErrorJSON(w, http.StatusBadRequest, "password must be at least 8 characters")
		case errors.Is(err, ErrInvalidInput), errors.Is(err, company.ErrInvalidInput):
			httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid input")
		case errors.Is(err, ErrEmailTaken):
			httpserver.ErrorJSON(w, http.StatusConflict, "email already registered")
		default:
			s.log.ErrorContext(r.Context(), "registration failed", logger.Error(err))
			httpserver.ErrorJSON(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}
	httpserver.JSON(w, http.StatusCreated, result)
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var params struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpserver.DecodeJSON(r, &params); err != nil {
		httpserver.ErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.Login(r.Context(), params.Email, params.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httpserver.ErrorJSON(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		s.log.ErrorContext(r.Context(), "login failed", logger.Error(err))
		httpserver.ErrorJSON(w, http.StatusInternalServerError, "login failed")
		return
	}
	httpserver.JSON(w, http.StatusOK, result)
}
