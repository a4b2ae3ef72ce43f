package server

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

type user struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	User        tokenUser `json:"user"`
}

type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type userKey struct{}

func withUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userKey{}, id)
}

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

// issueToken signs an HS256 access token for u.
func (s *Server) issueToken(u user) (tokenResponse, error) {
	now := s.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
		Email: u.Email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return tokenResponse{}, fmt.Errorf("signing token: %w", err)
	}
	return tokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int(s.cfg.TokenTTL.Seconds()),
		User:        tokenUser{ID: u.ID, Email: u.Email},
	}, nil
}

// authenticate verifies token and returns its subject.
func (s *Server) authenticate(token string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	c := &claims{}
	parsed, err := parser.ParseWithClaims(token, c, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", errors.New("invalid token")
	}
	if c.Subject == "" {
		return "", errors.New("subject claim required")
	}
	return c.Subject, nil
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// requireAPIKey rejects requests without the configured project key.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey != "" {
			got := r.Header.Get("apikey")
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.APIKey)) != 1 {
				writeJSON(w, http.StatusUnauthorized, newAPIError(http.StatusUnauthorized, "invalid_api_key", "invalid API key"))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requireUser resolves the bearer token into a user id on the context.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeJSON(w, http.StatusUnauthorized, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required"))
			return
		}
		sub, err := s.authenticate(token)
		if err != nil {
			s.log.Debug("rejecting token", "err", err)
			writeJSON(w, http.StatusUnauthorized, newAPIError(http.StatusUnauthorized, "invalid_token", "JWT expired or invalid"))
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), sub)))
	})
}

func decodeCredentials(r *http.Request) (credentials, error) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		return c, badRequest("invalid JSON body")
	}
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.Email == "" || c.Password == "" {
		return c, badRequest("email and password are required")
	}
	return c, nil
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	c, err := decodeCredentials(r)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		writeError(w, s.log, newAPIError(http.StatusUnprocessableEntity, "invalid_email", "unable to validate email address"))
		return
	}
	if len(c.Password) < minPasswordLen {
		writeError(w, s.log, newAPIError(http.StatusUnprocessableEntity, "weak_password",
			fmt.Sprintf("password should be at least %d characters", minPasswordLen)))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, s.log, fmt.Errorf("hashing password: %w", err))
		return
	}

	u := user{ID: uuid.NewString(), Email: c.Email, PasswordHash: string(hash), CreatedAt: s.now().UTC()}
	err = s.createUser(r.Context(), u)
	if errors.Is(err, errUserExists) {
		writeError(w, s.log, newAPIError(http.StatusUnprocessableEntity, "user_already_exists", "User already registered"))
		return
	}
	if err != nil {
		writeError(w, s.log, err)
		return
	}

	s.log.Info("user signed up", "user_id", u.ID)
	s.respondToken(w, u)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if grant := r.URL.Query().Get("grant_type"); grant != "password" {
		writeError(w, s.log, newAPIError(http.StatusBadRequest, "unsupported_grant_type", "unsupported grant type "+grant))
		return
	}
	c, err := decodeCredentials(r)
	if err != nil {
		writeError(w, s.log, err)
		return
	}

	invalid := newAPIError(http.StatusBadRequest, "invalid_grant", "Invalid login credentials")
	u, err := s.userByEmail(r.Context(), c.Email)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, s.log, invalid)
		return
	}
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(c.Password)); err != nil {
		writeError(w, s.log, invalid)
		return
	}

	s.respondToken(w, u)
}

func (s *Server) respondToken(w http.ResponseWriter, u user) {
	resp, err := s.issueToken(u)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

var errUserExists = errors.New("user already exists")

func (s *Server) createUser(ctx context.Context, u user) error {
	var count int
	if err := s.db.GetContext(ctx, &count, s.db.Rebind("SELECT COUNT(*) FROM users WHERE email = ?"), u.Email); err != nil {
		return fmt.Errorf("checking user: %w", err)
	}
	if count > 0 {
		return errUserExists
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (:id, :email, :password_hash, :created_at)`, u)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

func (s *Server) userByEmail(ctx context.Context, email string) (user, error) {
	var u user
	err := s.db.GetContext(ctx, &u, s.db.Rebind("SELECT * FROM users WHERE email = ?"), email)
	return u, err
}
