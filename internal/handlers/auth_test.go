package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwell/bookwell-api/internal/authz"
	"github.com/bookwell/bookwell-api/internal/errs"
	"github.com/bookwell/bookwell-api/internal/models"
	"github.com/bookwell/bookwell-api/internal/repository"
)

type fakeUserRepo struct {
	users map[string]models.User
	// passwords are kept in the clear; hashing belongs to the real repo.
	passwords map[string]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:     make(map[string]models.User),
		passwords: make(map[string]string),
	}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, email, name, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, exists := f.users[email]; exists {
		return models.User{}, errs.Conflict("a user with this email already exists")
	}
	user := models.User{ID: "user-" + email, Email: email, Name: name, IsActive: true}
	f.users[email] = user
	f.passwords[email] = password
	return user, nil
}

func (f *fakeUserRepo) AuthenticateUser(_ context.Context, email, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, ok := f.users[email]
	if !ok || f.passwords[email] != password {
		return models.User{}, repository.ErrInvalidCredentials
	}
	return user, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	user, ok := f.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return models.User{}, errs.NotFound("user not found")
	}
	return user, nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, userID string) (models.User, error) {
	for _, user := range f.users {
		if user.ID == userID {
			return user, nil
		}
	}
	return models.User{}, errs.NotFound("user not found")
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newTestAuthHandler() *AuthHandler {
	return NewAuthHandler(newFakeUserRepo(), "test-secret", zerolog.Nop())
}

func postJSON(t *testing.T, h http.HandlerFunc, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, target, &buf))
	return rec
}

func TestSignUp(t *testing.T) {
	t.Run("creates user", func(t *testing.T) {
		h := newTestAuthHandler()

		rec := postJSON(t, h.SignUp, "/api/signup", signupRequest{
			Email: "anna@example.com", Password: "hunter22", Name: "Anna",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var user models.User
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
		assert.Equal(t, "anna@example.com", user.Email)
		assert.NotContains(t, rec.Body.String(), "hunter22")
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		h := newTestAuthHandler()

		body := signupRequest{Email: "anna@example.com", Password: "hunter22"}
		require.Equal(t, http.StatusCreated, postJSON(t, h.SignUp, "/api/signup", body).Code)
		rec := postJSON(t, h.SignUp, "/api/signup", body)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		h := newTestAuthHandler()

		rec := postJSON(t, h.SignUp, "/api/signup", signupRequest{Email: "anna@example.com"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogin(t *testing.T) {
	h := newTestAuthHandler()
	require.Equal(t, http.StatusCreated, postJSON(t, h.SignUp, "/api/signup", signupRequest{
		Email: "anna@example.com", Password: "hunter22",
	}).Code)

	t.Run("returns a usable bearer token", func(t *testing.T) {
		rec := postJSON(t, h.Login, "/api/login", loginRequest{
			Email: "anna@example.com", Password: "hunter22",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.NotEmpty(t, resp["token"])

		var got authz.Identity
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = authz.IdentityFromRequest(r)
		})
		req := httptest.NewRequest(http.MethodGet, "/api/invites", nil)
		req.Header.Set("Authorization", "Bearer "+resp["token"])
		mw := httptest.NewRecorder()
		h.JWTMiddleware(next).ServeHTTP(mw, req)

		require.Equal(t, http.StatusOK, mw.Code)
		assert.Equal(t, "user-anna@example.com", got.UserID)
		assert.Equal(t, "anna@example.com", got.Email)
	})

	t.Run("wrong password unauthorized", func(t *testing.T) {
		rec := postJSON(t, h.Login, "/api/login", loginRequest{
			Email: "anna@example.com", Password: "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown user unauthorized", func(t *testing.T) {
		rec := postJSON(t, h.Login, "/api/login", loginRequest{
			Email: "nobody@example.com", Password: "hunter22",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestJWTMiddleware(t *testing.T) {
	h := newTestAuthHandler()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/invites", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.JWTMiddleware(next).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthorized", decodeErrorCode(t, rec))
		})
	}
}
