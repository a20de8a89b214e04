package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/college-events-go/middleware"
	"github.com/phillip/college-events-go/models"
	"github.com/phillip/college-events-go/services"
	"github.com/phillip/college-events-go/store"
)

type fakeUsers struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.User
}

func (f *fakeUsers) Insert(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func newAuthRouter(t *testing.T) (*gin.Engine, *fakeUsers) {
	t.Helper()
	users := &fakeUsers{byID: map[primitive.ObjectID]models.User{}}
	tokens := services.NewTokenIssuer("secret", "college-events", time.Hour)
	d := &Deps{Auth: services.NewAuthService(users, tokens, nil)}

	r := gin.New()
	r.POST("/auth/register", Register(d))
	r.POST("/auth/login", Login(d))
	r.GET("/auth/me", middleware.AuthMiddleware(tokens), Me(d))
	return r, users
}

func TestAuthRoutes(t *testing.T) {
	r, users := newAuthRouter(t)
	serve := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := serve(jsonRequest(http.MethodPost, "/auth/register", `{"username":"alice","email":"alice@college.edu","password":"s3cret!"}`))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reg := decode(t, w)
	assert.Equal(t, "User registered successfully", reg["message"])
	assert.NotEmpty(t, reg["token"])
	user := reg["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "student", user["role"])
	assert.NotContains(t, user, "password")
	require.Len(t, users.byID, 1)

	w = serve(jsonRequest(http.MethodPost, "/auth/register", `{"username":"alice2","email":"alice@college.edu","password":"s3cret!"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists", decode(t, w)["message"])

	form := url.Values{"email": {"alice@college.edu"}, "password": {"s3cret!"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = serve(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode(t, w)["token"].(string)

	w = serve(jsonRequest(http.MethodPost, "/auth/login", `{"email":"alice@college.edu","password":"wrong!!"}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w)["message"])

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = serve(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice@college.edu", decode(t, w)["user"].(map[string]any)["email"])

	w = serve(jsonRequest(http.MethodPost, "/auth/register", `{"username":"b","email":"nope","password":"1"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, decode(t, w)["errors"], 3)
}

func TestHealth(t *testing.T) {
	d := &Deps{}
	r := gin.New()
	r.GET("/health", Health(d))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	d.HealthCheck = func(context.Context) error { return errors.New("no primary") }
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
