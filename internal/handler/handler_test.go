package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/gallery/internal/auth"
	"github.com/prn-tf/gallery/internal/cache/memory"
	"github.com/prn-tf/gallery/internal/domain"
	"github.com/prn-tf/gallery/internal/pkg/crypto"
	"github.com/prn-tf/gallery/internal/repository"
	"github.com/prn-tf/gallery/internal/repository/sqlite"
	"github.com/prn-tf/gallery/internal/service"
)

type testServer struct {
	handler http.Handler
	images  *service.ImageService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(filepath.Join(t.TempDir(), "gallery.db")), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))

	users := sqlite.NewUserRepository(db)
	imageRepo := sqlite.NewImageRepository(db)

	cache := memory.NewCache(time.Minute)
	t.Cleanup(cache.Stop)
	owners := repository.NewCachedOwnerResolver(users, cache, time.Hour, logger)

	hasher, err := crypto.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	codec, err := auth.NewTokenCodec(auth.TokenConfig{Secret: []byte("handler-test-secret")})
	require.NoError(t, err)

	credentials := service.NewCredentialService(users, hasher, logger)
	authService := service.NewAuthService(credentials, codec, logger)
	authorizer := auth.NewOwnershipAuthorizer(owners, logger)
	images := service.NewImageService(imageRepo, owners, authorizer, domain.DefaultMaxImageNameLength, logger)

	router := NewRouter(RouterConfig{
		AuthHandler:  NewAuthHandler(authService, 1<<20, logger),
		ImageHandler: NewImageHandler(images, 1<<20, logger),
		AuthGate:     auth.Middleware(codec, logger),
		Database:     db,
		Logger:       logger,
	})

	return &testServer{handler: router.Handler(), images: images}
}

func (s *testServer) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, username, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auth/register", `{"username":"`+username+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeEnvelope(t, rec).Token
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) service.TokenEnvelope {
	t.Helper()
	var env service.TokenEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// =============================================================================
// Auth endpoints
// =============================================================================

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/register", `{"username":"alice","password":"secret123"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "alice", raw["username"])
	assert.NotEmpty(t, raw["token"])

	expiresAt, err := time.Parse(time.RFC3339, raw["expires_at"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	rec = s.do(t, http.MethodPost, "/auth/register", `{"username":"alice","password":"anything"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Username already taken", decodeError(t, rec).Message)
}

func TestAuthEndpoints_BadRequests(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "empty body", body: "", message: "Missing username or password"},
		{name: "empty object", body: `{}`, message: "Missing username or password"},
		{name: "missing password", body: `{"username":"alice"}`, message: "Missing username or password"},
		{name: "empty username", body: `{"username":"","password":"x"}`, message: "Missing username or password"},
		{name: "null password", body: `{"username":"alice","password":null}`, message: "Missing username or password"},
		{name: "numeric username", body: `{"username":42,"password":"x"}`, message: "Username and password must be strings"},
		{name: "array password", body: `{"username":"alice","password":["x"]}`, message: "Username and password must be strings"},
		{name: "not json", body: `username=alice`, message: "Request body must be a JSON object"},
		{name: "json array", body: `["alice","x"]`, message: "Request body must be a JSON object"},
		{name: "trailing garbage", body: `{"username":"alice","password":"x"}garbage`, message: "Request body must be a JSON object"},
		{name: "second object", body: `{"username":"alice","password":"x"} {"username":"bob"}`, message: "Request body must be a JSON object"},
	}

	for _, path := range []string{"/auth/register", "/auth/login"} {
		for _, tt := range tests {
			t.Run(path+" "+tt.name, func(t *testing.T) {
				rec := s.do(t, http.MethodPost, path, tt.body, "")
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Equal(t, tt.message, decodeError(t, rec).Message)
			})
		}
	}
}

func TestRegister_PasswordTooLong(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/register", `{"username":"alice","password":"`+strings.Repeat("p", 73)+`"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_TrailingNewlineAccepted(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/register", "{\"username\":\"alice\",\"password\":\"secret123\"}\n", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestLogin_PasswordBeyondLimitIsRejected(t *testing.T) {
	s := newTestServer(t)
	exact := strings.Repeat("x", 72)
	s.register(t, "alice", exact)

	rec := s.do(t, http.MethodPost, "/auth/login", `{"username":"alice","password":"`+exact+`WRONG-SUFFIX"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password must be at most 72 bytes", decodeError(t, rec).Message)
	assert.NotContains(t, rec.Body.String(), "token")

	rec = s.do(t, http.MethodPost, "/auth/login", `{"username":"alice","password":"`+exact+`"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "secret123")

	rec := s.do(t, http.MethodPost, "/auth/login", `{"username":"alice","password":"secret123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "alice", env.Username)
	assert.NotEmpty(t, env.Token)

	wrong := s.do(t, http.MethodPost, "/auth/login", `{"username":"alice","password":"wrong"}`, "")
	unknown := s.do(t, http.MethodPost, "/auth/login", `{"username":"nobody","password":"secret123"}`, "")

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	assert.Equal(t, "Incorrect username or password", decodeError(t, wrong).Message)
}

// =============================================================================
// Protected image endpoints
// =============================================================================

func TestAPI_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		rec := s.do(t, http.MethodGet, "/api/images", "", token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "token %q", token)
	}

	rec := s.do(t, http.MethodPut, "/api/images/whatever", `{"name":"x"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestScenario_OwnershipOverHTTP(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	tokenA := s.register(t, "alice", "secret123")

	rec := s.do(t, http.MethodPost, "/auth/login", `{"username":"alice","password":"secret123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	tokenB := decodeEnvelope(t, rec).Token
	assert.NotEmpty(t, tokenB)

	rec = s.do(t, http.MethodPost, "/auth/login", `{"username":"alice","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/register", `{"username":"alice","password":"anything"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	bobToken := s.register(t, "bob", "hunter22")
	img, err := s.images.Create(ctx, service.CreateImageInput{OwnerUsername: "bob", Src: "/uploads/sunset.png", Name: "Sunset"})
	require.NoError(t, err)
	path := "/api/images/" + img.ID.String()

	rec = s.do(t, http.MethodPut, path, `{"name":"Alice was here"}`, tokenA)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, path, "", tokenB)
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.ImageWithAuthor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Sunset", got.Name)
	assert.Equal(t, "bob", got.Author.Username)

	rec = s.do(t, http.MethodPut, path, `{"name":"Dusk"}`, bobToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, path, "", tokenA)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Dusk", got.Name)
}

func TestRename_Validation(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "bob", "hunter22")

	img, err := s.images.Create(context.Background(), service.CreateImageInput{OwnerUsername: "bob", Src: "/uploads/a.png", Name: "a"})
	require.NoError(t, err)
	path := "/api/images/" + img.ID.String()

	tests := []struct {
		name    string
		path    string
		body    string
		status  int
		message string
	}{
		{name: "missing name", path: path, body: `{}`, status: http.StatusBadRequest, message: "Name field is required"},
		{name: "empty name", path: path, body: `{"name":""}`, status: http.StatusBadRequest, message: "Name field is required"},
		{name: "numeric name", path: path, body: `{"name":5}`, status: http.StatusBadRequest, message: "Name field must be a string"},
		{name: "too long", path: path, body: `{"name":"` + strings.Repeat("n", 101) + `"}`, status: http.StatusUnprocessableEntity, message: "Image name exceeds 100 characters"},
		{name: "malformed id", path: "/api/images/not-a-uuid", body: `{"name":"x"}`, status: http.StatusNotFound, message: "Image does not exist"},
		{name: "unknown id", path: "/api/images/" + domain.NewImageID().String(), body: `{"name":"x"}`, status: http.StatusNotFound, message: "Image does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPut, tt.path, tt.body, token)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decodeError(t, rec).Message)
		})
	}

	rec := s.do(t, http.MethodPut, path, `{"name":"`+strings.Repeat("n", 100)+`"}`, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListImages(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alice", "secret123")
	ctx := context.Background()

	for _, name := range []string{"Sunset", "sunrise", "Mountain", "100%_real"} {
		_, err := s.images.Create(ctx, service.CreateImageInput{OwnerUsername: "alice", Src: "/uploads/" + name, Name: name})
		require.NoError(t, err)
	}

	list := func(query string) []domain.ImageWithAuthor {
		rec := s.do(t, http.MethodGet, "/api/images"+query, "", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var out []domain.ImageWithAuthor
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return out
	}

	assert.Len(t, list(""), 4)
	assert.Len(t, list("?search=SUN"), 2)
	assert.Len(t, list("?search=%25_"), 1, "wildcards are matched literally")
	assert.Empty(t, list("?search=ocean"))

	rec := s.do(t, http.MethodGet, "/api/images?search=a&search=b", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Search parameter must be a single string value", decodeError(t, rec).Message)
}

// =============================================================================
// Public routes
// =============================================================================

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/hello", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, World", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
