package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/numeneon-social/backend/internal/middleware"
	"github.com/numeneon-social/backend/internal/models"
	"github.com/numeneon-social/backend/internal/notify"
	"github.com/numeneon-social/backend/internal/repositories"
	"github.com/numeneon-social/backend/internal/services"
	"github.com/numeneon-social/backend/internal/validators"
)

const testJWTSecret = "test-secret"

// memGraphStore is an in-memory FriendGraphStore for handler tests.
type memGraphStore struct {
	mu       sync.Mutex
	edges    []models.FriendEdge
	requests map[uint]models.FriendRequest
	nextID   uint
}

func newMemGraphStore() *memGraphStore {
	return &memGraphStore{requests: make(map[uint]models.FriendRequest)}
}

func (f *memGraphStore) ListFriendIDs(ownerID uint) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint
	for _, e := range f.edges {
		if e.OwnerID == ownerID {
			ids = append(ids, e.FriendID)
		}
	}
	return ids, nil
}

func (f *memGraphStore) AreFriends(a, b uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasEdge(a, b), nil
}

func (f *memGraphStore) hasEdge(a, b uint) bool {
	for _, e := range f.edges {
		if e.OwnerID == a && e.FriendID == b {
			return true
		}
	}
	return false
}

func (f *memGraphStore) addPairLocked(a, b uint) error {
	if f.hasEdge(a, b) || f.hasEdge(b, a) {
		return repositories.ErrDuplicateEdge
	}
	now := time.Now()
	f.edges = append(f.edges,
		models.FriendEdge{OwnerID: a, FriendID: b, CreatedAt: now},
		models.FriendEdge{OwnerID: b, FriendID: a, CreatedAt: now},
	)
	return nil
}

func (f *memGraphStore) AddFriendPair(a, b uint) error {
	if a == b {
		return repositories.ErrSelfFriendship
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addPairLocked(a, b)
}

func (f *memGraphStore) RemoveFriendPair(a, b uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.edges[:0]
	for _, e := range f.edges {
		if (e.OwnerID == a && e.FriendID == b) || (e.OwnerID == b && e.FriendID == a) {
			continue
		}
		kept = append(kept, e)
	}
	f.edges = kept
	return nil
}

func (f *memGraphStore) CreateRequest(req *models.FriendRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	req.ID = f.nextID
	req.CreatedAt = time.Now()
	f.requests[req.ID] = *req
	return nil
}

func (f *memGraphStore) GetRequestByID(id uint) (*models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &req, nil
}

func (f *memGraphStore) RequestExists(fromID, toID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.requests {
		if req.FromUserID == fromID && req.ToUserID == toID {
			return true, nil
		}
	}
	return false, nil
}

func (f *memGraphStore) ListIncomingRequests(userID uint) ([]models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.FriendRequest
	for id := f.nextID; id >= 1; id-- {
		if req, ok := f.requests[id]; ok && req.ToUserID == userID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (f *memGraphStore) DeleteRequest(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.requests, id)
	return nil
}

func (f *memGraphStore) ClaimRequest(id uint) (*models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if err := f.addPairLocked(req.FromUserID, req.ToUserID); err != nil {
		return nil, err
	}
	delete(f.requests, id)
	return &req, nil
}

// memUserRepo is an in-memory user directory.
type memUserRepo struct {
	users map[uint]models.User
}

func (f *memUserRepo) CreateUser(user *models.User) error {
	f.users[user.ID] = *user
	return nil
}

func (f *memUserRepo) GetUserByID(id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (f *memUserRepo) GetUserByUsername(username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *memUserRepo) SearchUsers(query string) ([]models.User, error) { return nil, nil }

type noopNotifier struct{}

func (noopNotifier) DispatchAsync(notify.Event) {}

func newFriendshipTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	return newFriendshipTestServerWithStore(t, newMemGraphStore())
}

func newFriendshipTestServerWithStore(t *testing.T, store repositories.FriendGraphStore) *echo.Echo {
	t.Helper()
	users := &memUserRepo{users: map[uint]models.User{
		1: {ID: 1, Username: "ana", FirstName: "Ana", LastName: "Ng"},
		2: {ID: 2, Username: "ben", FirstName: "Ben", LastName: "Ito"},
		3: {ID: 3, Username: "cho", FirstName: "Cho", LastName: "Lee"},
	}}
	svc := services.NewFriendshipService(store, users, noopNotifier{})

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Validator = validators.NewValidator()
	api := e.Group("")
	api.Use(middleware.JWTAuthMiddleware(testJWTSecret))
	NewFriendshipHandler(svc).RegisterFriendshipRoutes(api)
	return e
}

func signedToken(t *testing.T, userID uint, username string) string {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func doRequest(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestFriendshipLifecycle(t *testing.T) {
	e := newFriendshipTestServer(t)
	ana := signedToken(t, 1, "ana")
	ben := signedToken(t, 2, "ben")

	// Ana sends Ben a request.
	rec := doRequest(e, http.MethodPost, "/friends/request/2", ana)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Friend request sent", decodeBody(t, rec)["message"])

	// Ben sees it pending.
	rec = doRequest(e, http.MethodGet, "/friends/requests", ben)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []models.PendingRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, "ana", pending[0].FromUser.Username)
	requestID := pending[0].ID

	// Ben accepts; the response carries Ana's summary.
	rec = doRequest(e, http.MethodPost, fmt.Sprintf("/friends/accept/%d", requestID), ben)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Friend request accepted", body["message"])
	friend, ok := body["friend"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ana", friend["username"])

	// Both sides now list each other.
	for _, tok := range []string{ana, ben} {
		rec = doRequest(e, http.MethodGet, "/friends", tok)
		require.Equal(t, http.StatusOK, rec.Code)
		var friends []models.UserSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &friends))
		assert.Len(t, friends, 1)
	}

	// The request no longer shows as pending.
	rec = doRequest(e, http.MethodGet, "/friends/requests", ben)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	// Ana unfriends Ben; both lists are empty again.
	rec = doRequest(e, http.MethodDelete, "/friends/remove/2", ana)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(e, http.MethodGet, "/friends", ben)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	// Removing again is still a 200.
	rec = doRequest(e, http.MethodDelete, "/friends/remove/2", ana)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSendFriendRequestErrors(t *testing.T) {
	e := newFriendshipTestServer(t)
	ana := signedToken(t, 1, "ana")

	rec := doRequest(e, http.MethodPost, "/friends/request/1", ana)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You cannot friend yourself", decodeBody(t, rec)["message"])

	rec = doRequest(e, http.MethodPost, "/friends/request/99", ana)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decodeBody(t, rec)["message"])

	rec = doRequest(e, http.MethodPost, "/friends/request/2", ana)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doRequest(e, http.MethodPost, "/friends/request/2", ana)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Friend request already sent", decodeBody(t, rec)["message"])

	rec = doRequest(e, http.MethodPost, "/friends/request/abc", ana)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// raceGraphStore fails CreateRequest with the unique-index sentinel, as
// if a concurrent identical send committed first.
type raceGraphStore struct {
	*memGraphStore
}

func (s *raceGraphStore) CreateRequest(req *models.FriendRequest) error {
	return repositories.ErrDuplicateRequest
}

func TestSendFriendRequestInsertRaceIsBadRequest(t *testing.T) {
	e := newFriendshipTestServerWithStore(t, &raceGraphStore{memGraphStore: newMemGraphStore()})
	ana := signedToken(t, 1, "ana")

	rec := doRequest(e, http.MethodPost, "/friends/request/2", ana)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Friend request already sent", decodeBody(t, rec)["message"])
}

func TestAcceptFriendRequestErrors(t *testing.T) {
	e := newFriendshipTestServer(t)
	ana := signedToken(t, 1, "ana")
	ben := signedToken(t, 2, "ben")
	cho := signedToken(t, 3, "cho")

	rec := doRequest(e, http.MethodPost, "/friends/request/2", ana)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Only the recipient may accept.
	rec = doRequest(e, http.MethodPost, "/friends/accept/1", cho)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not authorized", decodeBody(t, rec)["message"])

	rec = doRequest(e, http.MethodPost, "/friends/accept/999", ben)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Request not found", decodeBody(t, rec)["message"])

	// A second accept of the same request is gone.
	rec = doRequest(e, http.MethodPost, "/friends/accept/1", ben)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doRequest(e, http.MethodPost, "/friends/accept/1", ben)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeclineFriendRequest(t *testing.T) {
	e := newFriendshipTestServer(t)
	ana := signedToken(t, 1, "ana")
	ben := signedToken(t, 2, "ben")

	rec := doRequest(e, http.MethodPost, "/friends/request/2", ana)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(e, http.MethodPost, "/friends/decline/1", ben)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Friend request declined", decodeBody(t, rec)["message"])

	// No friendship was created and the sender may try again.
	rec = doRequest(e, http.MethodGet, "/friends", ana)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
	rec = doRequest(e, http.MethodPost, "/friends/request/2", ana)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestFriendRoutesRequireAuth(t *testing.T) {
	e := newFriendshipTestServer(t)

	rec := doRequest(e, http.MethodGet, "/friends", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/friends", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
