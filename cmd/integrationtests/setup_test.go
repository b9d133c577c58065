package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	auction "auction-house/internal/auctionService"
	auth "auction-house/internal/authService"
	bidding "auction-house/internal/biddingService"
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/internal/server"

	"code.cloudfoundry.org/clock/fakeclock"
	"code.cloudfoundry.org/workpool"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "integration-test-secret"

// TestEnv bundles a full in-memory API under a controllable clock. The
// clock is seeded with the real current time because token expiry is
// validated against the wall clock.
type TestEnv struct {
	Router *gin.Engine
	Store  *repository.MemoryStore
	Clock  *fakeclock.FakeClock
	Auth   *auth.AuthService
}

// SetupTestEnv initializes the router with the in-memory store
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := fakeclock.NewFakeClock(time.Now())
	store := repository.NewMemoryStore(clk)

	pool, err := workpool.NewWorkPool(2)
	require.NoError(t, err)
	t.Cleanup(pool.Stop)

	authSvc := auth.NewAuthService(store, clk, testSecret, time.Hour)
	auctionSvc := auction.NewAuctionService(store, clk, pool)
	biddingSvc := bidding.NewBiddingService(store, clk)

	router := server.SetupRouter(server.Services{
		Auth:    authSvc,
		Auction: auctionSvc,
		Bidding: biddingSvc,
		Clock:   clk,
	})

	return &TestEnv{Router: router, Store: store, Clock: clk, Auth: authSvc}
}

// ExecuteRequest runs an HTTP request against the router. A non-empty
// token is sent as a bearer credential.
func (e *TestEnv) ExecuteRequest(t *testing.T, method, url, token string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return resp, w
}

// RegisterAndLogin creates an account through the API and returns its
// token and user ID.
func (e *TestEnv) RegisterAndLogin(t *testing.T, name, email string) (token, userID string) {
	t.Helper()

	resp, w := e.ExecuteRequest(t, http.MethodPost, "/auth/register", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": "a long enough password",
	})
	require.Equal(t, http.StatusCreated, w.Code, "register failed: %v", resp)
	userID = resp["data"].(map[string]any)["user_id"].(string)

	resp, w = e.ExecuteRequest(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    email,
		"password": "a long enough password",
	})
	require.Equal(t, http.StatusOK, w.Code, "login failed: %v", resp)
	token = resp["data"].(map[string]any)["token"].(string)
	return token, userID
}

// LoginAsAdmin seeds an admin account directly in the store and logs in
func (e *TestEnv) LoginAsAdmin(t *testing.T) (token, userID string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("admin password"), bcrypt.MinCost)
	require.NoError(t, err)

	userID = fmt.Sprintf("admin-%s", t.Name())
	email := strings.ToLower(fmt.Sprintf("%s@example.com", userID))
	require.NoError(t, e.Store.CreateUser(context.Background(), model.User{
		UserID:       userID,
		Name:         "Admin",
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      true,
		CreatedAt:    e.Clock.Now(),
	}))

	resp, w := e.ExecuteRequest(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    email,
		"password": "admin password",
	})
	require.Equal(t, http.StatusOK, w.Code, "admin login failed: %v", resp)
	return resp["data"].(map[string]any)["token"].(string), userID
}

// CreateAuction lists an item through the API with a window relative to
// the fake clock and returns its ID.
func (e *TestEnv) CreateAuction(t *testing.T, token string, startingBid float64, startIn, endIn time.Duration) string {
	t.Helper()

	resp, w := e.ExecuteRequest(t, http.MethodPost, "/auctions", token, map[string]any{
		"title":        "Vintage radio",
		"description":  "Working 1950s tube radio",
		"images":       []string{"https://img.example/radio.jpg"},
		"starting_bid": startingBid,
		"start_time":   e.Clock.Now().Add(startIn).Format(time.RFC3339),
		"end_time":     e.Clock.Now().Add(endIn).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, "create auction failed: %v", resp)
	return resp["data"].(map[string]any)["auction_id"].(string)
}
