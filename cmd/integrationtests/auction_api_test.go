package integrationtests

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAuctionLifecycle(t *testing.T) {
	env := SetupTestEnv(t)

	sellerToken, sellerID := env.RegisterAndLogin(t, "Sally Seller", "sally@example.com")

	auctionID := env.CreateAuction(t, sellerToken, 25, 1*time.Hour, 25*time.Hour)
	auctionURL := fmt.Sprintf("/auctions/%s", auctionID)

	// Freshly listed with a future start: upcoming.
	resp, w := env.ExecuteRequest(t, http.MethodGet, auctionURL, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]any)
	require.Equal(t, "upcoming", data["status"])
	require.Equal(t, sellerID, data["seller_id"])
	require.Equal(t, 25.0, data["current_bid"])

	// The status is derived from the clock on every read.
	env.Clock.Increment(2 * time.Hour)
	resp, _ = env.ExecuteRequest(t, http.MethodGet, auctionURL, "", nil)
	require.Equal(t, "active", resp["data"].(map[string]any)["status"])

	env.Clock.Increment(22*time.Hour + 30*time.Minute)
	resp, _ = env.ExecuteRequest(t, http.MethodGet, auctionURL, "", nil)
	require.Equal(t, "ending-soon", resp["data"].(map[string]any)["status"])

	env.Clock.Increment(1 * time.Hour)
	resp, _ = env.ExecuteRequest(t, http.MethodGet, auctionURL, "", nil)
	require.Equal(t, "ended", resp["data"].(map[string]any)["status"])
}

func TestAuctionViews(t *testing.T) {
	env := SetupTestEnv(t)

	sellerToken, _ := env.RegisterAndLogin(t, "Sally Seller", "sally@example.com")
	auctionID := env.CreateAuction(t, sellerToken, 25, -1*time.Hour, 6*time.Hour)
	auctionURL := fmt.Sprintf("/auctions/%s", auctionID)

	for i := 0; i < 5; i++ {
		_, w := env.ExecuteRequest(t, http.MethodGet, auctionURL, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	// View counting is asynchronous and best effort.
	require.Eventually(t, func() bool {
		resp, _ := env.ExecuteRequest(t, http.MethodGet, auctionURL, "", nil)
		return resp["data"].(map[string]any)["views"].(float64) >= 5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAuctionListing(t *testing.T) {
	env := SetupTestEnv(t)

	sellerToken, _ := env.RegisterAndLogin(t, "Sally Seller", "sally@example.com")
	otherToken, _ := env.RegisterAndLogin(t, "Omar Other", "omar@example.com")

	env.CreateAuction(t, sellerToken, 10, -1*time.Hour, 6*time.Hour)
	env.CreateAuction(t, sellerToken, 20, 1*time.Hour, 8*time.Hour)
	env.CreateAuction(t, otherToken, 30, -1*time.Hour, 6*time.Hour)

	// Browsing is public.
	resp, w := env.ExecuteRequest(t, http.MethodGet, "/auctions", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].([]any), 3)

	// My-listings only shows the caller's auctions.
	resp, w = env.ExecuteRequest(t, http.MethodGet, "/users/me/auctions", sellerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].([]any), 2)

	_, w = env.ExecuteRequest(t, http.MethodGet, "/users/me/auctions", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuctionValidation(t *testing.T) {
	env := SetupTestEnv(t)

	sellerToken, _ := env.RegisterAndLogin(t, "Sally Seller", "sally@example.com")

	base := func() map[string]any {
		return map[string]any{
			"title":        "Vintage radio",
			"description":  "Working 1950s tube radio",
			"images":       []string{"https://img.example/radio.jpg"},
			"starting_bid": 25,
			"start_time":   env.Clock.Now().Add(1 * time.Hour).Format(time.RFC3339),
			"end_time":     env.Clock.Now().Add(25 * time.Hour).Format(time.RFC3339),
		}
	}

	tests := []struct {
		name   string
		mutate func(m map[string]any)
	}{
		{name: "missing_title", mutate: func(m map[string]any) { delete(m, "title") }},
		{name: "no_images", mutate: func(m map[string]any) { m["images"] = []string{} }},
		{name: "six_images", mutate: func(m map[string]any) {
			m["images"] = []string{"a", "b", "c", "d", "e", "f"}
		}},
		{name: "zero_starting_bid", mutate: func(m map[string]any) { m["starting_bid"] = 0 }},
		{name: "inverted_window", mutate: func(m map[string]any) {
			m["start_time"], m["end_time"] = m["end_time"], m["start_time"]
		}},
	}

	for _, tc := range tests {
		body := base()
		tc.mutate(body)
		_, w := env.ExecuteRequest(t, http.MethodPost, "/auctions", sellerToken, body)
		require.Equal(t, http.StatusBadRequest, w.Code, "case %s", tc.name)
	}
}

func TestAuctionUpdateRules(t *testing.T) {
	env := SetupTestEnv(t)

	sellerToken, _ := env.RegisterAndLogin(t, "Sally Seller", "sally@example.com")
	strangerToken, _ := env.RegisterAndLogin(t, "Stan Stranger", "stan@example.com")

	auctionID := env.CreateAuction(t, sellerToken, 25, 1*time.Hour, 25*time.Hour)
	auctionURL := fmt.Sprintf("/auctions/%s", auctionID)

	// Only the seller may edit.
	_, w := env.ExecuteRequest(t, http.MethodPatch, auctionURL, strangerToken, map[string]any{"title": "hijacked"})
	require.Equal(t, http.StatusForbidden, w.Code)

	// The starting bid is editable while upcoming and resets the current bid.
	resp, w := env.ExecuteRequest(t, http.MethodPatch, auctionURL, sellerToken, map[string]any{"starting_bid": 40})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 40.0, resp["data"].(map[string]any)["current_bid"])

	// Once the auction is running the price and window are locked...
	env.Clock.Increment(2 * time.Hour)
	_, w = env.ExecuteRequest(t, http.MethodPatch, auctionURL, sellerToken, map[string]any{"starting_bid": 60})
	require.Equal(t, http.StatusConflict, w.Code)
	_, w = env.ExecuteRequest(t, http.MethodPatch, auctionURL, sellerToken, map[string]any{
		"end_time": env.Clock.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusConflict, w.Code)

	// ...but descriptive fields stay editable.
	resp, w = env.ExecuteRequest(t, http.MethodPatch, auctionURL, sellerToken, map[string]any{"title": "Restored vintage radio"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Restored vintage radio", resp["data"].(map[string]any)["title"])

	// After the auction ends the seller cannot edit at all, an admin can.
	env.Clock.Increment(30 * time.Hour)
	_, w = env.ExecuteRequest(t, http.MethodPatch, auctionURL, sellerToken, map[string]any{"title": "too late"})
	require.Equal(t, http.StatusConflict, w.Code)

	adminToken, _ := env.LoginAsAdmin(t)
	resp, w = env.ExecuteRequest(t, http.MethodPatch, auctionURL, adminToken, map[string]any{"title": "moderated"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "moderated", resp["data"].(map[string]any)["title"])
}

func TestAuctionDeleteRules(t *testing.T) {
	env := SetupTestEnv(t)

	sellerToken, _ := env.RegisterAndLogin(t, "Sally Seller", "sally@example.com")
	bidderToken, _ := env.RegisterAndLogin(t, "Alice", "alice@example.com")

	// A live auction cannot be deleted by its seller.
	liveID := env.CreateAuction(t, sellerToken, 25, -1*time.Hour, 6*time.Hour)
	_, w := env.ExecuteRequest(t, http.MethodDelete, "/auctions/"+liveID, sellerToken, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	// An upcoming auction without bids can.
	upcomingID := env.CreateAuction(t, sellerToken, 25, 2*time.Hour, 8*time.Hour)
	_, w = env.ExecuteRequest(t, http.MethodDelete, "/auctions/"+upcomingID, sellerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, w = env.ExecuteRequest(t, http.MethodGet, "/auctions/"+upcomingID, "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// An ended auction that received bids is part of the record: the
	// seller cannot erase it, an admin can.
	_, w = env.ExecuteRequest(t, http.MethodPost, "/auctions/"+liveID+"/bids", bidderToken, map[string]any{"amount": 30})
	require.Equal(t, http.StatusCreated, w.Code)
	env.Clock.Increment(7 * time.Hour)

	_, w = env.ExecuteRequest(t, http.MethodDelete, "/auctions/"+liveID, sellerToken, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	adminToken, _ := env.LoginAsAdmin(t)
	_, w = env.ExecuteRequest(t, http.MethodDelete, "/auctions/"+liveID, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuctionLikes(t *testing.T) {
	env := SetupTestEnv(t)

	sellerToken, _ := env.RegisterAndLogin(t, "Sally Seller", "sally@example.com")
	aliceToken, _ := env.RegisterAndLogin(t, "Alice", "alice@example.com")
	bobToken, _ := env.RegisterAndLogin(t, "Bob", "bob@example.com")

	auctionID := env.CreateAuction(t, sellerToken, 25, -1*time.Hour, 6*time.Hour)
	likeURL := fmt.Sprintf("/auctions/%s/like", auctionID)

	_, w := env.ExecuteRequest(t, http.MethodPost, likeURL, "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	resp, w := env.ExecuteRequest(t, http.MethodPost, likeURL, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, resp["data"].(map[string]any)["liked"])
	require.Equal(t, 1.0, resp["data"].(map[string]any)["likes"])

	resp, _ = env.ExecuteRequest(t, http.MethodPost, likeURL, bobToken, nil)
	require.Equal(t, 2.0, resp["data"].(map[string]any)["likes"])

	// A second toggle from the same user removes the like.
	resp, _ = env.ExecuteRequest(t, http.MethodPost, likeURL, aliceToken, nil)
	require.Equal(t, false, resp["data"].(map[string]any)["liked"])
	require.Equal(t, 1.0, resp["data"].(map[string]any)["likes"])
}

func TestAccountBanFlow(t *testing.T) {
	env := SetupTestEnv(t)

	aliceToken, aliceID := env.RegisterAndLogin(t, "Alice", "alice@example.com")
	banURL := fmt.Sprintf("/admin/users/%s/ban", aliceID)

	// Only admins reach the moderation surface.
	_, w := env.ExecuteRequest(t, http.MethodPost, banURL, aliceToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	adminToken, _ := env.LoginAsAdmin(t)
	resp, w := env.ExecuteRequest(t, http.MethodPost, banURL, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, resp["data"].(map[string]any)["is_banned"])

	// The ban cuts off the existing token immediately.
	_, w = env.ExecuteRequest(t, http.MethodGet, "/bids/me", aliceToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// And blocks fresh logins.
	_, w = env.ExecuteRequest(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "a long enough password",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	// Unban restores access with the old token.
	_, w = env.ExecuteRequest(t, http.MethodDelete, banURL, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, w = env.ExecuteRequest(t, http.MethodGet, "/bids/me", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	env := SetupTestEnv(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{
			name: "valid",
			body: map[string]any{"name": "Alice", "email": "alice@example.com", "password": "a long enough password"},
			want: http.StatusCreated,
		},
		{
			name: "duplicate_email",
			body: map[string]any{"name": "Impostor", "email": "alice@example.com", "password": "another password"},
			want: http.StatusConflict,
		},
		{
			name: "bad_email",
			body: map[string]any{"name": "Alice", "email": "not-an-email", "password": "a long enough password"},
			want: http.StatusBadRequest,
		},
		{
			name: "short_password",
			body: map[string]any{"name": "Alice", "email": "alice2@example.com", "password": "short"},
			want: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		_, w := env.ExecuteRequest(t, http.MethodPost, "/auth/register", "", tc.body)
		require.Equal(t, tc.want, w.Code, "case %s", tc.name)
	}
}
