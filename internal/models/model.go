package models

import "time"

// User represents a registered account on the marketplace
type User struct {
	UserID            string     `json:"user_id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	IsAdmin           bool       `json:"is_admin"`
	IsBanned          bool       `json:"is_banned"`
	ProfilePictureURL string     `json:"profile_picture_url"`
	LastLogin         *time.Time `json:"last_login,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Document is a supporting file attached to an auction listing
type Document struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// Auction represents a timed listing. CurrentBid, HighestBidder and BidCount
// are denormalized from the bid log and only change inside the bid
// transaction; status is derived from the timestamps and never stored.
type Auction struct {
	AuctionID     string     `json:"auction_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Images        []string   `json:"images"`
	Documents     []Document `json:"documents"`
	Category      string     `json:"category"`
	Location      string     `json:"location"`
	SellerID      string     `json:"seller_id"`
	StartingBid   float64    `json:"starting_bid"`
	CurrentBid    float64    `json:"current_bid"`
	HighestBidder string     `json:"highest_bidder"`
	BidCount      int        `json:"bid_count"`
	Views         int64      `json:"views"`
	LikedBy       []string   `json:"-"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       time.Time  `json:"end_time"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Likes returns the number of users who liked the auction
func (a Auction) Likes() int {
	return len(a.LikedBy)
}

// LikedByUser reports whether the given user has liked the auction
func (a Auction) LikedByUser(userID string) bool {
	for _, id := range a.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Bid represents a user's bid on an auction. Bids are immutable once recorded.
type Bid struct {
	BidID     string    `json:"bid_id"`
	AuctionID string    `json:"auction_id"`
	BidderID  string    `json:"bidder_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
