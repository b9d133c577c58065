package helpers

import (
	"time"

	model "auction-house/internal/models"
	"auction-house/internal/status"
)

// Request/Response DTOs

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type CreateAuctionRequest struct {
	Title       string           `json:"title" binding:"required"`
	Description string           `json:"description" binding:"required"`
	Images      []string         `json:"images" binding:"required,min=1,max=5"`
	Documents   []model.Document `json:"documents" binding:"max=3"`
	Category    string           `json:"category"`
	Location    string           `json:"location"`
	StartingBid float64          `json:"starting_bid" binding:"required,gt=0"`
	StartTime   time.Time        `json:"start_time" binding:"required"`
	EndTime     time.Time        `json:"end_time" binding:"required"`
}

type UpdateAuctionRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Images      []string         `json:"images"`
	Documents   []model.Document `json:"documents"`
	Category    *string          `json:"category"`
	Location    *string          `json:"location"`
	StartingBid *float64         `json:"starting_bid"`
	StartTime   *time.Time       `json:"start_time"`
	EndTime     *time.Time       `json:"end_time"`
}

type PlaceBidRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type BidResponse struct {
	BidID     string  `json:"bid_id"`
	AuctionID string  `json:"auction_id"`
	BidderID  string  `json:"bidder_id"`
	Amount    float64 `json:"amount"`
	CreatedAt string  `json:"created_at"`
}

// AuctionSummary is the slice of auction state returned alongside a new bid
type AuctionSummary struct {
	AuctionID     string  `json:"auction_id"`
	CurrentBid    float64 `json:"current_bid"`
	HighestBidder string  `json:"highest_bidder"`
	BidCount      int     `json:"bid_count"`
}

// AuctionResponse is a full listing annotated with its derived status and
// like count, computed at response time.
type AuctionResponse struct {
	model.Auction
	Status status.Status `json:"status"`
	Likes  int           `json:"likes"`
}

// NewBidResponse converts a bid record to its wire form
func NewBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		BidID:     b.BidID,
		AuctionID: b.AuctionID,
		BidderID:  b.BidderID,
		Amount:    b.Amount,
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewAuctionSummary extracts the bid-relevant slice of an auction
func NewAuctionSummary(a model.Auction) AuctionSummary {
	return AuctionSummary{
		AuctionID:     a.AuctionID,
		CurrentBid:    a.CurrentBid,
		HighestBidder: a.HighestBidder,
		BidCount:      a.BidCount,
	}
}

// NewAuctionResponse annotates an auction with status and likes as of now
func NewAuctionResponse(a model.Auction, now time.Time) AuctionResponse {
	return AuctionResponse{
		Auction: a,
		Status:  status.Derive(a.StartTime, a.EndTime, now),
		Likes:   a.Likes(),
	}
}

// NewAuctionResponses annotates a listing page as of now
func NewAuctionResponses(auctions []model.Auction, now time.Time) []AuctionResponse {
	out := make([]AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		out = append(out, NewAuctionResponse(a, now))
	}
	return out
}
