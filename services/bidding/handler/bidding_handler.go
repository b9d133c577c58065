package handler

import (
	"context"
	"net/http"

	bidding "auction-house/internal/biddingService"
	model "auction-house/internal/models"
	"auction-house/services/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

type BiddingServiceInterface interface {
	PlaceBid(ctx context.Context, bidder model.User, auctionID string, amount float64) (model.Bid, model.Auction, error)
	GetBidsForAuction(ctx context.Context, auctionID string) ([]model.Bid, error)
	GetBidsByBidder(ctx context.Context, bidderID string) ([]bidding.BidderBid, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// PlaceBidHandler handles POST /auctions/:auction_id/bids
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	bidder, ok := helpers.CurrentUser(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, helpers.ErrMissingIdentity, "authentication required")
		return
	}

	auctionID := c.Param("auction_id")
	bid, auction, err := h.service.PlaceBid(c.Request.Context(), bidder, auctionID, req.Amount)
	if err != nil {
		helpers.HandleServiceError(c, "PlaceBidHandler", err, map[string]any{
			"auction_id": auctionID,
			"bidder_id":  bidder.UserID,
			"amount":     req.Amount,
		})
		return
	}

	resp := gin.H{
		"bid":     helpers.NewBidResponse(bid),
		"auction": helpers.NewAuctionSummary(auction),
	}
	utils.JSONResponse(c, http.StatusCreated, resp, "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"bid_id":      bid.BidID,
		"auction_id":  bid.AuctionID,
		"bidder_id":   bid.BidderID,
		"amount":      bid.Amount,
		"current_bid": auction.CurrentBid,
		"bid_count":   auction.BidCount,
	})
}

// GetBidsByAuctionHandler handles GET /auctions/:auction_id/bids
func (h *BiddingHandler) GetBidsByAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.service.GetBidsForAuction(c.Request.Context(), auctionID)
	if err != nil {
		helpers.HandleServiceError(c, "GetBidsByAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, helpers.NewBidResponse(b))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByAuctionHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(resp),
	})
}

// GetMyBidsHandler handles GET /bids/me
func (h *BiddingHandler) GetMyBidsHandler(c *gin.Context) {
	bidder, ok := helpers.CurrentUser(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, helpers.ErrMissingIdentity, "authentication required")
		return
	}

	bids, err := h.service.GetBidsByBidder(c.Request.Context(), bidder.UserID)
	if err != nil {
		helpers.HandleServiceError(c, "GetMyBidsHandler", err, map[string]any{"bidder_id": bidder.UserID})
		return
	}

	if bids == nil {
		bids = []bidding.BidderBid{}
	}

	utils.JSONResponse(c, http.StatusOK, bids, "bids retrieved successfully")
	helpers.LogSuccess("GetMyBidsHandler", "bids retrieved successfully", map[string]any{
		"bidder_id": bidder.UserID,
		"count":     len(bids),
	})
}
