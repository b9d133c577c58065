package handler

import (
	"context"
	"net/http"

	auction "auction-house/internal/auctionService"
	model "auction-house/internal/models"
	"auction-house/services/helpers"
	"auction-house/utils"

	"code.cloudfoundry.org/clock"
	"github.com/gin-gonic/gin"
)

type AuctionServiceInterface interface {
	CreateAuction(ctx context.Context, seller model.User, in auction.CreateAuctionInput) (model.Auction, error)
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	CountView(auctionID string)
	ListAuctions(ctx context.Context) ([]model.Auction, error)
	ListAuctionsBySeller(ctx context.Context, sellerID string) ([]model.Auction, error)
	UpdateAuction(ctx context.Context, actor model.User, auctionID string, upd auction.AuctionUpdate) (model.Auction, error)
	DeleteAuction(ctx context.Context, actor model.User, auctionID string) error
	ToggleLike(ctx context.Context, userID, auctionID string) (model.Auction, bool, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
	clock   clock.Clock
}

func NewAuctionHandler(service AuctionServiceInterface, clk clock.Clock) *AuctionHandler {
	return &AuctionHandler{service: service, clock: clk}
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	seller, ok := helpers.CurrentUser(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, helpers.ErrMissingIdentity, "authentication required")
		return
	}

	a, err := h.service.CreateAuction(c.Request.Context(), seller, auction.CreateAuctionInput{
		Title:       req.Title,
		Description: req.Description,
		Images:      req.Images,
		Documents:   req.Documents,
		Category:    req.Category,
		Location:    req.Location,
		StartingBid: req.StartingBid,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		helpers.HandleServiceError(c, "CreateAuctionHandler", err, map[string]any{"seller_id": seller.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewAuctionResponse(a, h.clock.Now()), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": a.AuctionID,
		"seller_id":  a.SellerID,
		"title":      a.Title,
	})
}

// ListAuctionsHandler handles GET /auctions
func (h *AuctionHandler) ListAuctionsHandler(c *gin.Context) {
	auctions, err := h.service.ListAuctions(c.Request.Context())
	if err != nil {
		helpers.HandleServiceError(c, "ListAuctionsHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponses(auctions, h.clock.Now()), "auctions retrieved successfully")
}

// GetAuctionHandler handles GET /auctions/:auction_id. The view count is
// bumped after the response is decided, off the request goroutine.
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	a, err := h.service.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		helpers.HandleServiceError(c, "GetAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(a, h.clock.Now()), "auction retrieved successfully")
	h.service.CountView(auctionID)
}

// MyAuctionsHandler handles GET /users/me/auctions
func (h *AuctionHandler) MyAuctionsHandler(c *gin.Context) {
	seller, ok := helpers.CurrentUser(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, helpers.ErrMissingIdentity, "authentication required")
		return
	}

	auctions, err := h.service.ListAuctionsBySeller(c.Request.Context(), seller.UserID)
	if err != nil {
		helpers.HandleServiceError(c, "MyAuctionsHandler", err, map[string]any{"seller_id": seller.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponses(auctions, h.clock.Now()), "auctions retrieved successfully")
}

// UpdateAuctionHandler handles PATCH /auctions/:auction_id
func (h *AuctionHandler) UpdateAuctionHandler(c *gin.Context) {
	var req helpers.UpdateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateAuctionHandler", err)
		return
	}

	actor, ok := helpers.CurrentUser(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, helpers.ErrMissingIdentity, "authentication required")
		return
	}

	auctionID := c.Param("auction_id")
	a, err := h.service.UpdateAuction(c.Request.Context(), actor, auctionID, auction.AuctionUpdate{
		Title:       req.Title,
		Description: req.Description,
		Images:      req.Images,
		Documents:   req.Documents,
		Category:    req.Category,
		Location:    req.Location,
		StartingBid: req.StartingBid,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		helpers.HandleServiceError(c, "UpdateAuctionHandler", err, map[string]any{
			"auction_id": auctionID,
			"actor_id":   actor.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(a, h.clock.Now()), "auction updated successfully")
	helpers.LogSuccess("UpdateAuctionHandler", "auction updated successfully", map[string]any{
		"auction_id": a.AuctionID,
		"actor_id":   actor.UserID,
	})
}

// DeleteAuctionHandler handles DELETE /auctions/:auction_id
func (h *AuctionHandler) DeleteAuctionHandler(c *gin.Context) {
	actor, ok := helpers.CurrentUser(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, helpers.ErrMissingIdentity, "authentication required")
		return
	}

	auctionID := c.Param("auction_id")
	if err := h.service.DeleteAuction(c.Request.Context(), actor, auctionID); err != nil {
		helpers.HandleServiceError(c, "DeleteAuctionHandler", err, map[string]any{
			"auction_id": auctionID,
			"actor_id":   actor.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "auction deleted successfully")
	helpers.LogSuccess("DeleteAuctionHandler", "auction deleted successfully", map[string]any{
		"auction_id": auctionID,
		"actor_id":   actor.UserID,
	})
}

// ToggleLikeHandler handles POST /auctions/:auction_id/like
func (h *AuctionHandler) ToggleLikeHandler(c *gin.Context) {
	user, ok := helpers.CurrentUser(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, helpers.ErrMissingIdentity, "authentication required")
		return
	}

	auctionID := c.Param("auction_id")
	a, liked, err := h.service.ToggleLike(c.Request.Context(), user.UserID, auctionID)
	if err != nil {
		helpers.HandleServiceError(c, "ToggleLikeHandler", err, map[string]any{
			"auction_id": auctionID,
			"user_id":    user.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"liked": liked, "likes": a.Likes()}, "like toggled successfully")
}
