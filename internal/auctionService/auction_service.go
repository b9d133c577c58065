package auction

import (
	"context"
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/internal/status"
	"auction-house/utils"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/workpool"
)

// Listing limits
const (
	MaxImages    = 5
	MaxDocuments = 3
)

// AuctionService defines the business logic for managing auction listings
type AuctionService struct {
	store    repository.AuctionStore
	clock    clock.Clock
	viewPool *workpool.WorkPool
}

// NewAuctionService creates a new AuctionService instance. The work pool
// bounds the goroutines used for fire-and-forget view counting.
func NewAuctionService(store repository.AuctionStore, clk clock.Clock, viewPool *workpool.WorkPool) *AuctionService {
	return &AuctionService{
		store:    store,
		clock:    clk,
		viewPool: viewPool,
	}
}

// CreateAuctionInput carries the seller-supplied fields of a new listing
type CreateAuctionInput struct {
	Title       string
	Description string
	Images      []string
	Documents   []models.Document
	Category    string
	Location    string
	StartingBid float64
	StartTime   time.Time
	EndTime     time.Time
}

// AuctionUpdate carries the fields of a listing edit; nil means unchanged
type AuctionUpdate struct {
	Title       *string
	Description *string
	Images      []string
	Documents   []models.Document
	Category    *string
	Location    *string
	StartingBid *float64
	StartTime   *time.Time
	EndTime     *time.Time
}

// CreateAuction validates and stores a new listing for the seller
func (s *AuctionService) CreateAuction(ctx context.Context, seller models.User, in CreateAuctionInput) (models.Auction, error) {
	if err := validateListing(in); err != nil {
		return models.Auction{}, err
	}

	now := s.clock.Now().UTC()
	a := models.Auction{
		AuctionID:   utils.GenerateID(),
		Title:       in.Title,
		Description: in.Description,
		Images:      in.Images,
		Documents:   in.Documents,
		Category:    in.Category,
		Location:    in.Location,
		SellerID:    seller.UserID,
		StartingBid: in.StartingBid,
		CurrentBid:  in.StartingBid,
		LikedBy:     []string{},
		StartTime:   in.StartTime.UTC(),
		EndTime:     in.EndTime.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateAuction(ctx, a); err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to create auction: %w", err)
	}
	return a, nil
}

func validateListing(in CreateAuctionInput) error {
	switch {
	case in.Title == "":
		return fmt.Errorf("service: %w - title is required", auctionerrors.ErrValidation)
	case in.Description == "":
		return fmt.Errorf("service: %w - description is required", auctionerrors.ErrValidation)
	case len(in.Images) == 0:
		return fmt.Errorf("service: %w - at least one image is required", auctionerrors.ErrValidation)
	case len(in.Images) > MaxImages:
		return fmt.Errorf("service: %w - at most %d images allowed", auctionerrors.ErrValidation, MaxImages)
	case len(in.Documents) > MaxDocuments:
		return fmt.Errorf("service: %w - at most %d documents allowed", auctionerrors.ErrValidation, MaxDocuments)
	case in.StartingBid <= 0:
		return fmt.Errorf("service: %w - starting bid must be positive", auctionerrors.ErrValidation)
	case in.StartTime.IsZero() || in.EndTime.IsZero():
		return fmt.Errorf("service: %w - start and end times are required", auctionerrors.ErrValidation)
	case !in.EndTime.After(in.StartTime):
		return fmt.Errorf("service: %w - end time must be after start time", auctionerrors.ErrValidation)
	}
	return nil
}

// GetAuction returns a single auction
func (s *AuctionService) GetAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	if auctionID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrValidation)
	}
	a, err := s.store.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: %w", err)
	}
	return a, nil
}

// CountView bumps the auction's view counter on a pooled worker. Best
// effort: failures are logged and never reach the read path, and a lost
// increment under contention is acceptable.
func (s *AuctionService) CountView(auctionID string) {
	s.viewPool.Submit(func() {
		if err := s.store.IncrementViews(context.Background(), auctionID); err != nil {
			utils.Warn("view count increment failed", map[string]any{
				"auction_id": auctionID,
				"error":      err.Error(),
			})
		}
	})
}

// ListAuctions returns all listings, newest first
func (s *AuctionService) ListAuctions(ctx context.Context) ([]models.Auction, error) {
	auctions, err := s.store.ListAuctions(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions: %w", err)
	}
	return auctions, nil
}

// ListAuctionsBySeller returns the seller's listings, newest first
func (s *AuctionService) ListAuctionsBySeller(ctx context.Context, sellerID string) ([]models.Auction, error) {
	if sellerID == "" {
		return nil, fmt.Errorf("service: %w - empty seller ID", auctionerrors.ErrValidation)
	}
	auctions, err := s.store.ListAuctionsBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions for seller %s: %w", sellerID, err)
	}
	return auctions, nil
}

// UpdateAuction applies a listing edit subject to ownership and
// state-dependent field gating: only the seller or an admin may edit;
// ended auctions are admin-only; the starting bid may only change before
// the first bid while the auction is upcoming, and resets the current bid;
// the time window may only change while upcoming and must stay ordered.
func (s *AuctionService) UpdateAuction(ctx context.Context, actor models.User, auctionID string, upd AuctionUpdate) (models.Auction, error) {
	a, err := s.store.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: %w", err)
	}

	if a.SellerID != actor.UserID && !actor.IsAdmin {
		return models.Auction{}, fmt.Errorf("service: %w - only the seller or an admin may edit an auction", auctionerrors.ErrForbidden)
	}

	now := s.clock.Now()
	st := status.Derive(a.StartTime, a.EndTime, now)
	if st == status.Ended && !actor.IsAdmin {
		return models.Auction{}, fmt.Errorf("service: %w - auction is %s", auctionerrors.ErrInvalidState, st)
	}

	if upd.Title != nil {
		a.Title = *upd.Title
	}
	if upd.Description != nil {
		a.Description = *upd.Description
	}
	if upd.Category != nil {
		a.Category = *upd.Category
	}
	if upd.Location != nil {
		a.Location = *upd.Location
	}
	if upd.Images != nil {
		if len(upd.Images) == 0 || len(upd.Images) > MaxImages {
			return models.Auction{}, fmt.Errorf("service: %w - between 1 and %d images required", auctionerrors.ErrValidation, MaxImages)
		}
		a.Images = upd.Images
	}
	if upd.Documents != nil {
		if len(upd.Documents) > MaxDocuments {
			return models.Auction{}, fmt.Errorf("service: %w - at most %d documents allowed", auctionerrors.ErrValidation, MaxDocuments)
		}
		a.Documents = upd.Documents
	}

	if upd.StartingBid != nil {
		if !actor.IsAdmin && (a.BidCount > 0 || st != status.Upcoming) {
			return models.Auction{}, fmt.Errorf("service: %w - starting bid can only change before the auction starts and before any bids", auctionerrors.ErrInvalidState)
		}
		if *upd.StartingBid <= 0 {
			return models.Auction{}, fmt.Errorf("service: %w - starting bid must be positive", auctionerrors.ErrValidation)
		}
		a.StartingBid = *upd.StartingBid
		if a.BidCount == 0 {
			a.CurrentBid = a.StartingBid
		}
	}

	if upd.StartTime != nil || upd.EndTime != nil {
		if !actor.IsAdmin && st != status.Upcoming {
			return models.Auction{}, fmt.Errorf("service: %w - the time window can only change while the auction is upcoming", auctionerrors.ErrInvalidState)
		}
		if upd.StartTime != nil {
			a.StartTime = upd.StartTime.UTC()
		}
		if upd.EndTime != nil {
			a.EndTime = upd.EndTime.UTC()
		}
		if !a.EndTime.After(a.StartTime) {
			return models.Auction{}, fmt.Errorf("service: %w - end time must be after start time", auctionerrors.ErrValidation)
		}
	}

	a.UpdatedAt = now.UTC()
	updated, err := s.store.UpdateAuction(ctx, a)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to update auction %s: %w", auctionID, err)
	}
	return updated, nil
}

// DeleteAuction removes a listing. Non-admins may only delete an auction
// that is not running and has never been bid on, so a live or contested
// auction's history cannot be erased.
func (s *AuctionService) DeleteAuction(ctx context.Context, actor models.User, auctionID string) error {
	a, err := s.store.GetAuction(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}

	if a.SellerID != actor.UserID && !actor.IsAdmin {
		return fmt.Errorf("service: %w - only the seller or an admin may delete an auction", auctionerrors.ErrForbidden)
	}

	if !actor.IsAdmin {
		st := status.Derive(a.StartTime, a.EndTime, s.clock.Now())
		if a.BidCount > 0 {
			return fmt.Errorf("service: %w - auction has %d bids", auctionerrors.ErrInvalidState, a.BidCount)
		}
		if status.Biddable(st) {
			return fmt.Errorf("service: %w - auction is %s", auctionerrors.ErrInvalidState, st)
		}
	}

	if err := s.store.DeleteAuction(ctx, auctionID); err != nil {
		return fmt.Errorf("service: failed to delete auction %s: %w", auctionID, err)
	}
	return nil
}

// ToggleLike flips whether the user likes the auction and reports the new state
func (s *AuctionService) ToggleLike(ctx context.Context, userID, auctionID string) (models.Auction, bool, error) {
	if userID == "" || auctionID == "" {
		return models.Auction{}, false, fmt.Errorf("service: %w - missing auction or user id", auctionerrors.ErrValidation)
	}
	a, liked, err := s.store.ToggleLike(ctx, auctionID, userID)
	if err != nil {
		return models.Auction{}, false, fmt.Errorf("service: failed to toggle like on auction %s: %w", auctionID, err)
	}
	return a, liked, nil
}
