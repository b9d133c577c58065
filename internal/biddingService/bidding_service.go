package bidding

import (
	"context"
	"fmt"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/internal/status"
	"auction-house/utils"

	"code.cloudfoundry.org/clock"
)

// BiddingService defines the business logic for placing and reading bids
type BiddingService struct {
	store repository.AuctionStore
	clock clock.Clock
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(store repository.AuctionStore, clk clock.Clock) *BiddingService {
	return &BiddingService{
		store: store,
		clock: clk,
	}
}

// BidderBid is a bid annotated with whether it still leads its auction
type BidderBid struct {
	models.Bid
	IsHighestBidder bool `json:"is_highest_bidder"`
}

// PlaceBid validates a proposed bid and commits it together with the
// auction's price update. Preconditions are checked in a fixed order, each
// with a distinct rejection reason: auction exists, bidder is not the
// seller, auction is biddable, amount beats the current bid (or meets the
// starting bid on a first bid). The final price check is repeated inside
// the store's transaction, so a concurrent higher bid causes this one to
// fail ErrBidTooLow rather than overwrite it.
func (s *BiddingService) PlaceBid(ctx context.Context, bidder models.User, auctionID string, amount float64) (models.Bid, models.Auction, error) {
	if auctionID == "" || bidder.UserID == "" {
		return models.Bid{}, models.Auction{}, fmt.Errorf("service: %w - missing auction or bidder id", auctionerrors.ErrValidation)
	}
	if amount <= 0 {
		return models.Bid{}, models.Auction{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrValidation)
	}

	a, err := s.store.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Bid{}, models.Auction{}, fmt.Errorf("service: %w", err)
	}

	if a.SellerID == bidder.UserID {
		return models.Bid{}, models.Auction{}, fmt.Errorf("service: %w - sellers cannot bid on their own auctions", auctionerrors.ErrForbidden)
	}

	st := status.Derive(a.StartTime, a.EndTime, s.clock.Now())
	if !status.Biddable(st) {
		return models.Bid{}, models.Auction{}, fmt.Errorf("service: %w - auction is %s", auctionerrors.ErrInvalidState, st)
	}

	if a.BidCount == 0 {
		if amount < a.StartingBid {
			return models.Bid{}, models.Auction{}, fmt.Errorf("service: %w - starting bid is %.2f", auctionerrors.ErrBidTooLow, a.StartingBid)
		}
	} else if amount <= a.CurrentBid {
		return models.Bid{}, models.Auction{}, fmt.Errorf("service: %w - current bid is %.2f", auctionerrors.ErrBidTooLow, a.CurrentBid)
	}

	bid := models.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		BidderID:  bidder.UserID,
		Amount:    amount,
		CreatedAt: s.clock.Now().UTC(),
	}

	updated, err := s.store.RecordBid(ctx, bid)
	if err != nil {
		return models.Bid{}, models.Auction{}, fmt.Errorf("service: failed to record bid on auction %s by user %s: %w", auctionID, bidder.UserID, err)
	}

	return bid, updated, nil
}

// GetBidsForAuction returns an auction's bids, newest first
func (s *BiddingService) GetBidsForAuction(ctx context.Context, auctionID string) ([]models.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrValidation)
	}

	bids, err := s.store.GetBidsByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// GetBidsByBidder returns the user's bids, newest first, each annotated
// with whether it is still the auction's highest bid.
func (s *BiddingService) GetBidsByBidder(ctx context.Context, bidderID string) ([]BidderBid, error) {
	if bidderID == "" {
		return nil, fmt.Errorf("service: %w - empty bidder ID", auctionerrors.ErrValidation)
	}

	bids, err := s.store.GetBidsByBidder(ctx, bidderID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for user %s: %w", bidderID, err)
	}

	// One lookup per distinct auction; a deleted auction just loses the flag.
	highest := make(map[string]models.Auction, len(bids))
	out := make([]BidderBid, 0, len(bids))
	for _, b := range bids {
		a, ok := highest[b.AuctionID]
		if !ok {
			a, err = s.store.GetAuction(ctx, b.AuctionID)
			if err != nil {
				a = models.Auction{}
			}
			highest[b.AuctionID] = a
		}
		out = append(out, BidderBid{
			Bid:             b,
			IsHighestBidder: a.HighestBidder == bidderID && a.CurrentBid == b.Amount,
		})
	}
	return out, nil
}
