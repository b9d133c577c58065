package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
	"auction-house/internal/status"

	"code.cloudfoundry.org/clock"
)

// AuctionStore defines the persistence interface for the marketplace.
//
// RecordBid is the one operation with transactional semantics: it must
// insert the bid and update the auction's denormalized price state as a
// single unit, serialized per auction, re-validating the bidding window
// and price monotonicity against committed state. Implementations either
// hold a lock scoped to the auction or run a storage transaction with a
// row lock; a bid that loses a race fails ErrBidTooLow rather than
// overwriting a higher bid.
type AuctionStore interface {
	CreateAuction(ctx context.Context, a model.Auction) error
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	ListAuctions(ctx context.Context) ([]model.Auction, error)
	ListAuctionsBySeller(ctx context.Context, sellerID string) ([]model.Auction, error)

	// UpdateAuction persists the listing fields of the record. The
	// bid-derived state (current bid, highest bidder, bid count) plus the
	// view counter and liked-by set are owned by their own operations and
	// kept from committed state, so an edit racing a bid cannot revert
	// them. The returned auction is the merged committed record.
	UpdateAuction(ctx context.Context, a model.Auction) (model.Auction, error)
	DeleteAuction(ctx context.Context, auctionID string) error

	RecordBid(ctx context.Context, bid model.Bid) (model.Auction, error)
	GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error)
	GetBidsByBidder(ctx context.Context, bidderID string) ([]model.Bid, error)

	IncrementViews(ctx context.Context, auctionID string) error
	ToggleLike(ctx context.Context, auctionID, userID string) (model.Auction, bool, error)

	CreateUser(ctx context.Context, u model.User) error
	GetUserByID(ctx context.Context, userID string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	UpdateUser(ctx context.Context, u model.User) error
}

// MemoryStore is a concurrency-safe in-memory implementation of AuctionStore
type MemoryStore struct {
	mu         sync.RWMutex
	clock      clock.Clock
	auctions   map[string]model.Auction // key: auctionID
	bids       map[string][]model.Bid   // key: auctionID -> bids in commit order
	bidderBids map[string][]string      // key: bidderID -> bidIDs in commit order
	bidsByID   map[string]model.Bid     // key: bidID
	users      map[string]model.User    // key: userID
	emailToID  map[string]string        // key: lowercased email -> userID
}

// NewMemoryStore creates a new in-memory store instance
func NewMemoryStore(clk clock.Clock) *MemoryStore {
	return &MemoryStore{
		clock:      clk,
		auctions:   make(map[string]model.Auction),
		bids:       make(map[string][]model.Bid),
		bidderBids: make(map[string][]string),
		bidsByID:   make(map[string]model.Bid),
		users:      make(map[string]model.User),
		emailToID:  make(map[string]string),
	}
}

// CreateAuction stores a new auction
func (s *MemoryStore) CreateAuction(_ context.Context, a model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[a.AuctionID]; ok {
		return fmt.Errorf("create auction %s: already exists", a.AuctionID)
	}
	s.auctions[a.AuctionID] = copyAuction(a)
	return nil
}

// GetAuction returns the auction with the given id
func (s *MemoryStore) GetAuction(_ context.Context, auctionID string) (model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return copyAuction(a), nil
}

// ListAuctions returns all auctions, newest listing first
func (s *MemoryStore) ListAuctions(_ context.Context) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Auction, 0, len(s.auctions))
	for _, a := range s.auctions {
		out = append(out, copyAuction(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListAuctionsBySeller returns all auctions listed by a seller, newest first
func (s *MemoryStore) ListAuctionsBySeller(_ context.Context, sellerID string) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Auction, 0)
	for _, a := range s.auctions {
		if a.SellerID == sellerID {
			out = append(out, copyAuction(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateAuction persists a listing edit. Bid-derived fields, views and
// likes are carried over from the committed record under the store lock,
// so a bid that landed after the caller's read is not reverted. The
// starting-bid reset to the current bid only applies while the committed
// record still has no bids.
func (s *MemoryStore) UpdateAuction(_ context.Context, a model.Auction) (model.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.auctions[a.AuctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("update auction %s: %w", a.AuctionID, auctionerrors.ErrAuctionNotFound)
	}

	a.CurrentBid = old.CurrentBid
	a.HighestBidder = old.HighestBidder
	a.BidCount = old.BidCount
	a.Views = old.Views
	a.LikedBy = old.LikedBy
	if old.BidCount == 0 {
		a.CurrentBid = a.StartingBid
	}

	s.auctions[a.AuctionID] = copyAuction(a)
	return copyAuction(a), nil
}

// DeleteAuction removes an auction and its bid log
func (s *MemoryStore) DeleteAuction(_ context.Context, auctionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[auctionID]; !ok {
		return fmt.Errorf("delete auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	for _, b := range s.bids[auctionID] {
		delete(s.bidsByID, b.BidID)
		ids := s.bidderBids[b.BidderID]
		for i, id := range ids {
			if id == b.BidID {
				s.bidderBids[b.BidderID] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
	}
	delete(s.bids, auctionID)
	delete(s.auctions, auctionID)
	return nil
}

// RecordBid appends a bid and advances the auction's price state as one
// atomic step. The bidding window and price rules are re-checked under the
// store lock so concurrent bidders on the same auction serialize; a stale
// bid fails ErrBidTooLow instead of clobbering a higher committed bid.
func (s *MemoryStore) RecordBid(_ context.Context, bid model.Bid) (model.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[bid.AuctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}

	st := status.Derive(a.StartTime, a.EndTime, s.clock.Now())
	if !status.Biddable(st) {
		return model.Auction{}, fmt.Errorf("record bid for auction %s: %w - auction is %s", bid.AuctionID, auctionerrors.ErrInvalidState, st)
	}

	if a.BidCount == 0 {
		if bid.Amount < a.StartingBid {
			return model.Auction{}, fmt.Errorf("record bid for auction %s: %w - starting bid is %.2f", bid.AuctionID, auctionerrors.ErrBidTooLow, a.StartingBid)
		}
	} else if bid.Amount <= a.CurrentBid {
		return model.Auction{}, fmt.Errorf("record bid for auction %s: %w - current bid is %.2f", bid.AuctionID, auctionerrors.ErrBidTooLow, a.CurrentBid)
	}

	s.bids[bid.AuctionID] = append(s.bids[bid.AuctionID], bid)
	s.bidsByID[bid.BidID] = bid
	s.bidderBids[bid.BidderID] = append(s.bidderBids[bid.BidderID], bid.BidID)

	a.CurrentBid = bid.Amount
	a.HighestBidder = bid.BidderID
	a.BidCount++
	a.UpdatedAt = bid.CreatedAt
	s.auctions[bid.AuctionID] = a

	return copyAuction(a), nil
}

// GetBidsByAuction returns an auction's bids, newest first
func (s *MemoryStore) GetBidsByAuction(_ context.Context, auctionID string) ([]model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	bids := s.bids[auctionID]
	out := make([]model.Bid, 0, len(bids))
	for i := len(bids) - 1; i >= 0; i-- {
		out = append(out, bids[i])
	}
	return out, nil
}

// GetBidsByBidder returns all bids a user has placed, newest first
func (s *MemoryStore) GetBidsByBidder(_ context.Context, bidderID string) ([]model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.bidderBids[bidderID]
	out := make([]model.Bid, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if b, ok := s.bidsByID[ids[i]]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

// IncrementViews bumps an auction's view counter
func (s *MemoryStore) IncrementViews(_ context.Context, auctionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return fmt.Errorf("increment views for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	a.Views++
	s.auctions[auctionID] = a
	return nil
}

// ToggleLike flips the user's membership in the auction's liked-by set and
// returns the updated auction and whether the user now likes it.
func (s *MemoryStore) ToggleLike(_ context.Context, auctionID, userID string) (model.Auction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return model.Auction{}, false, fmt.Errorf("toggle like for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	liked := true
	for i, id := range a.LikedBy {
		if id == userID {
			a.LikedBy = append(append([]string(nil), a.LikedBy[:i]...), a.LikedBy[i+1:]...)
			liked = false
			break
		}
	}
	if liked {
		a.LikedBy = append(append([]string(nil), a.LikedBy...), userID)
	}
	s.auctions[auctionID] = a
	return copyAuction(a), liked, nil
}

// CreateUser stores a new user, enforcing email uniqueness
func (s *MemoryStore) CreateUser(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emailToID[u.Email]; ok {
		return fmt.Errorf("create user %s: %w", u.Email, auctionerrors.ErrEmailTaken)
	}
	s.users[u.UserID] = u
	s.emailToID[u.Email] = u.UserID
	return nil
}

// GetUserByID returns the user with the given id
func (s *MemoryStore) GetUserByID(_ context.Context, userID string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return u, nil
}

// GetUserByEmail returns the user registered under the given email
func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emailToID[email]
	if !ok {
		return model.User{}, fmt.Errorf("get user by email: %w", auctionerrors.ErrUserNotFound)
	}
	return s.users[id], nil
}

// UpdateUser replaces the stored user record
func (s *MemoryStore) UpdateUser(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.users[u.UserID]
	if !ok {
		return fmt.Errorf("update user %s: %w", u.UserID, auctionerrors.ErrUserNotFound)
	}
	if old.Email != u.Email {
		if _, taken := s.emailToID[u.Email]; taken {
			return fmt.Errorf("update user %s: %w", u.UserID, auctionerrors.ErrEmailTaken)
		}
		delete(s.emailToID, old.Email)
		s.emailToID[u.Email] = u.UserID
	}
	s.users[u.UserID] = u
	return nil
}

// copyAuction returns a value copy with its own slice backing, so callers
// cannot mutate stored state through shared slices.
func copyAuction(a model.Auction) model.Auction {
	a.Images = append([]string(nil), a.Images...)
	a.Documents = append([]model.Document(nil), a.Documents...)
	a.LikedBy = append([]string(nil), a.LikedBy...)
	return a
}
