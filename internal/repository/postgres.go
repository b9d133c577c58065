package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
	"auction-house/internal/status"

	"code.cloudfoundry.org/clock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const auctionColumns = `id, title, description, images, documents, category, location, seller_id,
	starting_bid, current_bid, highest_bidder, bid_count, views, liked_by,
	start_time, end_time, created_at, updated_at`

// PostgresStore is a pgx-backed implementation of AuctionStore
type PostgresStore struct {
	pool  *pgxpool.Pool
	clock clock.Clock
}

// NewPostgresStore creates a store on top of an established connection pool
func NewPostgresStore(pool *pgxpool.Pool, clk clock.Clock) *PostgresStore {
	return &PostgresStore{pool: pool, clock: clk}
}

// CreateAuction stores a new auction
func (s *PostgresStore) CreateAuction(ctx context.Context, a model.Auction) error {
	docs, err := json.Marshal(a.Documents)
	if err != nil {
		return fmt.Errorf("create auction %s: marshal documents: %w", a.AuctionID, err)
	}

	query := `INSERT INTO auctions (` + auctionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err = s.pool.Exec(ctx, query,
		a.AuctionID, a.Title, a.Description, a.Images, docs, a.Category, a.Location, a.SellerID,
		a.StartingBid, a.CurrentBid, a.HighestBidder, a.BidCount, a.Views, a.LikedBy,
		a.StartTime, a.EndTime, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create auction %s: %w", a.AuctionID, err)
	}
	return nil
}

// GetAuction returns the auction with the given id
func (s *PostgresStore) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`
	a, err := scanAuction(s.pool.QueryRow(ctx, query, auctionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
		}
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, err)
	}
	return a, nil
}

// ListAuctions returns all auctions, newest listing first
func (s *PostgresStore) ListAuctions(ctx context.Context) ([]model.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions ORDER BY created_at DESC`
	return s.queryAuctions(ctx, query)
}

// ListAuctionsBySeller returns all auctions listed by a seller, newest first
func (s *PostgresStore) ListAuctionsBySeller(ctx context.Context, sellerID string) ([]model.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE seller_id = $1 ORDER BY created_at DESC`
	return s.queryAuctions(ctx, query, sellerID)
}

func (s *PostgresStore) queryAuctions(ctx context.Context, query string, args ...any) ([]model.Auction, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}
	defer rows.Close()

	out := make([]model.Auction, 0)
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("list auctions: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}
	return out, nil
}

// UpdateAuction persists a listing edit in a single statement, so it
// serializes against RecordBid's row lock. Bid-derived columns, views and
// liked_by are never written here; the current bid only tracks a changed
// starting bid while the committed row still has no bids.
func (s *PostgresStore) UpdateAuction(ctx context.Context, a model.Auction) (model.Auction, error) {
	docs, err := json.Marshal(a.Documents)
	if err != nil {
		return model.Auction{}, fmt.Errorf("update auction %s: marshal documents: %w", a.AuctionID, err)
	}

	query := `UPDATE auctions SET
		title = $2, description = $3, images = $4, documents = $5, category = $6,
		location = $7, starting_bid = $8,
		current_bid = CASE WHEN bid_count = 0 THEN $8 ELSE current_bid END,
		start_time = $9, end_time = $10, updated_at = $11
		WHERE id = $1
		RETURNING ` + auctionColumns
	row := s.pool.QueryRow(ctx, query,
		a.AuctionID, a.Title, a.Description, a.Images, docs, a.Category,
		a.Location, a.StartingBid, a.StartTime, a.EndTime, a.UpdatedAt)
	updated, err := scanAuction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Auction{}, fmt.Errorf("update auction %s: %w", a.AuctionID, auctionerrors.ErrAuctionNotFound)
		}
		return model.Auction{}, fmt.Errorf("update auction %s: %w", a.AuctionID, err)
	}
	return updated, nil
}

// DeleteAuction removes an auction; its bids go with it via ON DELETE CASCADE
func (s *PostgresStore) DeleteAuction(ctx context.Context, auctionID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM auctions WHERE id = $1`, auctionID)
	if err != nil {
		return fmt.Errorf("delete auction %s: %w", auctionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return nil
}

// RecordBid inserts the bid and advances the auction's price state in one
// transaction. The auction row is locked with SELECT ... FOR UPDATE, so
// concurrent bidders serialize on the row and the window/price rules are
// re-validated against committed state before the writes apply.
func (s *PostgresStore) RecordBid(ctx context.Context, bid model.Bid) (model.Auction, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.Auction{}, fmt.Errorf("record bid for auction %s: begin: %w", bid.AuctionID, err)
	}
	defer tx.Rollback(ctx)

	var a model.Auction
	row := tx.QueryRow(ctx,
		`SELECT id, seller_id, starting_bid, current_bid, bid_count, start_time, end_time
		 FROM auctions WHERE id = $1 FOR UPDATE`, bid.AuctionID)
	err = row.Scan(&a.AuctionID, &a.SellerID, &a.StartingBid, &a.CurrentBid, &a.BidCount, &a.StartTime, &a.EndTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Auction{}, fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
		}
		return model.Auction{}, fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, err)
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

	_, err = tx.Exec(ctx,
		`INSERT INTO bids (id, auction_id, bidder_id, amount, created_at) VALUES ($1, $2, $3, $4, $5)`,
		bid.BidID, bid.AuctionID, bid.BidderID, bid.Amount, bid.CreatedAt)
	if err != nil {
		return model.Auction{}, fmt.Errorf("record bid for auction %s: insert: %w", bid.AuctionID, err)
	}

	row = tx.QueryRow(ctx,
		`UPDATE auctions SET current_bid = $2, highest_bidder = $3, bid_count = bid_count + 1, updated_at = $4
		 WHERE id = $1
		 RETURNING `+auctionColumns, bid.AuctionID, bid.Amount, bid.BidderID, bid.CreatedAt)
	updated, err := scanAuction(row)
	if err != nil {
		return model.Auction{}, fmt.Errorf("record bid for auction %s: update: %w", bid.AuctionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Auction{}, fmt.Errorf("record bid for auction %s: commit: %w", bid.AuctionID, err)
	}
	return updated, nil
}

// GetBidsByAuction returns an auction's bids, newest first
func (s *PostgresStore) GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if _, err := s.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	return s.queryBids(ctx,
		`SELECT id, auction_id, bidder_id, amount, created_at FROM bids
		 WHERE auction_id = $1 ORDER BY created_at DESC, id DESC`, auctionID)
}

// GetBidsByBidder returns all bids a user has placed, newest first
func (s *PostgresStore) GetBidsByBidder(ctx context.Context, bidderID string) ([]model.Bid, error) {
	return s.queryBids(ctx,
		`SELECT id, auction_id, bidder_id, amount, created_at FROM bids
		 WHERE bidder_id = $1 ORDER BY created_at DESC, id DESC`, bidderID)
}

func (s *PostgresStore) queryBids(ctx context.Context, query string, arg any) ([]model.Bid, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	defer rows.Close()

	out := make([]model.Bid, 0)
	for rows.Next() {
		var b model.Bid
		if err := rows.Scan(&b.BidID, &b.AuctionID, &b.BidderID, &b.Amount, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("list bids: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	return out, nil
}

// IncrementViews bumps an auction's view counter with a single atomic update
func (s *PostgresStore) IncrementViews(ctx context.Context, auctionID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE auctions SET views = views + 1 WHERE id = $1`, auctionID)
	if err != nil {
		return fmt.Errorf("increment views for auction %s: %w", auctionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("increment views for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return nil
}

// ToggleLike flips the user's membership in the auction's liked-by set
func (s *PostgresStore) ToggleLike(ctx context.Context, auctionID, userID string) (model.Auction, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.Auction{}, false, fmt.Errorf("toggle like for auction %s: begin: %w", auctionID, err)
	}
	defer tx.Rollback(ctx)

	var likedBy []string
	err = tx.QueryRow(ctx, `SELECT liked_by FROM auctions WHERE id = $1 FOR UPDATE`, auctionID).Scan(&likedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Auction{}, false, fmt.Errorf("toggle like for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
		}
		return model.Auction{}, false, fmt.Errorf("toggle like for auction %s: %w", auctionID, err)
	}

	liked := true
	for i, id := range likedBy {
		if id == userID {
			likedBy = append(likedBy[:i], likedBy[i+1:]...)
			liked = false
			break
		}
	}
	if liked {
		likedBy = append(likedBy, userID)
	}

	row := tx.QueryRow(ctx,
		`UPDATE auctions SET liked_by = $2 WHERE id = $1 RETURNING `+auctionColumns,
		auctionID, likedBy)
	a, err := scanAuction(row)
	if err != nil {
		return model.Auction{}, false, fmt.Errorf("toggle like for auction %s: %w", auctionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Auction{}, false, fmt.Errorf("toggle like for auction %s: commit: %w", auctionID, err)
	}
	return a, liked, nil
}

// CreateUser stores a new user, enforcing email uniqueness
func (s *PostgresStore) CreateUser(ctx context.Context, u model.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, is_admin, is_banned, profile_picture_url, last_login, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.UserID, u.Name, u.Email, u.PasswordHash, u.IsAdmin, u.IsBanned, u.ProfilePictureURL, u.LastLogin, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("create user %s: %w", u.Email, auctionerrors.ErrEmailTaken)
		}
		return fmt.Errorf("create user %s: %w", u.Email, err)
	}
	return nil
}

// GetUserByID returns the user with the given id
func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	return s.queryUser(ctx, `WHERE id = $1`, userID)
}

// GetUserByEmail returns the user registered under the given email
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.queryUser(ctx, `WHERE email = $1`, email)
}

func (s *PostgresStore) queryUser(ctx context.Context, where string, arg any) (model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, is_admin, is_banned, profile_picture_url, last_login, created_at
		 FROM users `+where, arg).
		Scan(&u.UserID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.IsBanned, &u.ProfilePictureURL, &u.LastLogin, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, fmt.Errorf("get user: %w", auctionerrors.ErrUserNotFound)
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpdateUser replaces the mutable columns of the stored user record
func (s *PostgresStore) UpdateUser(ctx context.Context, u model.User) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET name = $2, email = $3, password_hash = $4, is_admin = $5, is_banned = $6,
		 profile_picture_url = $7, last_login = $8 WHERE id = $1`,
		u.UserID, u.Name, u.Email, u.PasswordHash, u.IsAdmin, u.IsBanned, u.ProfilePictureURL, u.LastLogin)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("update user %s: %w", u.UserID, auctionerrors.ErrEmailTaken)
		}
		return fmt.Errorf("update user %s: %w", u.UserID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update user %s: %w", u.UserID, auctionerrors.ErrUserNotFound)
	}
	return nil
}

func scanAuction(row pgx.Row) (model.Auction, error) {
	var a model.Auction
	var docs []byte
	err := row.Scan(
		&a.AuctionID, &a.Title, &a.Description, &a.Images, &docs, &a.Category, &a.Location, &a.SellerID,
		&a.StartingBid, &a.CurrentBid, &a.HighestBidder, &a.BidCount, &a.Views, &a.LikedBy,
		&a.StartTime, &a.EndTime, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Auction{}, err
	}
	if len(docs) > 0 {
		if err := json.Unmarshal(docs, &a.Documents); err != nil {
			return model.Auction{}, fmt.Errorf("decode documents: %w", err)
		}
	}
	return a, nil
}
