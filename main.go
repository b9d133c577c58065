package main

import (
	"context"
	"fmt"
	"os"
	"time"

	auction "auction-house/internal/auctionService"
	auth "auction-house/internal/authService"
	bidding "auction-house/internal/biddingService"
	"auction-house/internal/config"
	"auction-house/internal/db"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	"auction-house/utils"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/workpool"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		utils.Fatal("cannot load config", map[string]any{"error": err.Error()})
	}

	clk := clock.NewClock()

	store, cleanup, err := buildStore(cfg, clk)
	if err != nil {
		utils.Fatal("cannot initialize store", map[string]any{"error": err.Error(), "driver": cfg.StoreDriver})
	}
	defer cleanup()

	viewPool, err := workpool.NewWorkPool(cfg.ViewWorkers)
	if err != nil {
		utils.Fatal("cannot create view work pool", map[string]any{"error": err.Error()})
	}
	defer viewPool.Stop()

	authSvc := auth.NewAuthService(store, clk, cfg.JWTSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	auctionSvc := auction.NewAuctionService(store, clk, viewPool)
	biddingSvc := bidding.NewBiddingService(store, clk)

	router := server.SetupRouter(server.Services{
		Auth:    authSvc,
		Auction: auctionSvc,
		Bidding: biddingSvc,
		Clock:   clk,
	})

	fmt.Printf("Starting auction server on %s...\n", cfg.ServerAddress)
	if err := router.Run(cfg.ServerAddress); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// buildStore selects the persistence backend from config
func buildStore(cfg config.Config, clk clock.Clock) (repository.AuctionStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := db.InitDB(context.Background(), cfg)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresStore(pool, clk), pool.Close, nil
	default:
		return repository.NewMemoryStore(clk), func() {}, nil
	}
}
