package server

import (
	authhandler "auction-house/services/auth/handler"
	auctionhandler "auction-house/services/auction/handler"
	biddinghandler "auction-house/services/bidding/handler"

	"code.cloudfoundry.org/clock"
	"github.com/gin-gonic/gin"
)

// Services bundles everything the router needs
type Services struct {
	Auth    interface {
		Authenticator
		authhandler.AuthServiceInterface
	}
	Auction auctionhandler.AuctionServiceInterface
	Bidding biddinghandler.BiddingServiceInterface
	Clock   clock.Clock
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(svcs Services) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	authHandler := authhandler.NewAuthHandler(svcs.Auth)
	auctionHandler := auctionhandler.NewAuctionHandler(svcs.Auction, svcs.Clock)
	biddingHandler := biddinghandler.NewBiddingHandler(svcs.Bidding)

	requireAuth := AuthMiddleware(svcs.Auth)

	auth := router.Group("/auth")
	{
		auth.POST("/register", authHandler.RegisterHandler)
		auth.POST("/login", authHandler.LoginHandler)
	}

	auctions := router.Group("/auctions")
	{
		auctions.GET("", auctionHandler.ListAuctionsHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.GET("/:auction_id/bids", biddingHandler.GetBidsByAuctionHandler)

		protected := auctions.Group("", requireAuth)
		{
			protected.POST("", auctionHandler.CreateAuctionHandler)
			protected.PATCH("/:auction_id", auctionHandler.UpdateAuctionHandler)
			protected.DELETE("/:auction_id", auctionHandler.DeleteAuctionHandler)
			protected.POST("/:auction_id/like", auctionHandler.ToggleLikeHandler)
			protected.POST("/:auction_id/bids", biddingHandler.PlaceBidHandler)
		}
	}

	bids := router.Group("/bids", requireAuth)
	{
		bids.GET("/me", biddingHandler.GetMyBidsHandler)
	}

	users := router.Group("/users", requireAuth)
	{
		users.GET("/me/auctions", auctionHandler.MyAuctionsHandler)
	}

	admin := router.Group("/admin", requireAuth, RequireAdmin)
	{
		admin.POST("/users/:user_id/ban", authHandler.BanUserHandler)
		admin.DELETE("/users/:user_id/ban", authHandler.UnbanUserHandler)
	}

	return router
}
