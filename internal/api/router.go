package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sathvikparasa/warnabrotha/internal/api/handler"
	"github.com/sathvikparasa/warnabrotha/internal/api/middleware"
	"github.com/sathvikparasa/warnabrotha/internal/service"
)

type Services struct {
	Auth          *service.AuthService
	Lots          *service.LotService
	Sessions      *service.SessionService
	Sightings     *service.SightingService
	Feed          *service.FeedService
	Notifications *service.NotificationService
	Predictions   *service.PredictionService
}

func SetupRouter(
	svc Services,
	authMw *middleware.AuthMiddleware,
	wsHandler *handler.WebSocketHandler,
) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "warnabrotha", "status": "ok"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Live notification channel; authenticated by token query param.
	r.GET("/ws", wsHandler.HandleWebSocket)

	authHandler := handler.NewAuthHandler(svc.Auth)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
	}

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		verificationRoutes := v1.Group("/verification")
		{
			verificationRoutes.POST("/request", authHandler.RequestVerification)
			verificationRoutes.POST("/confirm", authHandler.ConfirmVerification)
		}

		lotHandler := handler.NewParkingLotHandler(svc.Lots)
		predictionHandler := handler.NewPredictionHandler(svc.Predictions)
		sightingHandler := handler.NewSightingHandler(svc.Sightings)
		feedHandler := handler.NewFeedHandler(svc.Feed)

		lotRoutes := v1.Group("/lots")
		{
			lotRoutes.GET("", lotHandler.ListLots)
			lotRoutes.GET("/:id", lotHandler.GetLot)
			lotRoutes.GET("/:id/sightings/latest", sightingHandler.Latest)
			lotRoutes.GET("/:id/feed", feedHandler.LotFeed)
			lotRoutes.GET("/:id/prediction", predictionHandler.Predict)
		}

		sessionHandler := handler.NewSessionHandler(svc.Sessions)
		sessionRoutes := v1.Group("/sessions")
		{
			sessionRoutes.POST("/check-in", sessionHandler.CheckIn)
			sessionRoutes.POST("/check-out", sessionHandler.CheckOut)
			sessionRoutes.GET("/current", sessionHandler.Current)
			sessionRoutes.GET("", sessionHandler.History)
		}

		sightingRoutes := v1.Group("/sightings")
		{
			// Reporting and voting require a verified campus email.
			sightingRoutes.POST("", authMw.RequireVerified(), sightingHandler.Report)
			sightingRoutes.GET("", sightingHandler.List)
			sightingRoutes.POST("/:id/vote", authMw.RequireVerified(), feedHandler.Vote)
		}

		v1.GET("/feed", feedHandler.AllFeeds)
		v1.GET("/predictions", predictionHandler.PredictAll)

		notificationHandler := handler.NewNotificationHandler(svc.Notifications)
		notificationRoutes := v1.Group("/notifications")
		{
			notificationRoutes.GET("", notificationHandler.List)
			notificationRoutes.GET("/unread", notificationHandler.Unread)
			notificationRoutes.POST("/read", notificationHandler.MarkRead)
		}
	}

	return r
}
