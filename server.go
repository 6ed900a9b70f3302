package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type WebServer struct {
	store     WatchlistStore
	sessions  SessionResolver
	enricher  *WatchlistEnricher
	validator *RequestValidator
	scheduler *Scheduler
	router    *gin.Engine
}

// NewWebServer wires the HTTP API. The scheduler is optional; when given it
// is started here and stopped by Close.
func NewWebServer(store WatchlistStore, sessions SessionResolver, enricher *WatchlistEnricher, scheduler *Scheduler) *WebServer {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), requestID())

	server := &WebServer{
		store:     store,
		sessions:  sessions,
		enricher:  enricher,
		validator: NewRequestValidator(),
		router:    router,
	}

	if scheduler != nil {
		if err := scheduler.Start(); err != nil {
			log.Printf("Warning: Failed to start scheduler: %v", err)
		} else {
			server.scheduler = scheduler
		}
	}

	server.setupRoutes()
	return server
}

func (ws *WebServer) setupRoutes() {
	ws.router.GET("/healthz", ws.health)

	api := ws.router.Group("/api")
	api.Use(sessionMiddleware(ws.sessions))
	{
		api.GET("/watchlist", ws.getWatchlist)
		api.GET("/watchlist/symbols", ws.getWatchlistSymbols)
		api.POST("/watchlist", ws.addToWatchlist)
		api.DELETE("/watchlist/:symbol", ws.removeFromWatchlist)
	}
}

// requestID tags every request with an X-Request-ID, keeping the caller's if set.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (ws *WebServer) Run(addr string) error {
	log.Printf("Web server starting on %s", addr)
	return ws.router.Run(addr)
}

func (ws *WebServer) Close() {
	if ws.scheduler != nil {
		ws.scheduler.Stop()
	}
}
