package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

func (ws *WebServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (ws *WebServer) getWatchlist(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		c.JSON(http.StatusOK, []EnrichedWatchlistEntry{})
		return
	}

	entries, err := ws.enricher.EnrichWatchlist(c.Request.Context(), owner.ID)
	if err != nil {
		log.Printf("getWatchlist error: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "watchlist temporarily unavailable"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (ws *WebServer) getWatchlistSymbols(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		c.JSON(http.StatusOK, SymbolsResponse{Symbols: []string{}})
		return
	}

	symbols, err := ws.store.GetWatchlistSymbolsByEmail(c.Request.Context(), owner.Email)
	if err != nil {
		log.Printf("getWatchlistSymbols error: %v", err)
		symbols = []string{}
	}

	c.JSON(http.StatusOK, SymbolsResponse{Symbols: symbols})
}

func (ws *WebServer) addToWatchlist(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ActionResponse{Message: "User not authenticated"})
		return
	}

	var req AddWatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := ws.validator.ValidateAddRequest(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := ws.store.AddWatchlistEntry(c.Request.Context(), owner.ID, req.Symbol, req.Company)
	switch {
	case errors.Is(err, ErrAlreadyInWatchlist):
		c.JSON(http.StatusConflict, ActionResponse{Message: "Stock already in watchlist"})
		return
	case err != nil:
		log.Printf("addToWatchlist error: %v", err)
		c.JSON(http.StatusInternalServerError, ActionResponse{Message: "Failed to add stock to watchlist"})
		return
	}

	log.Printf("Added %s to watchlist of %s", entry.Symbol, owner.ID)
	c.JSON(http.StatusCreated, ActionResponse{Success: true, Message: "Stock added to watchlist"})
}

func (ws *WebServer) removeFromWatchlist(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ActionResponse{Message: "User not authenticated"})
		return
	}

	symbol := normalizeSymbol(c.Param("symbol"))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Symbol is required"})
		return
	}

	err := ws.store.RemoveWatchlistEntry(c.Request.Context(), owner.ID, symbol)
	switch {
	case errors.Is(err, ErrNotInWatchlist):
		c.JSON(http.StatusNotFound, ActionResponse{Message: "Stock not found in watchlist"})
		return
	case err != nil:
		log.Printf("removeFromWatchlist error: %v", err)
		c.JSON(http.StatusInternalServerError, ActionResponse{Message: "Failed to remove stock from watchlist"})
		return
	}

	c.JSON(http.StatusOK, ActionResponse{Success: true, Message: "Stock removed from watchlist"})
}
