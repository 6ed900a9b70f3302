package main

import (
	"time"
)

// GORM models for the database

// WatchlistItem is the stored row behind a WatchlistEntry
type WatchlistItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   string    `gorm:"uniqueIndex:idx_watchlist_owner_symbol;not null" json:"userId"`
	Symbol    string    `gorm:"uniqueIndex:idx_watchlist_owner_symbol;not null" json:"symbol"`
	Company   string    `gorm:"not null;default:''" json:"company"`
	AddedAt   time.Time `gorm:"autoCreateTime" json:"addedAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name for WatchlistItem
func (WatchlistItem) TableName() string {
	return "watchlist_items"
}

func (w WatchlistItem) toEntry() WatchlistEntry {
	return WatchlistEntry{
		OwnerID: w.OwnerID,
		Symbol:  w.Symbol,
		Company: w.Company,
		AddedAt: w.AddedAt,
	}
}

// User is an account that can own a watchlist
type User struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// Session maps an opaque token to a user until it expires
type Session struct {
	Token     string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"index:idx_sessions_user_id;not null" json:"userId"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName specifies the table name for Session
func (Session) TableName() string {
	return "sessions"
}

// Get all model types for auto migration
var allModels = []interface{}{
	&WatchlistItem{},
	&User{},
	&Session{},
}
