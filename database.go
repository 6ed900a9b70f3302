package main

import (
	"context"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database is the SQLite backed Backend.
type Database struct {
	db *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// Auto migrate tables
	if err := db.AutoMigrate(allModels...); err != nil {
		return nil, errors.Wrap(err, "failed to auto migrate")
	}

	database := &Database{db: db}

	if err := database.createAdditionalIndexes(); err != nil {
		return nil, errors.Wrap(err, "failed to create additional indexes")
	}

	return database, nil
}

// createAdditionalIndexes creates indexes that are not easily covered by GORM tags
func (d *Database) createAdditionalIndexes() error {
	if err := d.db.Exec("CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)").Error; err != nil {
		return errors.Wrap(err, "failed to create session expiry index")
	}
	return nil
}

func (d *Database) AddWatchlistEntry(ctx context.Context, ownerID, symbol, company string) (WatchlistEntry, error) {
	item := WatchlistItem{
		OwnerID: ownerID,
		Symbol:  normalizeSymbol(symbol),
		Company: strings.TrimSpace(company),
	}

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&WatchlistItem{}).
			Where("owner_id = ? AND symbol = ?", item.OwnerID, item.Symbol).
			Count(&count).Error
		if err != nil {
			return errors.Wrap(err, "failed to check watchlist")
		}
		if count > 0 {
			return ErrAlreadyInWatchlist
		}
		if err := tx.Create(&item).Error; err != nil {
			return errors.Wrapf(err, "failed to add %s to watchlist", item.Symbol)
		}
		return nil
	})
	if err != nil {
		return WatchlistEntry{}, err
	}

	return item.toEntry(), nil
}

func (d *Database) RemoveWatchlistEntry(ctx context.Context, ownerID, symbol string) error {
	result := d.db.WithContext(ctx).
		Where("owner_id = ? AND symbol = ?", ownerID, normalizeSymbol(symbol)).
		Delete(&WatchlistItem{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to remove watchlist entry")
	}
	if result.RowsAffected == 0 {
		return ErrNotInWatchlist
	}
	return nil
}

func (d *Database) GetWatchlist(ctx context.Context, ownerID string) ([]WatchlistEntry, error) {
	var items []WatchlistItem
	result := d.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Find(&items)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query watchlist")
	}

	entries := make([]WatchlistEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, item.toEntry())
	}
	return entries, nil
}

func (d *Database) GetWatchlistSymbolsByEmail(ctx context.Context, email string) ([]string, error) {
	symbols := []string{}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return symbols, nil
	}

	var user User
	err := d.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return symbols, nil
		}
		return nil, errors.Wrap(err, "failed to query user")
	}

	err = d.db.WithContext(ctx).Model(&WatchlistItem{}).
		Where("owner_id = ?", user.ID).
		Order("id ASC").
		Pluck("symbol", &symbols).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to query watchlist symbols")
	}
	return symbols, nil
}

func (d *Database) ListOwners(ctx context.Context) ([]Owner, error) {
	var users []User
	if err := d.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "failed to query users")
	}

	owners := make([]Owner, 0, len(users))
	for _, user := range users {
		owners = append(owners, Owner{ID: user.ID, Email: user.Email})
	}
	return owners, nil
}

func (d *Database) ResolveSession(ctx context.Context, token string) (Owner, error) {
	if token == "" {
		return Owner{}, ErrNoSession
	}

	var session Session
	err := d.db.WithContext(ctx).Where("token = ?", token).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Owner{}, ErrNoSession
		}
		return Owner{}, errors.Wrap(err, "failed to query session")
	}
	if !session.ExpiresAt.After(time.Now()) {
		return Owner{}, ErrNoSession
	}

	var user User
	err = d.db.WithContext(ctx).Where("id = ?", session.UserID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Owner{}, ErrNoSession
		}
		return Owner{}, errors.Wrap(err, "failed to query session user")
	}

	return Owner{ID: user.ID, Email: user.Email}, nil
}

func (d *Database) CreateUser(ctx context.Context, email, name string) (Owner, error) {
	user := User{
		ID:    uuid.NewString(),
		Email: strings.ToLower(strings.TrimSpace(email)),
		Name:  strings.TrimSpace(name),
	}
	if err := d.db.WithContext(ctx).Create(&user).Error; err != nil {
		return Owner{}, errors.Wrapf(err, "failed to create user %s", user.Email)
	}
	return Owner{ID: user.ID, Email: user.Email}, nil
}

func (d *Database) CreateSession(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	session := Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := d.db.WithContext(ctx).Create(&session).Error; err != nil {
		return "", errors.Wrap(err, "failed to create session")
	}
	return session.Token, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get underlying sql.DB")
	}
	return sqlDB.Close()
}
