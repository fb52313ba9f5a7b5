package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DoyleJ11/take5-client/internal/session"
	"github.com/DoyleJ11/take5-client/pkg/types"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// IdentityRecord keeps one identity per local profile name.
type IdentityRecord struct {
	Profile   string `gorm:"primaryKey;size:64"`
	PlayerID  string `gorm:"size:128;not null"`
	Name      string `gorm:"size:128;not null"`
	UpdatedAt time.Time
}

// PlayRecord is one attributed card landing.
type PlayRecord struct {
	ID         uint   `gorm:"primaryKey"`
	RoomID     string `gorm:"size:64;index"`
	PlayerID   string `gorm:"size:128"`
	PlayerName string `gorm:"size:128"`
	CardValue  int
	Row        int
	CreatedAt  time.Time
}

type DB struct {
	*gorm.DB
	pool *pgxpool.Pool
}

// Open connects to Postgres through a pgx pool and migrates the two tables.
func Open(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	if err := gdb.WithContext(ctx).AutoMigrate(&IdentityRecord{}, &PlayRecord{}); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DB{DB: gdb, pool: pool}, nil
}

func (db *DB) Close() {
	if sqlDB, err := db.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	db.pool.Close()
}

// WritePlays inserts a batch of play records.
func (db *DB) WritePlays(ctx context.Context, recs []PlayRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&recs).Error
}

// IdentityStore persists the identity for one profile.
type IdentityStore struct {
	db      *DB
	profile string
}

func NewIdentityStore(db *DB, profile string) *IdentityStore {
	return &IdentityStore{db: db, profile: profile}
}

func (s *IdentityStore) Load(ctx context.Context) (types.Identity, error) {
	var rec IdentityRecord
	err := s.db.WithContext(ctx).Where("profile = ?", s.profile).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.Identity{}, session.ErrNoIdentity
	}
	if err != nil {
		return types.Identity{}, fmt.Errorf("load identity: %w", err)
	}
	return types.Identity{ID: rec.PlayerID, Name: rec.Name}, nil
}

func (s *IdentityStore) Save(ctx context.Context, id types.Identity) error {
	rec := IdentityRecord{Profile: s.profile, PlayerID: id.ID, Name: id.Name}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile"}},
		DoUpdates: clause.AssignmentColumns([]string{"player_id", "name", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}
