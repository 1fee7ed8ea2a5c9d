package session

import (
	"context"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/agentgate-dev/agentgate/pkg/apperrors"
)

// GormStore implements Store on a gorm-managed database. SQLite is the
// default deployment; postgres is available for shared installs.
type GormStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) a SQLite database at path. Use ":memory:"
// for tests.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeStoreFailure, "failed to open sqlite database", err)
	}
	return db, nil
}

// OpenPostgres opens a postgres database from a DSN.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeStoreFailure, "failed to open postgres database", err)
	}
	return db, nil
}

// NewGormStore migrates the session schema and returns the store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Session{}); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeStoreFailure, "failed to migrate session schema", err)
	}
	return &GormStore{db: db}, nil
}

func (g *GormStore) Create(ctx context.Context, s *Session) error {
	if err := g.db.WithContext(ctx).Create(s).Error; err != nil {
		return apperrors.New(apperrors.ErrCodeSessionCreate, "failed to create session", err)
	}
	return nil
}

func (g *GormStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	var s Session
	err := g.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSessionGet, "failed to load session", err)
	}
	return &s, nil
}

func (g *GormStore) Update(ctx context.Context, s *Session) error {
	if err := g.db.WithContext(ctx).Save(s).Error; err != nil {
		return apperrors.New(apperrors.ErrCodeSessionUpdate, "failed to update session", err)
	}
	return nil
}

func (g *GormStore) Delete(ctx context.Context, sessionID string) error {
	if err := g.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&Session{}).Error; err != nil {
		return apperrors.New(apperrors.ErrCodeSessionDelete, "failed to delete session", err)
	}
	return nil
}

func (g *GormStore) ListByUser(ctx context.Context, userID int64) ([]*Session, error) {
	var sessions []*Session
	err := g.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_used DESC").
		Order("row_id DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSessionGet, "failed to list sessions", err)
	}
	return sessions, nil
}

func (g *GormStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := g.db.WithContext(ctx).Where("last_used < ?", cutoff).Delete(&Session{})
	if res.Error != nil {
		return 0, apperrors.New(apperrors.ErrCodeSessionDelete, "failed to delete expired sessions", res.Error)
	}
	return res.RowsAffected, nil
}
