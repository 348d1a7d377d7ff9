package storage

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Entry is one stored value of one web client
type Entry struct {
	ClientID  string    `gorm:"primaryKey;type:varchar(26)"`
	Name      string    `gorm:"primaryKey;type:varchar(128)"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName pins the table name
func (Entry) TableName() string {
	return "client_storage"
}

// OpenDatabase opens the SQLite database holding web client storage and migrates it
func OpenDatabase(url string, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 4
		maxIdleConns    = 2
		connMaxLifetime = 300 // 5 minutes
		busyTimeout     = 5000
	)

	// Open database connection
	db, err := gorm.Open(sqlite.Open(url), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stderr, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// SQLite is the storage of a single web client, keyed by its client id
type SQLite struct {
	db       *gorm.DB
	clientID string
	logger   zerolog.Logger
}

// NewSQLite scopes db to clientID
func NewSQLite(db *gorm.DB, clientID string, zlog zerolog.Logger) *SQLite {
	return &SQLite{db: db, clientID: clientID, logger: zlog}
}

func (s *SQLite) Get(key string) (string, bool) {
	var entry Entry
	err := s.db.Where("client_id = ? AND name = ?", s.clientID, key).Take(&entry).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Err(err).Str("client_id", s.clientID).Str("key", key).Msg("Failed to read client storage")
		}
		return "", false
	}
	return entry.Value, true
}

func (s *SQLite) Set(key, value string) error {
	entry := Entry{ClientID: s.clientID, Name: key, Value: value}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write client storage: %w", err)
	}
	return nil
}

func (s *SQLite) Remove(key string) error {
	err := s.db.Where("client_id = ? AND name = ?", s.clientID, key).Delete(&Entry{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete from client storage: %w", err)
	}
	return nil
}
