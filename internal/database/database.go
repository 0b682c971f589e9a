package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

// Database owns the connection pool and the gorm handle built on top of it.
type Database struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

// Open connects through the pgx stdlib driver and wraps the pool in gorm.
func Open(ctx context.Context, dsn string, logSQL bool) (*Database, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	level := logger.Warn
	if logSQL {
		level = logger.Info
	}
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("error opening gorm: %w", err)
	}

	slog.Info("database connected")
	return &Database{db: db, sqlDB: sqlDB}, nil
}

// Migrate creates or updates every table the API uses.
func (d *Database) Migrate(ctx context.Context) error {
	err := d.db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Question{},
		&models.Answer{},
		&models.Vote{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	slog.Info("database migrations completed")
	return nil
}

func (d *Database) GORM() *gorm.DB {
	return d.db
}

// Health pings the database and reports pool statistics.
func (d *Database) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	stats := make(map[string]string)
	if err := d.sqlDB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	dbStats := d.sqlDB.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)
	return stats
}

func (d *Database) Close() error {
	slog.Info("disconnecting from database")
	return d.sqlDB.Close()
}
