// internal/storage/sqlstore/sqlstore.go
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/rovshanmuradov/solstrike-client/internal/storage"
	"github.com/rovshanmuradov/solstrike-client/internal/storage/models"
)

const migrationLock = 101

// gormLogger реализует интерфейс logger.Interface для GORM
type gormLogger struct {
	zapLogger     *zap.Logger
	logLevel      logger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger(zapLogger *zap.Logger) logger.Interface {
	return &gormLogger{
		zapLogger:     zapLogger,
		logLevel:      logger.Warn,
		slowThreshold: 200 * time.Millisecond,
	}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.zapLogger.Sugar().Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.zapLogger.Sugar().Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.zapLogger.Sugar().Errorf(msg, data...)
	}
}

// Trace логирует запросы: ошибки всегда, медленные на Warn, остальные на Debug.
func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		l.zapLogger.Error("Query failed", append(fields, zap.Error(err))...)
	case elapsed > l.slowThreshold && l.logLevel >= logger.Warn:
		l.zapLogger.Warn("Slow query", fields...)
	case l.logLevel >= logger.Info:
		l.zapLogger.Debug("Query", fields...)
	}
}

// Store реализует storage.Journal поверх GORM.
type Store struct {
	db       *gorm.DB
	logger   *zap.Logger
	postgres bool
}

var _ storage.Journal = (*Store)(nil)

// dialector выбирает драйвер по DSN: postgres:// и postgresql:// идут в
// Postgres, sqlite://path и всё остальное считается путём к файлу SQLite.
func dialector(dsn string) (gorm.Dialector, bool) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(dsn), true
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://")), false
	}
	return sqlite.Open(dsn), false
}

// Open connects to dsn. Migrations are not run; call RunMigrations.
func Open(dsn string, zapLogger *zap.Logger) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("empty journal dsn")
	}
	dial, isPostgres := dialector(dsn)

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: newGormLogger(zapLogger.Named("gorm")),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if isPostgres {
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetMaxOpenConns(4)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// SQLite допускает одного писателя.
		sqlDB.SetMaxOpenConns(1)
	}

	return &Store{db: db, logger: zapLogger, postgres: isPostgres}, nil
}

// RunMigrations создаёт таблицы журнала. На Postgres миграции сериализуются
// advisory-блокировкой.
func (s *Store) RunMigrations(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if s.postgres {
		var lockObtained bool
		if err := db.Raw("SELECT pg_try_advisory_lock(?)", migrationLock).Scan(&lockObtained).Error; err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}
		if !lockObtained {
			return errors.New("another migration is in progress")
		}
		defer db.Exec("SELECT pg_advisory_unlock(?)", migrationLock)
	}

	if err := db.AutoMigrate(&models.Transaction{}, &models.BuyObservation{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	return s.db.WithContext(ctx).Create(tx).Error
}

func (s *Store) GetTransaction(ctx context.Context, signature string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.WithContext(ctx).Where("signature = ?", signature).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("transaction %s: %w", signature, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// ListTransactions returns the newest rows first. An empty authority lists
// every authority.
func (s *Store) ListTransactions(ctx context.Context, authority string, limit, offset int) ([]*models.Transaction, error) {
	q := s.db.WithContext(ctx).Order("id desc").Limit(limit).Offset(offset)
	if authority != "" {
		q = q.Where("authority = ?", authority)
	}
	var txs []*models.Transaction
	err := q.Find(&txs).Error
	return txs, err
}

func (s *Store) UpdateTransactionStatus(ctx context.Context, signature string, status string, errorMsg string) error {
	res := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("signature = ?", signature).
		Updates(map[string]interface{}{
			"status":        status,
			"error_message": errorMsg,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %s: %w", signature, storage.ErrNotFound)
	}
	return nil
}

// SaveBuyObservation is idempotent per signature.
func (s *Store) SaveBuyObservation(ctx context.Context, obs *models.BuyObservation) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "signature"}}, DoNothing: true}).
		Create(obs).Error
}

func (s *Store) ListBuyObservations(ctx context.Context) ([]*models.BuyObservation, error) {
	var out []*models.BuyObservation
	err := s.db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
