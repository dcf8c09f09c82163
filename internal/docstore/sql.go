package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// documentRow is the single relational table backing the SQL document store:
// one row per document, payload kept as opaque JSON.
type documentRow struct {
	Collection string    `gorm:"primaryKey;size:64"`
	Key        string    `gorm:"primaryKey;size:128"`
	Data       []byte    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM.
func (documentRow) TableName() string {
	return "documents"
}

// slogGormLogger integrates GORM with slog.
type slogGormLogger struct {
	logger *slog.Logger
	level  logger.LogLevel
}

// LogMode sets the logging level and returns a new interface instance.
func (l *slogGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *slogGormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *slogGormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *slogGormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Trace logs SQL queries and execution time for slow or failed statements.
func (l *slogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		l.logger.ErrorContext(ctx, "document query error",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
	case elapsed > 200*time.Millisecond && l.level >= logger.Warn:
		l.logger.WarnContext(ctx, "document slow query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	}
}

// SQLStore implements Store over a relational database via GORM. Put/Get
// remain whole-document operations on purpose; the table gives durability
// and operability, not stronger consistency than the Badger backend.
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLStore opens a SQL-backed document store on the given dialector and
// migrates the documents table.
func NewSQLStore(dialector gorm.Dialector, log *slog.Logger) (*SQLStore, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: &slogGormLogger{logger: log, level: logger.Warn},
	})
	if err != nil {
		return nil, fmt.Errorf("open document database: %w", err)
	}
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("migrate documents table: %w", err)
	}
	return &SQLStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// OpenPostgres opens a Postgres-backed document store.
func OpenPostgres(dsn string, log *slog.Logger) (*SQLStore, error) {
	return NewSQLStore(postgres.Open(dsn), log)
}

// OpenSQLite opens a SQLite-backed document store. ":memory:" works for tests.
func OpenSQLite(path string, log *slog.Logger) (*SQLStore, error) {
	return NewSQLStore(sqlite.Open(path), log)
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, collection, key string, out any) error {
	var row documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND key = ?", collection, key).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", collection, key, err)
	}

	if err := json.Unmarshal(row.Data, out); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, key, err)
	}
	if ts, ok := out.(Timestamped); ok {
		ts.SetTimestamps(row.CreatedAt, row.UpdatedAt)
	}
	return nil
}

// Put implements Store. The read of the prior creation timestamp and the
// upsert are separate statements, matching the non-transactional contract.
func (s *SQLStore) Put(ctx context.Context, collection, key string, doc any) error {
	now := s.now()
	created := now

	var existing documentRow
	err := s.db.WithContext(ctx).
		Select("created_at").
		Where("collection = ? AND key = ?", collection, key).
		First(&existing).Error
	if err == nil && !existing.CreatedAt.IsZero() {
		created = existing.CreatedAt
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("put %s/%s: %w", collection, key, err)
	}

	if ts, ok := doc.(Timestamped); ok {
		ts.SetTimestamps(created, now)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, key, err)
	}

	row := documentRow{
		Collection: collection,
		Key:        key,
		Data:       data,
		CreatedAt:  created,
		UpdatedAt:  now,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, key, err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLStore) Delete(ctx context.Context, collection, key string) error {
	err := s.db.WithContext(ctx).
		Where("collection = ? AND key = ?", collection, key).
		Delete(&documentRow{}).Error
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, key, err)
	}
	return nil
}

// List implements Store.
func (s *SQLStore) List(ctx context.Context, collection string, each func(data []byte) error) error {
	var rows []documentRow
	result := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		FindInBatches(&rows, 200, func(_ *gorm.DB, _ int) error {
			for _, row := range rows {
				if err := each(row.Data); err != nil {
					return err
				}
			}
			return nil
		})
	if result.Error != nil {
		return fmt.Errorf("list %s: %w", collection, result.Error)
	}
	return nil
}

// Close implements Store.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
