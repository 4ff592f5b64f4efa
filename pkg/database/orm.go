package database

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlog "gorm.io/gorm/logger"

	"github.com/bitechdev/furniture-admin/pkg/logger"
)

// gormWriter sends gorm's statement log to the debug level of the
// application logger.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logger.Debug(format, args...)
}

// NewGormLogger is the gorm logger used for every gorm handle, including the
// sqlite ones in tests.
func NewGormLogger() gormlog.Interface {
	return gormlog.New(
		gormWriter{},
		gormlog.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlog.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)
}

// OpenGorm wraps an existing database/sql handle for Postgres.
func OpenGorm(sqlDB *sql.DB) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: NewGormLogger(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open gorm")
	}
	return db, nil
}

// OpenBun wraps an existing database/sql handle for Postgres.
func OpenBun(sqlDB *sql.DB) *bun.DB {
	return bun.NewDB(sqlDB, pgdialect.New())
}

// Gorm returns a gorm handle on the pool.
func (p *Pool) Gorm() (*gorm.DB, error) {
	return OpenGorm(p.SQLDB())
}

// Bun returns a bun handle on the pool.
func (p *Pool) Bun() *bun.DB {
	return OpenBun(p.SQLDB())
}
