package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"macrocal/internal/config"
)

type DB struct {
	Gorm *gorm.DB
	SQL  *sql.DB
	Pool *pgxpool.Pool
}

// Open builds a pgx pool and layers gorm on top of it through database/sql.
func Open(ctx context.Context, cfg config.DBConfig) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	if cfg.SimpleProtocol {
		poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
	if cfg.Timezone != "" {
		poolCfg.ConnConfig.RuntimeParams["timezone"] = cfg.Timezone
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	sqldb := stdlib.OpenDBFromPool(pool)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	gcfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqldb}), gcfg)
	if err != nil {
		_ = sqldb.Close()
		pool.Close()
		return nil, err
	}

	return &DB{Gorm: gdb, SQL: sqldb, Pool: pool}, nil
}

func Close(db *DB) error {
	if db == nil {
		return nil
	}
	var err error
	if db.SQL != nil {
		err = db.SQL.Close()
	}
	if db.Pool != nil {
		db.Pool.Close()
	}
	return err
}

func Ping(ctx context.Context, db *DB) error {
	if db == nil || db.Pool == nil {
		return nil
	}
	return db.Pool.Ping(ctx)
}

func NowUTC() time.Time {
	return time.Now().UTC()
}
