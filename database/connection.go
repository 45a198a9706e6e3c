package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/ridoystarlord/inheritview/utils"
)

var (
	pool     *pgxpool.Pool
	poolOnce sync.Once
	poolErr  error

	db     *sqlx.DB
	dbOnce sync.Once
)

// GetPool returns a singleton connection pool for the application
func GetPool() (*pgxpool.Pool, error) {
	poolOnce.Do(func() {
		utils.LoadEnv()
		connStr, err := utils.DatabaseURL()
		if err != nil {
			poolErr = err
			return
		}

		ctx := context.Background()
		pool, poolErr = pgxpool.New(ctx, connStr)
		if poolErr != nil {
			poolErr = fmt.Errorf("unable to create connection pool: %w", poolErr)
			return
		}

		// Test the connection
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			poolErr = fmt.Errorf("unable to ping database: %w", err)
			return
		}
	})

	return pool, poolErr
}

// GetDB returns a sqlx handle backed by the singleton pool.
func GetDB() (*sqlx.DB, error) {
	p, err := GetPool()
	if err != nil {
		return nil, err
	}
	dbOnce.Do(func() {
		db = sqlx.NewDb(stdlib.OpenDBFromPool(p), "pgx")
	})
	return db, nil
}

// ClosePool closes the connection pool (should be called on application shutdown)
func ClosePool() {
	if db != nil {
		db.Close()
	}
	if pool != nil {
		pool.Close()
	}
}
