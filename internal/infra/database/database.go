package database

import (
	"database/sql"
	"fmt"
	"time"

	dbConfig "daybreak/config/database"
	"daybreak/internal/infra/database/bun"
	"daybreak/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	upbun "github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// GetDsn builds the Postgres connection string bun/pgx expects.
func GetDsn(cfg dbConfig.DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
}

// NewBunClient opens the pgdialect/pgx pool backing the message-log and
// user stores, matching db/cmd/migrate.go's driver choice.
func NewBunClient(cfg dbConfig.DatabaseConfig) (*upbun.DB, error) {
	dsn := GetDsn(cfg)

	sqldb, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := sqldb.Ping(); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := upbun.NewDB(sqldb, pgdialect.New())

	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(time.Duration(cfg.MaxConnLifeTime) * time.Second)

	if cfg.Debug {
		db.AddQueryHook(&bun.DebugHook{})
	}

	logger.Debugf("database connection established: driver=pgx maxIdle=%d maxOpen=%d",
		cfg.MaxIdleConns, cfg.MaxOpenConns)

	return db, nil
}
