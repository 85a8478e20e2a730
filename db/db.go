package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/padraicbc/f1sim/config"
	"github.com/padraicbc/f1sim/models"
)

// Setup opens a PostgreSQL connection using the provided config.
func Setup(ctx context.Context, cfg *config.Config) (*bun.DB, error) {
	bdb := Open(cfg.PostgresDSN(), cfg.Debug)
	if err := bdb.PingContext(ctx); err != nil {
		bdb.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return bdb, nil
}

// Open returns a bun handle for dsn without checking connectivity.
func Open(dsn string, debug bool) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	bdb := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		bdb.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return bdb
}

// CreateTables creates all tables in dependency order.
func CreateTables(ctx context.Context, bdb *bun.DB) error {
	tables := []interface{}{
		(*models.User)(nil),
		(*models.Circuit)(nil),
		(*models.Profile)(nil),
		(*models.SimulationRun)(nil),
		(*models.LapRecord)(nil),
	}

	for _, model := range tables {
		if _, err := bdb.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", model, err)
		}
	}

	indexes := []struct {
		model   interface{}
		name    string
		columns []string
	}{
		{(*models.Profile)(nil), "profiles_course_year_idx", []string{"course", "year"}},
		{(*models.LapRecord)(nil), "lap_records_run_idx", []string{"run_id"}},
	}
	for _, ix := range indexes {
		_, err := bdb.NewCreateIndex().Model(ix.model).Index(ix.name).Column(ix.columns...).IfNotExists().Exec(ctx)
		if err != nil {
			return fmt.Errorf("creating index %s: %w", ix.name, err)
		}
	}

	return nil
}
