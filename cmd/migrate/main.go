// cmd/migrate/main.go
// Imports users, circuits and fitted profiles from a legacy MySQL database
// (Ergast schema plus the fitted lap_profiles table) into PostgreSQL.
//
// Usage:
//
//	MYSQL_DSN="user:pass@tcp(host:3306)/f1db?parseTime=true" \
//	DB_PASS="pgpass" \
//	go run ./cmd/migrate
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"

	"github.com/padraicbc/f1sim/config"
	bundb "github.com/padraicbc/f1sim/db"
	"github.com/padraicbc/f1sim/models"
	"github.com/padraicbc/f1sim/service"
	"github.com/padraicbc/f1sim/store"
)

const batchSize = 500

func main() {
	ctx := context.Background()

	cfg := config.Load()

	// --- MySQL ---
	if cfg.MySQLDSN == "" {
		log.Fatal("MYSQL_DSN required, e.g.: user:pass@tcp(host:3306)/f1db?parseTime=true")
	}
	myDB, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("open mysql: %v", err)
	}
	defer myDB.Close()
	myDB.SetMaxOpenConns(4)
	if err := myDB.PingContext(ctx); err != nil {
		log.Fatalf("ping mysql: %v", err)
	}
	log.Println("connected to MySQL")

	// --- PostgreSQL ---
	pgDB, err := bundb.Setup(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pgDB.Close()
	log.Println("connected to PostgreSQL")

	// Create tables (idempotent)
	if err := bundb.CreateTables(ctx, pgDB); err != nil {
		log.Fatalf("create tables: %v", err)
	}

	steps := []struct {
		name string
		fn   func() (int, error)
	}{
		{"users", func() (int, error) { return migrateUsers(ctx, myDB, pgDB) }},
		{"circuits", func() (int, error) { return migrateCircuits(ctx, myDB, pgDB) }},
		{"profiles", func() (int, error) { return migrateProfiles(ctx, myDB, pgDB) }},
	}

	for _, s := range steps {
		n, err := s.fn()
		if err != nil {
			log.Fatalf("migrate %s: %v", s.name, err)
		}
		log.Printf("%-15s  %d rows migrated", s.name, n)
	}

	resetSequences(ctx, pgDB)
	log.Println("migration complete")
}

// bulkInsert inserts a batch, skipping rows that already exist (idempotent re-runs).
func bulkInsert[T any](ctx context.Context, pgDB *bun.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := pgDB.NewInsert().Model(&rows).On("CONFLICT DO NOTHING").Exec(ctx)
	return err
}

// copyRows scans every row with scan and writes them to Postgres in batches.
// A nil row from scan is skipped.
func copyRows[T any](ctx context.Context, pgDB *bun.DB, rows *sql.Rows, scan func(*sql.Rows) (*T, error)) (int, error) {
	defer rows.Close()

	var batch []T
	total := 0
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return total, err
		}
		if r == nil {
			continue
		}
		batch = append(batch, *r)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, pgDB, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return total, err
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), nil
}

// --- per-table migrations ---

func migrateUsers(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx, "SELECT id, username, password FROM users")
	if err != nil {
		return 0, err
	}
	return copyRows(ctx, pgDB, rows, func(rows *sql.Rows) (*models.User, error) {
		var r models.User
		if err := rows.Scan(&r.ID, &r.Username, &r.Password); err != nil {
			return nil, err
		}
		return &r, nil
	})
}

// Ergast has no race length on circuits; the longest classified distance run
// there is the best default available.
func migrateCircuits(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		`SELECT c.circuitId, c.circuitRef, c.name, COALESCE(c.country, ''), COALESCE(MAX(r.laps), 0)
		 FROM circuits c
		 LEFT JOIN races ra ON ra.circuitId = c.circuitId
		 LEFT JOIN results r ON r.raceId = ra.raceId
		 GROUP BY c.circuitId, c.circuitRef, c.name, c.country`)
	if err != nil {
		return 0, err
	}
	return copyRows(ctx, pgDB, rows, func(rows *sql.Rows) (*models.Circuit, error) {
		var r models.Circuit
		if err := rows.Scan(&r.CircuitID, &r.Ref, &r.Name, &r.Country, &r.Laps); err != nil {
			return nil, err
		}
		r.Ref = service.CourseRef(r.Ref)
		return &r, nil
	})
}

// Profiles are keyed by circuitRef so they line up with circuits.ref.
func migrateProfiles(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		`SELECT d.driverRef, co.constructorRef, c.circuitRef, p.year, p.observations,
		        p.lapMeanMs, p.lapStdMs, p.degradeMs, p.overtakeProb,
		        p.pitBaseRate, p.pitWearRate, p.pitMeanMs, p.pitStdMs
		 FROM lap_profiles p
		 JOIN drivers d ON d.driverId = p.driverId
		 JOIN constructors co ON co.constructorId = p.constructorId
		 JOIN circuits c ON c.circuitId = p.circuitId`)
	if err != nil {
		return 0, err
	}

	skipped := 0
	n, err := copyRows(ctx, pgDB, rows, func(rows *sql.Rows) (*models.Profile, error) {
		var (
			r        models.Profile
			lapStd   sql.NullFloat64
			degrade  sql.NullFloat64
			pitBase  sql.NullFloat64
			pitWear  sql.NullFloat64
			pitMean  sql.NullFloat64
			pitStd   sql.NullFloat64
			overtake sql.NullFloat64
		)
		if err := rows.Scan(
			&r.Driver, &r.Constructor, &r.Course, &r.Year, &r.Observations,
			&r.LapMeanMs, &lapStd, &degrade, &overtake,
			&pitBase, &pitWear, &pitMean, &pitStd,
		); err != nil {
			return nil, err
		}
		r.Course = service.CourseRef(r.Course)
		r.LapStdMs = lapStd.Float64
		r.DegradeMs = degrade.Float64
		r.OvertakeProb = overtake.Float64
		r.PitBaseRate = pitBase.Float64
		r.PitWearRate = pitWear.Float64
		r.PitMeanMs = pitMean.Float64
		r.PitStdMs = pitStd.Float64

		if err := store.ValidateProfile(&r); err != nil {
			skipped++
			return nil, nil
		}
		return &r, nil
	})
	if skipped > 0 {
		log.Printf("profiles: skipped %d rows with invalid parameters", skipped)
	}
	return n, err
}

// resetSequences advances each PG sequence to MAX(id) so new inserts don't conflict.
func resetSequences(ctx context.Context, pgDB *bun.DB) {
	seqs := []struct{ seq, table, col string }{
		{"users_id_seq", "users", "id"},
		{"circuits_circuit_id_seq", "circuits", "circuit_id"},
		{"profiles_id_seq", "profiles", "id"},
	}
	for _, s := range seqs {
		q := fmt.Sprintf(
			"SELECT setval('%s', COALESCE((SELECT MAX(%s) FROM %s), 1))",
			s.seq, s.col, s.table,
		)
		if _, err := pgDB.ExecContext(ctx, q); err != nil {
			log.Printf("reset seq %s: %v", s.seq, err)
		}
	}
	log.Println("sequences reset")
}
