// cmd/adduser/main.go
// Creates or updates a user in the database.
//
// Usage:
//
//	go run ./cmd/adduser -username admin -password testing
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/padraicbc/f1sim/config"
	bundb "github.com/padraicbc/f1sim/db"
	"github.com/padraicbc/f1sim/handlers"
	"github.com/padraicbc/f1sim/models"
	"github.com/padraicbc/f1sim/store/postgres"
)

func main() {
	username := flag.String("username", "", "username (required)")
	password := flag.String("password", "", "plain-text password (required)")
	flag.Parse()

	hash, err := handlers.HashPasswordForUser(*username, *password)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	cfg := config.Load()
	db, err := bundb.Setup(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := bundb.CreateTables(ctx, db); err != nil {
		log.Fatal("create tables:", err)
	}

	user := &models.User{
		Username: strings.TrimSpace(*username),
		Password: hash,
	}

	if err := postgres.New(db).UpsertUser(ctx, user); err != nil {
		log.Fatal("save user:", err)
	}

	fmt.Printf("user %q saved with id %d\n", user.Username, user.ID)
}
