package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"pairfocus/internal/config"
	"pairfocus/internal/model"
	"pairfocus/internal/repository"
)

// Dev helper: creates a couple of demo accounts so the ranking and login
// flows can be exercised against an empty database.
func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(ctx)

	db := mongoClient.Database("pairfocus")
	users := repository.NewUserRepo(db)

	demo := []struct {
		username string
		password string
		seconds  int
	}{
		{"alice", "alice123", 7200},
		{"bob", "bob123", 5400},
	}

	for _, d := range demo {
		existing, err := users.GetByUsername(ctx, d.username)
		if err != nil {
			log.Fatalf("Lookup failed for %s: %v", d.username, err)
		}
		if existing != nil {
			fmt.Printf("User %s already exists, skipping\n", d.username)
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(d.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}

		user := &model.User{
			Username:          d.username,
			PasswordHash:      string(hash),
			TotalBlockSeconds: d.seconds,
			CreatedAt:         time.Now(),
		}
		if err := users.Create(ctx, user); err != nil {
			log.Fatalf("Failed to create %s: %v", d.username, err)
		}
		fmt.Printf("Created user %s (%ds focus time)\n", d.username, d.seconds)
	}
}
