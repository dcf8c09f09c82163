// Command main runs the store seeder for Academia.
package main

import (
	"context"
	"flag"
	"log"

	"academia/internal/config"
	"academia/internal/docstore"
	"academia/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 12, "Number of users to create")
	numAcademies := flag.Int("academies", 4, "Number of academies to create")
	postsPer := flag.Int("posts", 5, "Number of posts per academy")
	commentsPer := flag.Int("comments", 3, "Number of comments per post")
	flag.Parse()

	log.Println("Store Seeder")
	log.Println("============")
	log.Printf("Target: %d users, %d academies, %d posts each\n", *numUsers, *numAcademies, *postsPer)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Printf("error closing store: %v", cerr)
		}
	}()

	opts := seed.DefaultOptions()
	opts.Users = *numUsers
	opts.Academies = *numAcademies
	opts.PostsPerAcademy = *postsPer
	opts.CommentsPerPost = *commentsPer

	f := seed.NewFactory(store, cfg.JWTSecret, opts)
	if err := f.Run(context.Background()); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Seeding complete")
}

func openStore(cfg *config.Config) (docstore.Store, error) {
	switch cfg.StoreDriver {
	case "postgres":
		return docstore.OpenPostgres(cfg.PostgresDSN(), nil)
	case "sqlite":
		return docstore.OpenSQLite(cfg.StorePath, nil)
	default:
		return docstore.OpenBadger(docstore.DefaultBadgerConfig(cfg.StorePath))
	}
}
