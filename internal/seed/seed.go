// Package seed provides helpers to create demo data for the application
// store. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"log"
)

// Options controls how much data a seed run creates.
type Options struct {
	Users           int
	Academies       int
	PostsPerAcademy int
	CommentsPerPost int
	// LikeRatio is the fraction of users that like each post, 0..1.
	LikeRatio float64
	// JoinRatio is the fraction of users that join each academy, 0..1.
	JoinRatio float64
	// Password assigned to every seeded account.
	Password string
}

// DefaultOptions returns a small but realistic data set.
func DefaultOptions() Options {
	return Options{
		Users:           12,
		Academies:       4,
		PostsPerAcademy: 5,
		CommentsPerPost: 3,
		LikeRatio:       0.4,
		JoinRatio:       0.5,
		Password:        "passw0rd123",
	}
}

// Run seeds the store with users, academies, memberships, posts, likes, and
// comments. All writes go through the service layer so every document
// honors the same invariants as production traffic.
func (f *Factory) Run(ctx context.Context) error {
	users, err := f.CreateUsers(ctx, f.opts.Users)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	log.Printf("seeded %d users", len(users))

	for i := 0; i < f.opts.Academies; i++ {
		creator := users[i%len(users)]
		academy, err := f.CreateAcademy(ctx, creator.ID)
		if err != nil {
			return fmt.Errorf("seed academy: %w", err)
		}

		joined := f.JoinMembers(ctx, academy.ID, users, creator.ID)

		for p := 0; p < f.opts.PostsPerAcademy; p++ {
			author := joined[p%len(joined)]
			post, err := f.CreatePost(ctx, academy.ID, author)
			if err != nil {
				return fmt.Errorf("seed post: %w", err)
			}
			f.LikePost(ctx, post.ID, users)
			if err := f.CommentOnPost(ctx, post.ID, joined); err != nil {
				return fmt.Errorf("seed comments: %w", err)
			}
		}
		log.Printf("seeded academy %q with %d members", academy.Name, len(joined))
	}

	return nil
}
