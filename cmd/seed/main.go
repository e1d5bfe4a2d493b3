// Command seed fills the database with fixture categories and locations plus
// fake users, posts and comments.
package main

import (
	"context"
	"flag"
	"log"

	"blogicum/internal/bootstrap"
	"blogicum/internal/config"
	"blogicum/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	maxComments := flag.Int("comments", 5, "Maximum comments per post")
	drafts := flag.Int("drafts", 10, "Percent of unpublished posts")
	scheduled := flag.Int("scheduled", 10, "Percent of posts dated in the future")
	randomSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	shouldClean := flag.Bool("clean", false, "Delete users, posts and comments before seeding")
	fixturesOnly := flag.Bool("fixtures-only", false, "Load categories and locations only")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedFixtures: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() { _ = rt.Close() }()

	if *fixturesOnly {
		log.Println("Fixtures loaded")
		return
	}

	summary, err := seed.Seed(ctx, rt.DB, seed.Options{
		NumUsers:           *numUsers,
		NumPosts:           *numPosts,
		MaxCommentsPerPost: *maxComments,
		ShouldClean:        *shouldClean,
		DraftPercent:       *drafts,
		ScheduledPercent:   *scheduled,
		RandomSeed:         *randomSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d posts, %d comments", summary.Users, summary.Posts, summary.Comments)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
