// Command seed fills a database with fake users, friendships, posts and
// comments for local development. Every seeded user has the password
// "password".
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/crypto/bcrypt"

	"social/internal/config"
	"social/internal/db"
	"social/internal/models"
)

var (
	music  = []string{"Jazz", "Rock", "Hip hop", "Classical", "Techno", "Folk"}
	movies = []string{"Alien", "Heat", "Amelie", "Spirited Away", "The Matrix", "Up"}
	jobs   = []string{"Engineer", "Teacher", "Nurse", "Designer", "Chef", "Student"}
	school = []string{"High school", "BSc", "MSc", "PhD"}
	posts  = []string{"Greetings from %s!", "Just moved to %s.", "Anyone else in %s this week?", "%s is lovely in the spring."}
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config (optional)")
	users := flag.Int("users", 20, "number of users to create")
	flag.Parse()

	cfg, err := config.Load(*configPath, os.Getenv("SOCIAL_ENV_FILE"))
	if err != nil {
		log.Fatal(err)
	}
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), cfg.Security.BcryptCost)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	var ids []int64
	for i := 0; i < *users; i++ {
		first := gofakeit.FirstName()
		id, err := models.CreateUser(ctx, database, models.NewUser{
			Username:     fmt.Sprintf("%s_%s", strings.ToLower(first), gofakeit.Numerify("####")),
			FirstName:    first,
			LastName:     gofakeit.LastName(),
			PasswordHash: string(hash),
		})
		if err != nil {
			log.Printf("skip user: %v", err)
			continue
		}
		err = models.UpdateProfile(ctx, database, id, models.Profile{
			Education:   gofakeit.RandomString(school),
			Employment:  gofakeit.RandomString(jobs),
			Music:       gofakeit.RandomString(music),
			Movie:       gofakeit.RandomString(movies),
			Nationality: gofakeit.Country(),
			Birthday:    gofakeit.Date().Format("2006-01-02"),
		})
		if err != nil {
			log.Fatal(err)
		}
		ids = append(ids, id)
	}
	if len(ids) < 2 {
		log.Fatalf("seeded %d users, need at least 2", len(ids))
	}

	var postIDs []int64
	for _, id := range ids {
		for n := gofakeit.Number(1, 3); n > 0; n-- {
			content := fmt.Sprintf(gofakeit.RandomString(posts), gofakeit.City())
			pid, err := models.CreatePost(ctx, database, id, content, "")
			if err != nil {
				log.Fatal(err)
			}
			postIDs = append(postIDs, pid)
		}
		for n := gofakeit.Number(1, 4); n > 0; n-- {
			friend := ids[gofakeit.Number(0, len(ids)-1)]
			if err := befriend(ctx, database, id, friend); err != nil {
				log.Fatal(err)
			}
		}
	}
	for _, pid := range postIDs {
		if !gofakeit.Bool() {
			continue
		}
		author := ids[gofakeit.Number(0, len(ids)-1)]
		body := fmt.Sprintf("Count me in, I love %s.", gofakeit.City())
		if _, err := models.CreateComment(ctx, database, pid, author, body); err != nil {
			log.Fatal(err)
		}
	}
	log.Printf("seeded %d users and %d posts into %s", len(ids), len(postIDs), cfg.Database.Path)
}

// befriend adds a random edge. Self and duplicate edges are expected with
// random picks and are skipped.
func befriend(ctx context.Context, database *sql.DB, userID, friendID int64) error {
	err := models.AddFriend(ctx, database, userID, friendID)
	if errors.Is(err, models.ErrSelfFriend) || errors.Is(err, models.ErrDuplicateFriend) {
		return nil
	}
	return err
}
