// Command seed inserts the default course levels and categories, and an
// admin account when SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are set.
// Rows that already exist (by name or email) are left alone, so it can be
// run repeatedly.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/iliyamo/course-platform/internal/config"
	"github.com/iliyamo/course-platform/internal/database"
	"github.com/iliyamo/course-platform/internal/model"
	"github.com/iliyamo/course-platform/internal/repository"
	"github.com/iliyamo/course-platform/internal/utils"
)

var levels = []string{"Beginner", "Intermediate", "Advanced"}

var categories = []struct{ name, description string }{
	{"Machine Learning", "Courses focused on machine learning algorithms and applications"},
	{"Deep Learning", "Advanced neural network architectures and deep learning techniques"},
	{"Natural Language Processing", "Text processing, language understanding, and chatbot development"},
	{"Computer Vision", "Image processing, object detection, and visual recognition systems"},
	{"AI Ethics", "Responsible AI development and ethical considerations"},
	{"Reinforcement Learning", "Decision-making algorithms and intelligent agent development"},
}

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	if err := seedLevels(ctx, repository.NewLevelRepo(db)); err != nil {
		log.Fatalf("seed levels: %v", err)
	}
	if err := seedCategories(ctx, repository.NewCategoryRepo(db)); err != nil {
		log.Fatalf("seed categories: %v", err)
	}
	if err := seedAdmin(ctx, repository.NewUserRepo(db), cfg.BcryptCost); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	log.Println("seed complete")
}

func seedLevels(ctx context.Context, repo *repository.LevelRepo) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, l := range existing {
		have[l.Name] = true
	}
	created := 0
	for _, name := range levels {
		if have[name] {
			continue
		}
		if err := repo.Create(ctx, &model.Level{Name: name}); err != nil {
			return err
		}
		created++
	}
	log.Printf("levels: %d created, %d already present", created, len(levels)-created)
	return nil
}

func seedCategories(ctx context.Context, repo *repository.CategoryRepo) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c.Name] = true
	}
	created := 0
	for _, c := range categories {
		if have[c.name] {
			continue
		}
		desc := c.description
		if err := repo.Create(ctx, &model.Category{Name: c.name, Description: &desc}); err != nil {
			return err
		}
		created++
	}
	log.Printf("categories: %d created, %d already present", created, len(categories)-created)
	return nil
}

// seedAdmin creates a verified admin.  Registration only ever creates
// students, so this is the way to bootstrap the first admin.
func seedAdmin(ctx context.Context, repo *repository.UserRepo, cost int) error {
	email, password := os.Getenv("SEED_ADMIN_EMAIL"), os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("admin: SEED_ADMIN_EMAIL/SEED_ADMIN_PASSWORD not set, skipped")
		return nil
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	err = repo.Create(ctx, &model.User{
		Email:         email,
		PasswordHash:  hash,
		FirstName:     "Admin",
		LastName:      "User",
		Role:          model.RoleAdmin,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if errors.Is(err, repository.ErrEmailExists) {
		log.Printf("admin: %s already exists", email)
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("admin: %s created", email)
	return nil
}
