package devserver

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"slices"
	"time"

	"photoshare/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// Demo accounts created on every start.
var DemoAccounts = []struct {
	Email    string
	Password string
	Role     models.Role
}{
	{"creator@photoshare.dev", "Creator1!", models.RoleCreator},
	{"user@photoshare.dev", "User123!", models.RoleUser},
	{"viewer@photoshare.dev", "Viewer1!", models.RoleViewer},
}

func (s *Server) seed() error {
	var creators []*account
	for _, d := range DemoAccounts {
		acc, err := s.addAccount(d.Email, d.Password, d.Role)
		if err != nil {
			return fmt.Errorf("add %s: %w", d.Email, err)
		}
		if d.Role == models.RoleCreator {
			creators = append(creators, acc)
		}
	}
	if s.cfg.SeedPosts <= 0 {
		return nil
	}

	faker := gofakeit.New(s.cfg.Seed)
	// A second creator so dashboards show filtering.
	guest, err := s.addAccount(faker.Email(), "Guest123!", models.RoleCreator)
	if err != nil {
		return fmt.Errorf("add guest creator: %w", err)
	}
	creators = append(creators, guest)

	now := time.Now().UTC()
	posts := make([]*models.Post, 0, s.cfg.SeedPosts)
	for i := 0; i < s.cfg.SeedPosts; i++ {
		owner := creators[faker.Number(0, len(creators)-1)]
		post := &models.Post{
			ID:           uuid.NewString(),
			CreatorID:    owner.ID,
			CreatorEmail: owner.Email,
			Title:        faker.Sentence(3),
			Caption:      faker.Sentence(10),
			Location:     faker.City() + ", " + faker.Country(),
			CreatedAt:    faker.DateRange(now.AddDate(0, 0, -60), now),
			LikerIDs:     []string{},
		}
		post.ImageRef = "/uploads/" + post.ID

		data, err := swatch(faker)
		if err != nil {
			return fmt.Errorf("render seed image: %w", err)
		}
		s.uploads[post.ID] = upload{FileName: fmt.Sprintf("photo-%02d.png", i+1), ContentType: "image/png", Data: data}
		posts = append(posts, post)
	}

	// Newest first, as the API lists them.
	slices.SortStableFunc(posts, func(a, b *models.Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	s.posts = posts

	s.logger.Info("devserver seeded",
		slog.Int("accounts", len(s.accounts)),
		slog.Int("posts", len(posts)),
	)
	return nil
}

// swatch renders a small single-colour PNG.
func swatch(faker *gofakeit.Faker) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	c := color.RGBA{R: faker.Uint8(), G: faker.Uint8(), B: faker.Uint8(), A: 0xff}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
