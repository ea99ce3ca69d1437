package devserver

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"photoshare/internal/feed"
	"photoshare/internal/models"
	"photoshare/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req models.SignupInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := validation.ValidateEmail(req.Email); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, models.UserMessage(err, "Invalid email"))
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, models.UserMessage(err, "Invalid password"))
	}
	if req.Role == models.RoleNone {
		req.Role = models.RoleUser
	}
	switch req.Role {
	case models.RoleCreator, models.RoleUser, models.RoleViewer:
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Invalid role")
	}

	if _, err := s.addAccount(req.Email, req.Password, req.Role); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Account created"})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req models.Credentials
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	s.mu.RLock()
	acc := s.accounts[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.RUnlock()
	if acc == nil || bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(req.Password)) != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
	}

	token, err := s.issueToken(acc)
	if err != nil {
		return err
	}
	return c.JSON(models.LoginResult{Token: token, Role: acc.Role})
}

// Me handles GET /api/auth/me
func (s *Server) Me(c *fiber.Ctx) error {
	acc := caller(c)
	return c.JSON(fiber.Map{"user": models.User{ID: acc.ID, Email: acc.Email, Role: acc.Role}})
}

// ListPosts handles GET /api/posts?q=...
func (s *Server) ListPosts(c *fiber.Ctx) error {
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))

	s.mu.RLock()
	out := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if q == "" || matches(p, q) {
			out = append(out, p.Clone())
		}
	}
	s.mu.RUnlock()

	return c.JSON(fiber.Map{"posts": out})
}

func matches(p *models.Post, q string) bool {
	for _, field := range []string{p.Title, p.Caption, p.Location, p.CreatorEmail} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// CreatePost handles POST /api/posts (multipart: image, caption, title, location)
func (s *Server) CreatePost(c *fiber.Ctx) error {
	acc := caller(c)
	if !acc.Role.CanManagePosts() {
		return fiber.NewError(fiber.StatusForbidden, "Only creators can upload")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Image is required")
	}
	src, err := file.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()
	data, err := io.ReadAll(src)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Unable to read uploaded file")
	}

	contentType := file.Header.Get(fiber.HeaderContentType)
	if contentType == "" || contentType == fiber.MIMEOctetStream {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return fiber.NewError(fiber.StatusBadRequest, "Only image uploads are allowed")
	}

	post := &models.Post{
		ID:           uuid.NewString(),
		CreatorID:    acc.ID,
		CreatorEmail: acc.Email,
		Title:        strings.TrimSpace(c.FormValue("title")),
		Caption:      strings.TrimSpace(c.FormValue("caption")),
		Location:     strings.TrimSpace(c.FormValue("location")),
		CreatedAt:    time.Now().UTC(),
		LikerIDs:     []string{},
	}
	post.ImageRef = "/uploads/" + post.ID

	s.mu.Lock()
	s.uploads[post.ID] = upload{FileName: filepath.Base(file.Filename), ContentType: contentType, Data: data}
	s.posts = append([]*models.Post{post}, s.posts...)
	out := post.Clone()
	s.mu.Unlock()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": out})
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	var req models.PostUpdate
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	post, err := s.ownedPostLocked(c)
	if err != nil {
		return err
	}
	post.Title = strings.TrimSpace(req.Title)
	post.Location = strings.TrimSpace(req.Location)
	post.Caption = strings.TrimSpace(req.Caption)
	return c.JSON(fiber.Map{"message": "Post updated", "post": post.Clone()})
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, err := s.ownedPostLocked(c)
	if err != nil {
		return err
	}
	for i, p := range s.posts {
		if p == post {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			break
		}
	}
	delete(s.comments, post.ID)
	delete(s.uploads, post.ID)
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// ToggleLike handles POST /api/posts/:id/like
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	acc := caller(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	post := s.postLocked(c.Params("id"))
	if post == nil {
		return fiber.NewError(fiber.StatusNotFound, "Post not found")
	}
	next, was := feed.ToggleMember(post.LikerIDs, acc.ID)
	post.LikerIDs = next
	return c.JSON(fiber.Map{"liked": !was, "likes": next})
}

// ListComments handles GET /api/posts/:id/comments
func (s *Server) ListComments(c *fiber.Ctx) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.postLocked(c.Params("id")) == nil {
		return fiber.NewError(fiber.StatusNotFound, "Post not found")
	}
	comments := append([]models.Comment{}, s.comments[c.Params("id")]...)
	return c.JSON(fiber.Map{"comments": comments})
}

// AddComment handles POST /api/posts/:id/comments
func (s *Server) AddComment(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validation.ValidateComment(req.Text); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, models.UserMessage(err, "Invalid comment"))
	}
	acc := caller(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Params("id")
	if s.postLocked(id) == nil {
		return fiber.NewError(fiber.StatusNotFound, "Post not found")
	}
	comment := models.Comment{
		ID:        uuid.NewString(),
		Text:      strings.TrimSpace(req.Text),
		UserEmail: acc.Email,
		CreatedAt: time.Now().UTC(),
	}
	s.comments[id] = append(s.comments[id], comment)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"comment": comment})
}

// Download handles GET /api/posts/:id/download
func (s *Server) Download(c *fiber.Ctx) error {
	s.mu.RLock()
	up, ok := s.uploads[c.Params("id")]
	s.mu.RUnlock()
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "Image not found")
	}
	c.Set(fiber.HeaderContentType, up.ContentType)
	c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": up.FileName}))
	return c.Send(up.Data)
}

// ServeImage handles GET /uploads/:id
func (s *Server) ServeImage(c *fiber.Ctx) error {
	s.mu.RLock()
	up, ok := s.uploads[c.Params("id")]
	s.mu.RUnlock()
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "Image not found")
	}
	c.Set(fiber.HeaderContentType, up.ContentType)
	return c.Send(up.Data)
}

func (s *Server) postLocked(id string) *models.Post {
	for _, p := range s.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ownedPostLocked returns the post named by :id when the caller created it.
func (s *Server) ownedPostLocked(c *fiber.Ctx) (*models.Post, error) {
	post := s.postLocked(c.Params("id"))
	if post == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Post not found")
	}
	if post.CreatorID != caller(c).ID {
		return nil, fiber.NewError(fiber.StatusForbidden, "You can only change your own posts")
	}
	return post, nil
}

func (s *Server) addAccount(email, password string, role models.Role) (*account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[email]; exists {
		return nil, fiber.NewError(fiber.StatusConflict, "Email already registered")
	}
	acc := &account{ID: uuid.NewString(), Email: email, PasswordHash: hash, Role: role}
	s.accounts[email] = acc
	return acc, nil
}
