package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"photoshare/internal/models"
)

// Login exchanges credentials for a token and role.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error) {
	r, err := jsonRequest("auth.login", http.MethodPost, "/auth/login", creds)
	if err != nil {
		return models.LoginResult{}, err
	}
	var out models.LoginResult
	if err := c.doJSON(ctx, r, &out); err != nil {
		return models.LoginResult{}, err
	}
	if out.Token == "" {
		return models.LoginResult{}, malformed(r.endpoint, fmt.Errorf("missing token"))
	}
	return out, nil
}

// Signup registers an account.
func (c *Client) Signup(ctx context.Context, in models.SignupInput) error {
	r, err := jsonRequest("auth.signup", http.MethodPost, "/auth/signup", in)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, r, nil)
}

// Me returns the signed-in account. The remote wraps it as {user:{...}};
// a bare user object is accepted too.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	body, err := c.do(ctx, request{endpoint: "auth.me", method: http.MethodGet, path: "/auth/me"})
	if err != nil {
		return models.User{}, err
	}
	var wrapped struct {
		User *models.User `json:"user"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return models.User{}, malformed("auth.me", err)
	}
	if wrapped.User != nil {
		return *wrapped.User, nil
	}
	var bare models.User
	if err := json.Unmarshal(body, &bare); err != nil {
		return models.User{}, malformed("auth.me", err)
	}
	return bare, nil
}

// ListPosts returns all posts, or those matching query when it is not blank.
func (c *Client) ListPosts(ctx context.Context, query string) ([]models.Post, error) {
	path := "/posts"
	endpoint := "posts.list"
	if q := strings.TrimSpace(query); q != "" {
		path += "?q=" + url.QueryEscape(q)
		endpoint = "posts.search"
	}
	body, err := c.do(ctx, request{endpoint: endpoint, method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	posts, err := decodeList[models.Post](body, "posts")
	if err != nil {
		return nil, malformed(endpoint, err)
	}
	return posts, nil
}

// CreatePost uploads an image with its text fields as multipart form data.
func (c *Client) CreatePost(ctx context.Context, in models.NewPost) (*models.Post, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "image",
		"filename": in.FileName,
	}))
	ct := in.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(in.Image); err != nil {
		return nil, fmt.Errorf("write image part: %w", err)
	}

	fields := []struct{ name, value string }{
		{"caption", in.Caption},
		{"title", in.Title},
		{"location", in.Location},
	}
	for _, f := range fields {
		// Caption is always sent, possibly empty.
		if f.value == "" && f.name != "caption" {
			continue
		}
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("write %s field: %w", f.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	r := request{
		endpoint:    "posts.create",
		method:      http.MethodPost,
		path:        "/posts",
		body:        &buf,
		contentType: w.FormDataContentType(),
	}
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	post, err := decodeOne[models.Post](body, "post")
	if err != nil {
		return nil, malformed(r.endpoint, err)
	}
	return post, nil
}

// UpdatePost replaces the editable fields of a post.
func (c *Client) UpdatePost(ctx context.Context, id string, in models.PostUpdate) error {
	r, err := jsonRequest("posts.update", http.MethodPut, postPath(id), in)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, r, nil)
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.doJSON(ctx, request{endpoint: "posts.delete", method: http.MethodDelete, path: postPath(id)}, nil)
}

// ToggleLike flips the caller's like on a post.
func (c *Client) ToggleLike(ctx context.Context, id string) error {
	return c.doJSON(ctx, request{endpoint: "posts.like", method: http.MethodPost, path: postPath(id) + "/like"}, nil)
}

// ListComments returns the comments of a post.
func (c *Client) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	r := request{endpoint: "comments.list", method: http.MethodGet, path: postPath(postID) + "/comments"}
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	comments, err := decodeList[models.Comment](body, "comments")
	if err != nil {
		return nil, malformed(r.endpoint, err)
	}
	return comments, nil
}

// AddComment posts a comment.
func (c *Client) AddComment(ctx context.Context, postID, text string) error {
	r, err := jsonRequest("comments.add", http.MethodPost, postPath(postID)+"/comments", map[string]string{"text": text})
	if err != nil {
		return err
	}
	return c.doJSON(ctx, r, nil)
}

// DownloadURL is the address of a post's original image.
func (c *Client) DownloadURL(id string) string {
	return c.baseURL + postPath(id) + "/download"
}

// Download streams a post's original image into w and returns the file name
// suggested by the remote.
func (c *Client) Download(ctx context.Context, id string, w io.Writer) (name string, n int64, err error) {
	name = id
	err = c.exchange(ctx, request{
		endpoint: "posts.download",
		method:   http.MethodGet,
		path:     postPath(id) + "/download",
	}, func(resp *http.Response) error {
		if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
			name = params["filename"]
		}
		var copyErr error
		n, copyErr = io.Copy(w, resp.Body)
		return copyErr
	})
	return name, n, err
}

func postPath(id string) string {
	return "/posts/" + url.PathEscape(id)
}

// decodeList accepts a bare JSON array or an object holding the array
// under key.
func decodeList[T any](body []byte, key string) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	raw, ok := wrapped[key]
	if !ok || string(raw) == "null" {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// decodeOne accepts a bare object or one wrapped under key.
func decodeOne[T any](body []byte, key string) (*T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	if raw, ok := wrapped[key]; ok && trimmed[0] == '{' {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, err
		}
		return &item, nil
	}
	var item T
	if err := json.Unmarshal(trimmed, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
