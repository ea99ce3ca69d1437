package feed

import (
	"context"

	"photoshare/internal/models"
)

// PostRemote is the post surface of the remote API.
type PostRemote interface {
	ListPosts(ctx context.Context, query string) ([]models.Post, error)
	CreatePost(ctx context.Context, in models.NewPost) (*models.Post, error)
	UpdatePost(ctx context.Context, id string, in models.PostUpdate) error
	DeletePost(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, id string) error
}

// CommentRemote is the comment surface of the remote API.
type CommentRemote interface {
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
	AddComment(ctx context.Context, postID, text string) error
}

// IdentitySource resolves the current user id.
type IdentitySource interface {
	CurrentIdentity() (string, bool)
}

// Confirmer asks the user to approve an irrecoverable action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Scope selects which posts of the remote listing a controller holds.
type Scope int

const (
	// AllPosts keeps the listing as returned.
	AllPosts Scope = iota
	// OwnedBy keeps only the current identity's posts. Without an identity
	// nothing is loaded.
	OwnedBy
)
