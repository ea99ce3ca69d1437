package models

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupInput is the signup request body.
type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// PostUpdate is the editable field set of a post.
type PostUpdate struct {
	Title    string `json:"title"`
	Location string `json:"location"`
	Caption  string `json:"caption"`
}

// UpdateFrom returns the current field values of p.
func UpdateFrom(p Post) PostUpdate {
	return PostUpdate{Title: p.Title, Location: p.Location, Caption: p.Caption}
}

// NewPost is a validated upload ready to be sent as multipart form data.
type NewPost struct {
	FileName    string
	ContentType string
	Image       []byte
	Caption     string
	Title       string
	Location    string
}
