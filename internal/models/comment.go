package models

import (
	"encoding/json"
	"time"
)

// Comment is a single comment on a post.
type Comment struct {
	ID        string
	Text      string
	UserEmail string
	CreatedAt time.Time
}

type commentWire struct {
	ID   string `json:"_id"`
	Text string `json:"text"`
	User *struct {
		Email string `json:"email"`
	} `json:"user,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func (c Comment) MarshalJSON() ([]byte, error) {
	w := commentWire{ID: c.ID, Text: c.Text}
	if c.UserEmail != "" {
		w.User = &struct {
			Email string `json:"email"`
		}{Email: c.UserEmail}
	}
	if !c.CreatedAt.IsZero() {
		w.CreatedAt = c.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(w)
}

func (c *Comment) UnmarshalJSON(data []byte) error {
	var w commentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = Comment{ID: w.ID, Text: w.Text, CreatedAt: ParseTimestamp(w.CreatedAt)}
	if w.User != nil {
		c.UserEmail = w.User.Email
	}
	return nil
}

// Author returns the commenter's email or a generic label.
func (c Comment) Author() string {
	if c.UserEmail == "" {
		return "user"
	}
	return c.UserEmail
}
