// Package models contains data structures shared by the photoshare client components.
package models

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// Post represents a media post as seen by the client.
type Post struct {
	ID           string
	CreatorID    string
	CreatorEmail string
	Title        string
	Caption      string
	Location     string
	ImageRef     string
	CreatedAt    time.Time
	// LikerIDs holds the ids of users who liked the post, without duplicates.
	LikerIDs []string
}

// LikeCount is the number of distinct likers.
func (p Post) LikeCount() int {
	return len(p.LikerIDs)
}

// LikedBy reports whether userID is among the likers. An empty id never matches.
func (p Post) LikedBy(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range p.LikerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with p.
func (p Post) Clone() Post {
	cp := p
	cp.LikerIDs = slices.Clone(p.LikerIDs)
	return cp
}

// creatorRef is the creator field of a post, which the API sends either as a
// bare id string or as an embedded user object.
type creatorRef struct {
	ID    string `json:"_id,omitempty"`
	Email string `json:"email,omitempty"`
}

func (c *creatorRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		c.ID = id
		return nil
	}
	var obj struct {
		ID    string `json:"_id"`
		AltID string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	c.ID = obj.ID
	if c.ID == "" {
		c.ID = obj.AltID
	}
	c.Email = obj.Email
	return nil
}

type postWire struct {
	ID        string      `json:"_id"`
	AltID     string      `json:"id,omitempty"`
	Title     string      `json:"title"`
	Caption   string      `json:"caption"`
	Location  string      `json:"location"`
	ImageURL  string      `json:"imageUrl"`
	AltImage  string      `json:"image_url,omitempty"`
	ImageRef  string      `json:"imageRef,omitempty"`
	Creator   *creatorRef `json:"creator,omitempty"`
	Likes     []string    `json:"likes"`
	LikerIDs  []string    `json:"likerIds,omitempty"`
	CreatedAt string      `json:"createdAt"`
}

// MarshalJSON encodes the post in the API wire shape.
func (p Post) MarshalJSON() ([]byte, error) {
	w := postWire{
		ID:       p.ID,
		Title:    p.Title,
		Caption:  p.Caption,
		Location: p.Location,
		ImageURL: p.ImageRef,
		Likes:    p.LikerIDs,
	}
	if w.Likes == nil {
		w.Likes = []string{}
	}
	if p.CreatorID != "" || p.CreatorEmail != "" {
		w.Creator = &creatorRef{ID: p.CreatorID, Email: p.CreatorEmail}
	}
	if !p.CreatedAt.IsZero() {
		w.CreatedAt = p.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the field spellings the API has used over time and
// drops duplicate liker ids.
func (p *Post) UnmarshalJSON(data []byte) error {
	var w postWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Post{
		ID:       firstNonEmpty(w.ID, w.AltID),
		Title:    w.Title,
		Caption:  w.Caption,
		Location: w.Location,
		ImageRef: firstNonEmpty(w.ImageURL, w.AltImage, w.ImageRef),
	}
	if w.Creator != nil {
		p.CreatorID = w.Creator.ID
		p.CreatorEmail = w.Creator.Email
	}
	likes := w.Likes
	if len(likes) == 0 {
		likes = w.LikerIDs
	}
	p.LikerIDs = dedupe(likes)
	p.CreatedAt = ParseTimestamp(w.CreatedAt)
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats the API emits. Unparseable input
// yields the zero time, which sorts as the oldest possible value.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
