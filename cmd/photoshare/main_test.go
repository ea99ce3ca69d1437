package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"photoshare/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestUserError(t *testing.T) {
	t.Parallel()
	raw := errors.New("dial tcp: refused")
	tests := []struct {
		name  string
		err   error
		shown string
		want  string
	}{
		{"Shown Message Wins", raw, "Like failed", "Like failed"},
		{"Raw Error", raw, "", "dial tcp: refused"},
		{"Canceled Is Silent", context.Canceled, "", ""},
		{"No Identity Is Silent", models.NewUnauthenticatedError(), "", ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := userError(tt.err, tt.shown)
			if tt.want == "" {
				assert.NoError(t, got)
				return
			}
			assert.EqualError(t, got, tt.want)
		})
	}
}

func TestRenderComments(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	renderComments(&buf, nil)
	assert.Equal(t, "No comments yet.\n", buf.String())

	buf.Reset()
	renderComments(&buf, []models.Comment{
		{Text: "wow"},
		{Text: "nice", UserEmail: "a@x.io", CreatedAt: time.Date(2024, 1, 2, 3, 4, 0, 0, time.Local)},
	})
	assert.Equal(t, "user: wow\na@x.io: nice (02 Jan 2024, 03:04)\n", buf.String())
}
