package validation

import (
	"strings"
	"testing"

	"photoshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantMsg  string
	}{
		{"Valid", "Secure1!", ""},
		{"Exactly Min Length", "Ab1!cd", ""},
		{"Long", "A" + strings.Repeat("b", 100) + "1!", ""},
		{"Unicode Special", "Abcde1é", ""},
		{"Empty", "", MsgPasswordRequired},
		{"Too Short", "Ab1!c", MsgPasswordWeak},
		{"No Upper", "secure1!", MsgPasswordWeak},
		{"No Lower", "SECURE1!", MsgPasswordWeak},
		{"No Digit", "Secure!!", MsgPasswordWeak},
		{"No Special", "Secure12", MsgPasswordWeak},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, models.HasCode(err, models.CodeValidation))
			assert.Equal(t, tt.wantMsg, models.UserMessage(err, "fallback"))
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		email   string
		wantMsg string
	}{
		{"Valid", "test@example.com", ""},
		{"Surrounding Space", "  test@example.com ", ""},
		{"Empty", "   ", MsgEmailRequired},
		{"Invalid Format", "not-an-email", MsgEmailInvalid},
		{"Missing Domain", "user@", MsgEmailInvalid},
		{"Missing TLD", "user@example", MsgEmailInvalid},
		{"Multiple At Symbols", "user@@example.com", MsgEmailInvalid},
		{"Space In Local Part", "us er@example.com", MsgEmailInvalid},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, models.UserMessage(err, ""))
		})
	}
}

func TestValidateLogin(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateLogin(models.Credentials{Email: "a", Password: "b"}))
	assert.Equal(t, MsgEmailRequired, models.UserMessage(ValidateLogin(models.Credentials{Password: "b"}), ""))
	assert.Equal(t, MsgPasswordRequired, models.UserMessage(ValidateLogin(models.Credentials{Email: "a"}), ""))
}

func TestValidateSignup(t *testing.T) {
	t.Parallel()
	valid := SignupForm{Email: " new@example.com ", Password: "Secure1!", ConfirmPassword: "Secure1!"}

	t.Run("Defaults Role", func(t *testing.T) {
		in, err := ValidateSignup(valid)
		require.NoError(t, err)
		assert.Equal(t, models.SignupInput{Email: "new@example.com", Password: "Secure1!", Role: models.RoleUser}, in)
	})

	tests := []struct {
		name    string
		mutate  func(*SignupForm)
		wantMsg string
	}{
		{"Creator", func(f *SignupForm) { f.Role = models.RoleCreator }, ""},
		{"Viewer", func(f *SignupForm) { f.Role = models.RoleViewer }, ""},
		{"Unknown Role", func(f *SignupForm) { f.Role = "admin" }, MsgRoleInvalid},
		{"Bad Email First", func(f *SignupForm) { f.Email = "x"; f.Password = "" }, MsgEmailInvalid},
		{"Weak Password", func(f *SignupForm) { f.Password = "weak"; f.ConfirmPassword = "weak" }, MsgPasswordWeak},
		{"Missing Confirm", func(f *SignupForm) { f.ConfirmPassword = "" }, MsgConfirmRequired},
		{"Mismatch", func(f *SignupForm) { f.ConfirmPassword = "Secure1?" }, MsgConfirmMismatch},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			_, err := ValidateSignup(f)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantMsg, models.UserMessage(err, ""))
		})
	}
}

func TestValidateComment(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateComment("hi"))
	assert.Error(t, ValidateComment(" \n\t"))
}
