// Package validation checks user input before any request is sent.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"photoshare/internal/models"
)

// Messages returned as validation errors.
const (
	MsgEmailRequired    = "Email is required."
	MsgEmailInvalid     = "Please enter a valid email address."
	MsgPasswordRequired = "Password is required."
	MsgPasswordWeak     = "Password must be at least 6 characters and include an uppercase letter, lowercase letter, number, and special character."
	MsgConfirmRequired  = "Confirm password is required."
	MsgConfirmMismatch  = "Passwords do not match."
	MsgRoleInvalid      = "Please choose a valid role."
	MsgCommentRequired  = "Comment cannot be empty."
)

// MinPasswordLength is the shortest accepted signup password.
const MinPasswordLength = 6

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks presence and shape of an email address.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return models.NewValidationError(MsgEmailRequired)
	}
	if !emailRegex.MatchString(email) {
		return models.NewValidationError(MsgEmailInvalid)
	}
	return nil
}

// ValidatePassword enforces the signup password policy: minimum length and
// at least one upper-case letter, lower-case letter, digit and special
// character.
func ValidatePassword(password string) error {
	if password == "" {
		return models.NewValidationError(MsgPasswordRequired)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return models.NewValidationError(MsgPasswordWeak)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return models.NewValidationError(MsgPasswordWeak)
	}
	return nil
}

// ValidateLogin only requires both fields.
func ValidateLogin(creds models.Credentials) error {
	if creds.Email == "" {
		return models.NewValidationError(MsgEmailRequired)
	}
	if creds.Password == "" {
		return models.NewValidationError(MsgPasswordRequired)
	}
	return nil
}

// SignupForm is the raw signup input.
type SignupForm struct {
	Email           string
	Password        string
	ConfirmPassword string
	Role            models.Role
}

// ValidateSignup checks the form in display order and returns the request
// body. An empty role becomes RoleUser.
func ValidateSignup(f SignupForm) (models.SignupInput, error) {
	email := strings.TrimSpace(f.Email)
	if err := ValidateEmail(email); err != nil {
		return models.SignupInput{}, err
	}
	if err := ValidatePassword(f.Password); err != nil {
		return models.SignupInput{}, err
	}
	if f.ConfirmPassword == "" {
		return models.SignupInput{}, models.NewValidationError(MsgConfirmRequired)
	}
	if f.Password != f.ConfirmPassword {
		return models.SignupInput{}, models.NewValidationError(MsgConfirmMismatch)
	}

	role := f.Role
	switch role {
	case models.RoleNone:
		role = models.RoleUser
	case models.RoleUser, models.RoleViewer, models.RoleCreator:
	default:
		return models.SignupInput{}, models.NewValidationError(MsgRoleInvalid)
	}
	return models.SignupInput{Email: email, Password: f.Password, Role: role}, nil
}

// ValidateComment rejects blank comments.
func ValidateComment(text string) error {
	if strings.TrimFunc(text, unicode.IsSpace) == "" {
		return models.NewValidationError(MsgCommentRequired)
	}
	return nil
}
