package models

// Role is the access class of a signed-in user.
type Role string

// Known roles. RoleNone marks an unauthenticated session.
const (
	RoleNone    Role = ""
	RoleCreator Role = "creator"
	RoleUser    Role = "user"
	RoleViewer  Role = "viewer"
)

// ParseRole maps stored or remote role strings onto a Role. Unknown values are
// kept verbatim so guards compare them like any other non-creator role.
func ParseRole(s string) Role {
	return Role(s)
}

// Label is the human readable name of the role.
func (r Role) Label() string {
	switch r {
	case RoleCreator:
		return "Creator"
	case RoleUser:
		return "User"
	case RoleViewer:
		return "Viewer"
	case RoleNone:
		return "Unknown"
	}
	return string(r)
}

// CanManagePosts reports whether the role gets edit and delete affordances.
func (r Role) CanManagePosts() bool {
	return r == RoleCreator
}

// CanDownload reports whether the role gets a download link on posts.
func (r Role) CanDownload() bool {
	return r == RoleUser || r == RoleViewer
}

// User is the account summary returned by the API.
type User struct {
	ID    string `json:"_id,omitempty"`
	Email string `json:"email"`
	Role  Role   `json:"role,omitempty"`
}

// LoginResult is the payload of a successful login.
type LoginResult struct {
	Token string `json:"token"`
	Role  Role   `json:"role"`
}
