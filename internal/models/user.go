package models

// DefaultPicture is used for users and groups created without an image.
const DefaultPicture = "/placeholder.svg?height=40&width=40"

// User represents a registered album user.
type User struct {
	// ID is the document key.
	ID string `json:"id,omitempty"`

	// Username is the login name. Unique across all users, compared exactly.
	Username string `json:"username"`

	// ProfileName is the display name shown next to photos and members.
	ProfileName string `json:"profileName"`

	// ProfilePicture is an image URL or an encoded data URL.
	ProfilePicture string `json:"profilePicture"`

	// PhoneNumber is used by the credential recovery flow.
	PhoneNumber string `json:"phoneNumber"`

	// Password is a bcrypt hash. Older records may hold the plain value.
	Password string `json:"password"`

	// CreatedAt is an RFC 3339 timestamp.
	CreatedAt string `json:"createdAt,omitempty"`
}

// SetID implements Keyed.
func (u *User) SetID(id string) { u.ID = id }
