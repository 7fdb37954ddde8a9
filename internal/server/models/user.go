package models

import "time"

// User is the single persisted account record.
//
// ExternalID is the Google account id for OAuth-created users; PasswordHash
// is set for password accounts. Either may be nil.
type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	FullName     *string   `db:"full_name"`
	Picture      *string   `db:"picture"`
	ExternalID   *string   `db:"google_id"`
	PasswordHash *string   `db:"hashed_password"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// UserUpdate is a partial patch for a User. Nil fields are left unchanged.
// ID, ExternalID and CreatedAt are deliberately absent.
type UserUpdate struct {
	Email        *string
	FullName     *string
	Picture      *string
	PasswordHash *string
	IsActive     *bool
}

// IsEmpty reports whether the patch changes nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.Email == nil && u.FullName == nil && u.Picture == nil &&
		u.PasswordHash == nil && u.IsActive == nil
}

// Apply copies the non-nil fields of patch onto u.
func (u *User) Apply(patch UserUpdate) {
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.FullName != nil {
		u.FullName = patch.FullName
	}
	if patch.Picture != nil {
		u.Picture = patch.Picture
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = patch.PasswordHash
	}
	if patch.IsActive != nil {
		u.IsActive = *patch.IsActive
	}
}

// StringValue dereferences s, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns nil for an empty string and &s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
