package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// User represents a messenger account allowed to keep the ledger.
type User struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	IsAdmin    bool   `json:"is_admin"`
	Registered bool   `json:"registered"`
	Valid      bool   `json:"valid"`
}

// NewUser returns a user with a known numeric id.
func NewUser(id int64, name string) *User {
	return &User{ID: id, Name: strings.TrimSpace(name), Valid: true}
}

// ParseUser builds a user from a textual id. Whitespace inside the id is ignored.
// An unparseable id yields a user that is not valid.
func ParseUser(rawID, name string) *User {
	u := &User{Name: strings.TrimSpace(name)}

	id, err := ParseUserID(rawID)
	if err == nil {
		u.ID = id
		u.Valid = true
	}
	return u
}

// ParseUserID parses an id, dropping any whitespace.
func ParseUserID(raw string) (int64, error) {
	cleaned := strings.Join(strings.Fields(raw), "")
	id, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUserData, raw)
	}
	return id, nil
}

// IsValid reports whether the user id was parsed successfully.
func (u *User) IsValid() bool {
	return u != nil && u.Valid
}

// Validate returns ErrInvalidUserData when the user cannot be saved.
func (u *User) Validate() error {
	if !u.IsValid() {
		return ErrInvalidUserData
	}
	return nil
}

// DisplayName returns the name or the id when the name is blank.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return strconv.FormatInt(u.ID, 10)
}
