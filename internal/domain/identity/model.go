// Package identity holds the user profile handed over by an external
// login provider. Credentials never pass through here.
package identity

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

const (
	RoleHusband = "Husband"
	RoleWife    = "Wife"
)

// GuestID identifies a profile created without any provider.
const GuestID = "guest"

var (
	ErrNoProfile      = errors.New("no identity profile, log in first")
	ErrInvalidProfile = errors.New("invalid identity profile")
)

type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Guest returns the profile used when nobody is logged in.
func Guest(role string) *Profile {
	return &Profile{ID: GuestID, Name: "Guest", Role: role}
}

func (p *Profile) IsGuest() bool {
	return p.ID == GuestID
}

// DisplayName is what documents record in addedBy.
func (p *Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

func (p *Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidProfile)
	}
	if p.Name == "" && p.Email == "" {
		return fmt.Errorf("%w: name or email is required", ErrInvalidProfile)
	}
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return fmt.Errorf("%w: email %q: %v", ErrInvalidProfile, p.Email, err)
		}
	}
	switch p.Role {
	case "", RoleHusband, RoleWife:
	default:
		return fmt.Errorf("%w: unknown family role %q", ErrInvalidProfile, p.Role)
	}
	return nil
}
