package clerkwebhook

import (
	"encoding/json"
	"strings"
)

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Event is the envelope of an identity provider webhook delivery.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type emailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// UserData is the subset of the user object mirrored into profiles.
type UserData struct {
	ID                    string         `json:"id"`
	EmailAddresses        []emailAddress `json:"email_addresses"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
}

// PrimaryEmail returns the address flagged as primary, else the first one.
func (u UserData) PrimaryEmail() *string {
	if len(u.EmailAddresses) == 0 {
		return nil
	}
	chosen := u.EmailAddresses[0].EmailAddress
	for _, addr := range u.EmailAddresses {
		if u.PrimaryEmailAddressID != "" && addr.ID == u.PrimaryEmailAddressID {
			chosen = addr.EmailAddress
			break
		}
	}
	chosen = strings.TrimSpace(chosen)
	if chosen == "" {
		return nil
	}
	return &chosen
}

// FullName joins the non-empty name parts, or returns nil.
func (u UserData) FullName() *string {
	parts := make([]string, 0, 2)
	for _, p := range []*string{u.FirstName, u.LastName} {
		if p == nil {
			continue
		}
		if v := strings.TrimSpace(*p); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	name := strings.Join(parts, " ")
	return &name
}
