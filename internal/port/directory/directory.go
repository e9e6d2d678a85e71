// Package directory defines the port for the external client and user
// directories. The CRM core stores only ids; names and contact details are
// resolved through this port at the API boundary.
package directory

import "context"

// Client is a company or person from the external client directory.
type Client struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// User is an identity from the external user directory.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Directory resolves external client and user references.
type Directory interface {
	GetClient(ctx context.Context, id string) (*Client, error)
	GetUser(ctx context.Context, id string) (*User, error)
}
