// Package auth provides the authenticated-user collaborator: a user
// registry with hashed credentials and a token service issuing bearer
// tokens. The rest of the system only ever sees an Identity through the
// Provider interface, so components stay testable without a real auth
// backend.
package auth

// Identity is the authenticated user a record is owned by.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Provider supplies the current authenticated user, if any.
type Provider interface {
	CurrentUser() (Identity, bool)
}

// Static is a Provider fixed to a single identity. The zero value behaves
// as a signed-out user.
type Static struct {
	Identity Identity
}

func (s Static) CurrentUser() (Identity, bool) {
	if s.Identity.ID == "" {
		return Identity{}, false
	}
	return s.Identity, true
}
