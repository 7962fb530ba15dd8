package users

import "context"

// Repo is the account store consumed by the auth service. The full user CRUD
// surface lives in the main backend; this core only ever reads.
type Repo interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}
