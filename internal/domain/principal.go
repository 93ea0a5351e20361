package domain

// Principal is the caller identity attached to a request.
// The zero value is an anonymous caller.
type Principal struct {
	UserID   int64
	Username string
}

func (p Principal) Authenticated() bool { return p.UserID > 0 }

// Owned is implemented by records that belong to exactly one user.
type Owned interface {
	Owner() int64
}
