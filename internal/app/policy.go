package app

import "experiences/internal/domain"

// requireAuth rejects anonymous callers.
func requireAuth(who domain.Principal) error {
	if !who.Authenticated() {
		return domain.ErrUnauthenticated
	}
	return nil
}

// requireOwner allows a mutation only when the caller owns rec.
func requireOwner(who domain.Principal, rec domain.Owned) error {
	if err := requireAuth(who); err != nil {
		return err
	}
	if rec.Owner() != who.UserID {
		return domain.ErrForbidden
	}
	return nil
}
