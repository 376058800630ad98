package auth

import (
	"errors"

	"github.com/bazaar-market/apiserver/types"
)

// Authorization failures. ErrUnauthorized means no identity was presented;
// ErrForbidden means an identity was presented but lacks the privilege. The
// two must never be conflated.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// CheckOwnership is the single mutation gate for owned resources: the actor
// must be present, and must be the resource's owner or an admin. Rows with no
// owner (anonymous listings) are mutable by admins only.
func CheckOwnership(actor *types.Claims, ownerID *int) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if actor.IsAdmin {
		return nil
	}
	if ownerID == nil || actor.UserID != *ownerID {
		return ErrForbidden
	}
	return nil
}

// CheckAdmin requires a present, admin identity.
func CheckAdmin(actor *types.Claims) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if !actor.IsAdmin {
		return ErrForbidden
	}
	return nil
}

// CheckSelfOrAdmin allows a user to act on their own account, or an admin to
// act on anyone's.
func CheckSelfOrAdmin(actor *types.Claims, userID int) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if actor.UserID != userID && !actor.IsAdmin {
		return ErrForbidden
	}
	return nil
}
