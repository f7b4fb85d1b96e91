package adapters

import (
	"context"
	"errors"

	guestModels "guestlist/internal/guest/models"
	"guestlist/pkg/platform/sentinel"
)

// guestFinder is the slice of the guest store the report channel needs.
// Defined locally to avoid coupling report to the guest service package.
type guestFinder interface {
	FindByEmail(ctx context.Context, email string) (*guestModels.Guest, error)
}

// GuestDirectory adapts a guest store to report's GuestDirectory port.
type GuestDirectory struct {
	guests guestFinder
}

func NewGuestDirectory(guests guestFinder) *GuestDirectory {
	return &GuestDirectory{guests: guests}
}

// GuestExists reports whether a guest is registered with email.
func (a *GuestDirectory) GuestExists(ctx context.Context, email string) (bool, error) {
	_, err := a.guests.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
