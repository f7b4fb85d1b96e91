package guest

import (
	"fmt"

	"guestlist/pkg/platform/sentinel"
)

// Store-level facts. Each wraps a sentinel so callers can match either the
// specific error or its category.
var (
	ErrDuplicateName  = fmt.Errorf("guest name %w", sentinel.ErrAlreadyUsed)
	ErrDuplicateEmail = fmt.Errorf("leader email %w", sentinel.ErrAlreadyUsed)
	ErrLeaderNotFound = fmt.Errorf("leader %w", sentinel.ErrNotFound)
	ErrLeaderDeletion = fmt.Errorf("leader deletion: %w", sentinel.ErrInvalidState)
)
