package cart

import "errors"

var (
	// -- Validation & Input --
	ErrInvalidQuantity = errors.New("invalid cart quantity")
	ErrInvalidItem     = errors.New("invalid cart item")
	ErrInvalidSession  = errors.New("invalid cart session")

	// -- Resource State --
	ErrItemNotFound = errors.New("cart item not found")

	// -- Storage Failures --
	ErrFailedLoadCart = errors.New("failed to load cart")
	ErrFailedSaveCart = errors.New("failed to save cart")
	ErrCartConflict   = errors.New("cart changed concurrently")
)
