package pricing

import "errors"

var (
	ErrNoPriceRangesConfigured = errors.New("no price ranges configured")
	ErrInvalidQuantity         = errors.New("quantity must be positive")
	ErrInvalidRange            = errors.New("invalid price range")
	ErrOverlappingRanges       = errors.New("price ranges overlap")
	ErrUnknownExtrasPolicy     = errors.New("unknown extras pricing policy version")
)
