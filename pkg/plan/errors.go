package plan

import "errors"

var (
	ErrInvalidCatalog = errors.New("invalid plan catalog")
	ErrDecodeCatalog  = errors.New("failed to decode plan catalog")
)
