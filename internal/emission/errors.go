package emission

import "errors"

var (
	// ErrDataLoad reports a missing, unreadable or malformed data source.
	ErrDataLoad = errors.New("emission: data load failed")
	// ErrNotInitialized reports sampling before Initialize has built the
	// cumulative tables.
	ErrNotInitialized = errors.New("emission: distribution not initialized")
)
