package categorize

import "errors"

// ErrUnavailable means no usable suggestion could be obtained. Callers fall
// back to manual entry.
var ErrUnavailable = errors.New("categorization service unavailable")
