package submissions

import "errors"

// ErrEngineUnavailable indicates the analysis request could not be completed
// (transport error or failure status). Existing submission state is left
// untouched by callers.
var ErrEngineUnavailable = errors.New("analysis engine unavailable")
