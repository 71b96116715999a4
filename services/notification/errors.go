package notification

import "errors"

// ErrNotConfigured is returned when the store or delivery collaborator was
// never initialized.
var ErrNotConfigured = errors.New("notification: store or delivery collaborator not configured")
