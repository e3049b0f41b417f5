package view

import "errors"

// ErrNoDocument is returned by Render when given no document.
var ErrNoDocument = errors.New("no document")
