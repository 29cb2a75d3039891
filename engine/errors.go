package engine

import "errors"

// ErrNoStableID is returned when CSS variables are requested without a key
// and the unit has no id a key could be generated from.
var ErrNoStableID = errors.New("no stable id to generate css variable key from")
