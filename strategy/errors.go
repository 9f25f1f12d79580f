package strategy

import "errors"

// ErrNoPools is returned when Assign is called with a non-positive pool count.
var ErrNoPools = errors.New("pool count must be positive")
