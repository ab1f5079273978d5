package idgen

import "github.com/google/uuid"

// NewFunc produces submission and event identifiers. Override in tests for
// determinism.
var NewFunc = func() string { return uuid.New().String() }

// New is a thin wrapper around NewFunc.
func New() string { return NewFunc() }
