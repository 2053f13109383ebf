// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"errors"
	"fmt"
)

// ErrRegistry is the sentinel wrapped by every registry build failure.
var ErrRegistry = errors.New("site registry build failed")

// errorPrefix is prepended to every build message.
const errorPrefix = "[ Config::build ] "

// LineNone marks a BuildError that is not tied to a line.
const LineNone = -1

// BuildError describes why a registry definition was rejected.
//
// Line is the zero-based index of the offending line in the raw input, or
// LineNone for file-level failures.
type BuildError struct {
	Line    int
	Message string
	Err     error
}

// Error returns the prefixed, user-facing message.
func (e *BuildError) Error() string {
	return errorPrefix + e.Message
}

// Unwrap exposes ErrRegistry and the underlying cause, if any.
func (e *BuildError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrRegistry, e.Err}
	}
	return []error{ErrRegistry}
}

func lineError(idx int, format string, args ...any) *BuildError {
	return &BuildError{Line: idx, Message: fmt.Sprintf(format, args...)}
}
