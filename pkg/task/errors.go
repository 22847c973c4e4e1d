package task

import "errors"

var ErrInvalidInterval = errors.New("task: interval must be positive")
