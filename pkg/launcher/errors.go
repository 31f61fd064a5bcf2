// Copyright (c) OpenMMLab. All rights reserved.

package launcher

import (
	"errors"
	"fmt"
)

// ConfigError reports an invalid launcher configuration. It always names the
// offending field and the value it was given. Configuration errors are raised
// before any distributed action is taken and are never retried.
type ConfigError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid launcher configuration: argument %s %s, but given %v", e.Field, e.Reason, e.Value)
}

// IsConfigError reports whether err is a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ErrGroupActive is returned by EnterScope when the launcher already holds
// an active processing group. Re-entering would corrupt the process-wide
// group handle owned by the runtime.
var ErrGroupActive = errors.New("processing group already active: EnterScope called twice without ExitScope")
