package job

import (
	"errors"
	"fmt"
)

// ErrConfig is matched by every *ConfigError.
var ErrConfig = errors.New("invalid job config")

// ConfigError reports a job definition that cannot be used.
type ConfigError struct {
	Job    string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Job == "" {
		return fmt.Sprintf("%s: %s: %s", ErrConfig, e.Field, e.Reason)
	}

	return fmt.Sprintf("%s %q: %s: %s", ErrConfig, e.Job, e.Field, e.Reason)
}

// Is lets errors.Is match ErrConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
