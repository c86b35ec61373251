package poller

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalState is matched by every IllegalStateError.
	ErrIllegalState = errors.New("illegal state")

	errBackendRequired     = errors.New("backend is required")
	errSettingsRequired    = errors.New("settings are required")
	errPollServiceRequired = errors.New("poll service is required")
	errHooksRequired       = errors.New("hooks are required")
	errNoLocation          = errors.New("poller is not registered and no location is configured")
	errCoreAddressRequired = errors.New("core address is required")
	errSettingsRequiredCfg = errors.New("either settings_file or kv settings must be configured")
)

// IllegalStateError reports an operation invoked in a state that does not allow it.
type IllegalStateError struct {
	Op    Op
	State State
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("%s is not allowed in state %s", e.Op, e.State)
}

func (*IllegalStateError) Is(target error) bool {
	return target == ErrIllegalState
}
