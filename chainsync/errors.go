package chainsync

import (
	"errors"
	"fmt"
)

// FatalError marks an invariant violation or an unrecoverable engine
// verdict: these are bugs or unresolvable disagreements
// between the driver and the engine, never environmental hiccups.
type FatalError struct {
	Msg string
	Err error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FatalError) Unwrap() error { return e.Err }

func fatalf(format string, args ...interface{}) error {
	return &FatalError{Msg: fmt.Sprintf(format, args...)}
}

// errShuttingDown is the sentinel a blocking adapter call's error is
// folded into once the driver has already observed a stop request,
// so Run can exit cleanly instead of surfacing a transport failure
// that is really just shutdown in progress.
var errShuttingDown = errors.New("chainsync: shutting down")

func (d *Driver) wrapTransportErr(err error) error {
	if err == nil {
		return nil
	}
	if d.isStopping() {
		d.log.Warn("Ignoring adapter error while stopping", "err", err)
		return errShuttingDown
	}
	return err
}
