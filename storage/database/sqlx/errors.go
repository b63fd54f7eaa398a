package sqlxrepos

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"net"

	"github.com/pkg/errors"

	"github.com/akadahq/akada/core"
)

// wrapErr wraps a store failure. A dead connection cannot be recovered from
// by retrying the request, so it surfaces as a shutdown error and lets the
// process stop instead of serving 500s forever.
func wrapErr(err error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	cause := errors.Cause(err)
	if cause == driver.ErrBadConn || cause == sql.ErrConnDone {
		return core.NewShutdownError(msg + ": " + cause.Error())
	}
	if _, ok := cause.(net.Error); ok {
		return core.NewShutdownError(msg + ": " + cause.Error())
	}
	return errors.Wrap(err, msg)
}
