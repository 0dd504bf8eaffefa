package pcloud

import "fmt"

// ResultCode is the numeric result field pCloud returns on every API
// response. Zero means success; everything else is an error, with two
// codes reserved for authentication problems.
type ResultCode int

const (
	// ResultSuccess is returned when the call succeeded.
	ResultSuccess ResultCode = 0

	// ResultAuthRequired means the call needs authentication and no
	// valid token was supplied.
	ResultAuthRequired ResultCode = 1000

	// ResultAuthRejected means the supplied token was not accepted,
	// typically because it expired or was revoked.
	ResultAuthRejected ResultCode = 2000
)

// IsAuthFailure reports whether the code signals a stale or missing
// token, i.e. whether a fresh login may recover the call.
func (c ResultCode) IsAuthFailure() bool {
	return c == ResultAuthRequired || c == ResultAuthRejected
}

func (c ResultCode) String() string {
	switch c {
	case ResultSuccess:
		return "success"
	case ResultAuthRequired:
		return "auth required"
	case ResultAuthRejected:
		return "auth rejected"
	default:
		return fmt.Sprintf("error %d", int(c))
	}
}
