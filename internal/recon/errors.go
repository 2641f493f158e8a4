package recon

import "errors"

// ErrNotFound indicates an id or code that does not resolve; it aborts only
// the pair being processed.
var ErrNotFound = errors.New("recon: not found")

// ErrInvalidArgument indicates malformed input to an executor call.
var ErrInvalidArgument = errors.New("recon: invalid argument")

// ErrUpstream indicates a transport, authentication or ERP-side failure. It
// aborts the current pair's action, never the run.
var ErrUpstream = errors.New("recon: upstream failure")
