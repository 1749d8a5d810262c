package zend

import "fmt"

// TransportError indicates the request never completed: connection failure,
// timeout, or any other failure below the RPC layer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError indicates the node was reachable but answered with a failure
// status, an RPC-level error, or a payload missing the expected shape.
type RemoteError struct {
	Op     string
	Status int
	Reason string
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote error during %s: status %d: %s", e.Op, e.Status, e.Reason)
	}
	return fmt.Sprintf("remote error during %s: %s", e.Op, e.Reason)
}
