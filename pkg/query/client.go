package query

import (
	"context"
	"fmt"
)

// Client issues rendered queries against one backend endpoint. A Client is
// owned by exactly one worker for the worker's lifetime; implementations never
// share connections across workers.
//
// Submit converts every per-query failure into an Outcome. A non-nil error
// means the backend became unreachable (connection refused, session lost) and
// is fatal to the calling worker only.
type Client interface {
	Submit(ctx context.Context, inst *Instance) (Outcome, error)
	Close() error
}

// ClientFactory builds the dedicated Client for one worker. It is called once
// per worker at dispatch time; a construction error is treated the same as a
// mid-run connectivity failure.
type ClientFactory func(workerNum int) (Client, error)

// ConnectivityError wraps a transport-level failure so backends can
// distinguish "unreachable" from "rejected the query".
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}
