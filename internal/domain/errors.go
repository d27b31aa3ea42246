// internal/domain/errors.go
package domain

import "errors"

// ErrUnknownAgentType is returned when an execution request names an agent
// type that is not in the registry. Surfaced synchronously; no execution is
// created.
var ErrUnknownAgentType = errors.New("unknown agent type")

// ErrExecutionNotFound is returned when an operation addresses an execution
// id the orchestrator has never tracked.
var ErrExecutionNotFound = errors.New("execution not found")

// ErrTooManyExecutions is returned when admitting another execution would
// exceed the configured concurrency ceiling.
var ErrTooManyExecutions = errors.New("too many concurrent executions")

// ErrResultNotFound is returned by repositories when no stored result exists
// for the given execution id.
var ErrResultNotFound = errors.New("execution result not found")
