package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and the save coordinator
// return these (optionally wrapped) so callers can translate them into
// domain errors.
//
// These represent factual states about a mutation cycle, not validation
// failures:
// - ErrNotFound: requested kind or record is not registered or stored
// - ErrUnavailable: store or sink temporarily unavailable
// - ErrClassification: change classification could not complete; no commit
//   was attempted
// - ErrResolution: one or more deferred field values stayed unresolved
//   after the primary commit
// - ErrAuditPersist: the audit write failed after the primary commit
//   already succeeded (degraded success, primary data is durable)
// - ErrCycleInFlight: a save cycle is already running on this session
var (
	ErrNotFound       = errors.New("not found")
	ErrUnavailable    = errors.New("unavailable")
	ErrClassification = errors.New("classification failed")
	ErrResolution     = errors.New("resolution incomplete")
	ErrAuditPersist   = errors.New("audit persistence failed")
	ErrCycleInFlight  = errors.New("save cycle already in flight")
)
