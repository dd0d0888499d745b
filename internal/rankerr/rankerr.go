// Package rankerr defines the sentinel error kinds surfaced at the I/O
// boundary of a refresh cycle. The distribution, probability and rankplan
// packages never return these; queuelog.Reduce returns
// EventLogInconsistent, and osuapi and store return the others.
package rankerr

import "errors"

var (
	// AuthFailure means the token endpoint returned a non-2xx status or a
	// response missing access_token. Fatal to the cycle.
	AuthFailure = errors.New("rankerr: auth failure")

	// ApiFailure means an upstream REST call returned non-2xx or an empty
	// body. The paged event walker surfaces it immediately; single-set
	// fetches surface it so the caller may retry next cycle.
	ApiFailure = errors.New("rankerr: api failure")

	// EventLogInconsistent means event replay ended with queuedAt=null for
	// a beatmap set reported as qualified. The caller logs and skips that
	// set; it does not abort the cycle.
	EventLogInconsistent = errors.New("rankerr: event log inconsistent")

	// MissingDatabaseSnapshot means either the qualified or ranked row set
	// was unreadable. Fatal to the cycle.
	MissingDatabaseSnapshot = errors.New("rankerr: missing database snapshot")
)
