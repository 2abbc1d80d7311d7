package models

import "github.com/cockroachdb/errors"

// Failure classes shared across the pipeline. None of them is fatal to the
// process; callers degrade to defaults.
var (
	ErrProbeTimeout            = errors.New("probe timed out")
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	ErrDiscoveryFailure        = errors.New("discovery failed")
	ErrEnrichmentFailure       = errors.New("enrichment failed")
	ErrMonitorInterrupt        = errors.New("monitor interrupted")
)
