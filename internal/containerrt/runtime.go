// Package containerrt abstracts the external container runtime behind the
// run/inspect/stop/kill/remove capability of spec §4.2. The core never
// parses vendor-specific formats beyond this contract, so the docker-backed
// adapter in docker.go is swappable.
package containerrt

import (
	"context"
	"time"

	"github.com/myyrakle/batchman/internal/model"
)

// State is the point-in-time status of a container, returned by Inspect.
type State struct {
	Running    bool
	Dead       bool
	ExitCode   *int
	StartedAt  *time.Time
	FinishedAt *time.Time
	Error      string
}

// Inspection is the result of Inspect: the container's state plus the path
// to its line-delimited JSON log file (spec §4.2, §4.3 log paging).
type Inspection struct {
	State   State
	LogPath string
}

// RemoveOptions configures Remove. Remove is never invoked by the core
// loops (spec §4.2); it exists for completeness of the capability contract
// and for operator/administrative use.
type RemoveOptions struct {
	Force   bool
	Volumes bool
	Links   bool
}

// Runtime is the capability the job-execution pipeline depends on. Run
// launches a task definition's container detached; Inspect reports its
// current state; Stop/Kill/Remove manage its lifecycle.
type Runtime interface {
	// Run launches task as a detached container and returns its ID.
	// Returns an *apierr.Error wrapping apierr.ErrContainerFailedToStart on
	// failure, with Cause set to the runtime's stderr.
	Run(ctx context.Context, task *model.TaskDefinition) (containerID string, err error)

	// Inspect reports containerID's current state and log path. Returns an
	// *apierr.Error wrapping apierr.ErrContainerNotFound if the runtime
	// reports the container doesn't exist.
	Inspect(ctx context.Context, containerID string) (Inspection, error)

	// Stop attempts a graceful stop within timeout, falling back to Kill on
	// any failure other than ErrContainerNotFound (spec §4.2, §4.3 stop_job).
	Stop(ctx context.Context, containerID string, timeout time.Duration) error

	// Kill immediately terminates containerID.
	Kill(ctx context.Context, containerID string) error

	// Remove deletes containerID's resources per opts. Not driven by the
	// core loops.
	Remove(ctx context.Context, containerID string, opts RemoveOptions) error
}
