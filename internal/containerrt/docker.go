package containerrt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/myyrakle/batchman/internal/apierr"
	"github.com/myyrakle/batchman/internal/model"
)

// Docker shells out to a docker-compatible CLI binary (spec §6 "Container
// runtime"). It is grounded on
// _examples/original_source/src/docker/{run,inspect,stop}.rs, translated
// from blocking anyhow::Result calls into Go's (T, error) idiom and wired
// through os/exec with context cancellation.
type Docker struct {
	// Binary is the CLI executable name or path. Defaults to "docker".
	Binary string
}

// NewDocker returns a Docker runtime using binary, or "docker" if empty.
func NewDocker(binary string) *Docker {
	if binary == "" {
		binary = "docker"
	}
	return &Docker{Binary: binary}
}

var _ Runtime = (*Docker)(nil)

func (d *Docker) bin() string {
	if d.Binary == "" {
		return "docker"
	}
	return d.Binary
}

// Run implements Runtime. It passes memory/CPU limits, non-empty env pairs,
// the image, command tokens, and args, and launches detached with a fixed
// line-delimited JSON log driver (spec §4.2).
func (d *Docker) Run(ctx context.Context, task *model.TaskDefinition) (string, error) {
	args := []string{"run", "-d", "--log-driver", "json-file"}

	if task.MemoryLimitMB != nil {
		args = append(args, "--memory", fmt.Sprintf("%dm", *task.MemoryLimitMB))
	}
	if task.CPUShares != nil {
		args = append(args, "--cpu-shares", strconv.Itoa(*task.CPUShares))
	}
	for _, kv := range task.EnvPairs() {
		args = append(args, "-e", kv)
	}

	args = append(args, task.Image)
	args = append(args, task.Command...)
	args = append(args, task.ArgTokens()...)

	out, err := d.run(ctx, args...)
	if err != nil {
		return "", apierr.New(apierr.ErrContainerFailedToStart, err.Error(), err)
	}
	return strings.TrimSpace(out), nil
}

type dockerInspectResult struct {
	State   dockerState `json:"State"`
	LogPath string      `json:"LogPath"`
}

type dockerState struct {
	Status     string  `json:"Status"`
	Running    bool    `json:"Running"`
	Paused     bool    `json:"Paused"`
	Restarting bool    `json:"Restarting"`
	OOMKilled  bool    `json:"OOMKilled"`
	Dead       bool    `json:"Dead"`
	ExitCode   *int    `json:"ExitCode"`
	StartedAt  *string `json:"StartedAt"`
	FinishedAt *string `json:"FinishedAt"`
	Error      string  `json:"Error"`
}

// zeroTimePrefix is the sentinel Docker emits for StartedAt/FinishedAt when the
// event hasn't happened yet ("0001-01-01T00:00:00Z").
const zeroTimePrefix = "0001-01-01T00:00:00"

func parseDockerTime(raw *string) *time.Time {
	if raw == nil || *raw == "" || strings.HasPrefix(*raw, zeroTimePrefix) {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, *raw)
	if err != nil {
		return nil
	}
	return &t
}

// Inspect implements Runtime.
func (d *Docker) Inspect(ctx context.Context, containerID string) (Inspection, error) {
	out, err := d.run(ctx, "inspect", containerID)
	if err != nil {
		if strings.Contains(err.Error(), "No such object") || strings.Contains(err.Error(), "No such container") {
			return Inspection{}, apierr.New(apierr.ErrContainerNotFound, containerID, nil)
		}
		return Inspection{}, apierr.New(apierr.ErrContainerFailedToInspect, err.Error(), err)
	}

	var results []dockerInspectResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		return Inspection{}, apierr.New(apierr.ErrSerialization, "decoding docker inspect output", err)
	}
	if len(results) == 0 {
		return Inspection{}, apierr.New(apierr.ErrContainerNotFound, containerID, nil)
	}

	r := results[0]
	return Inspection{
		State: State{
			Running:    r.State.Running,
			Dead:       r.State.Dead,
			ExitCode:   r.State.ExitCode,
			StartedAt:  parseDockerTime(r.State.StartedAt),
			FinishedAt: parseDockerTime(r.State.FinishedAt),
			Error:      r.State.Error,
		},
		LogPath: r.LogPath,
	}, nil
}

// Stop implements Runtime: a graceful "docker stop --time N" followed by a
// Kill fallback on any failure other than container-not-found (spec §4.2,
// grounded on original_source/src/docker/stop.rs).
func (d *Docker) Stop(ctx context.Context, containerID string, timeout time.Duration) error {
	seconds := int(timeout.Round(time.Second).Seconds())
	if seconds < 0 {
		seconds = 0
	}
	_, err := d.run(ctx, "stop", "--time", strconv.Itoa(seconds), containerID)
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "No such container") {
		return apierr.New(apierr.ErrContainerNotFound, containerID, nil)
	}
	return d.Kill(ctx, containerID)
}

// Kill implements Runtime.
func (d *Docker) Kill(ctx context.Context, containerID string) error {
	_, err := d.run(ctx, "kill", containerID)
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "No such container") {
		return apierr.New(apierr.ErrContainerNotFound, containerID, nil)
	}
	return apierr.New(apierr.ErrContainerFailedToKill, err.Error(), err)
}

// Remove implements Runtime.
func (d *Docker) Remove(ctx context.Context, containerID string, opts RemoveOptions) error {
	args := []string{"rm"}
	if opts.Force {
		args = append(args, "-f")
	}
	if opts.Volumes {
		args = append(args, "-v")
	}
	if opts.Links {
		args = append(args, "-l")
	}
	args = append(args, containerID)

	_, err := d.run(ctx, args...)
	if err != nil {
		if strings.Contains(err.Error(), "No such container") {
			return apierr.New(apierr.ErrContainerNotFound, containerID, nil)
		}
		return apierr.New(apierr.ErrContainerFailedToRemove, err.Error(), err)
	}
	return nil
}

// run executes the runtime binary with args, returning stdout or an error
// wrapping stderr when the process exits non-zero.
func (d *Docker) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, d.bin(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return "", fmt.Errorf("%s", strings.TrimSpace(stderr.String()))
		}
		return "", err
	}
	return stdout.String(), nil
}
