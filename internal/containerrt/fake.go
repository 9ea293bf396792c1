package containerrt

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/myyrakle/batchman/internal/model"
)

// Fake is an in-memory Runtime double for tests, in the spirit of
// petabytecl-gaz/worker/testing.go's SimpleWorker: a plain struct with
// call-tracking fields rather than a mocking framework, since the contract
// here is small enough not to need one.
type Fake struct {
	mu         sync.Mutex
	nextID     int
	containers map[string]*State
	RunErr     error
	InspectErr error
}

// NewFake returns an empty Fake runtime.
func NewFake() *Fake {
	return &Fake{containers: make(map[string]*State)}
}

var _ Runtime = (*Fake)(nil)

func (f *Fake) Run(_ context.Context, _ *model.TaskDefinition) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.RunErr != nil {
		return "", f.RunErr
	}
	f.nextID++
	id := "fake-" + strconv.Itoa(f.nextID)
	f.containers[id] = &State{Running: true}
	return id, nil
}

func (f *Fake) Inspect(_ context.Context, containerID string) (Inspection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.InspectErr != nil {
		return Inspection{}, f.InspectErr
	}
	st, ok := f.containers[containerID]
	if !ok {
		return Inspection{}, ErrFakeContainerNotFound
	}
	return Inspection{State: *st}, nil
}

func (f *Fake) Stop(_ context.Context, containerID string, _ time.Duration) error {
	return f.Kill(context.Background(), containerID)
}

func (f *Fake) Kill(_ context.Context, containerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.containers[containerID]
	if !ok {
		return ErrFakeContainerNotFound
	}
	st.Running = false
	now := time.Now()
	st.FinishedAt = &now
	code := 137
	st.ExitCode = &code
	return nil
}

func (f *Fake) Remove(_ context.Context, containerID string, _ RemoveOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.containers, containerID)
	return nil
}

// FinishContainer marks containerID as finished with exitCode, for tests
// driving the tracker loop.
func (f *Fake) FinishContainer(containerID string, exitCode int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.containers[containerID]
	if !ok {
		return
	}
	st.Running = false
	now := time.Now()
	st.FinishedAt = &now
	st.ExitCode = &exitCode
}

// KillContainer marks containerID as dead with the given error message.
func (f *Fake) KillContainer(containerID, errMsg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.containers[containerID]
	if !ok {
		return
	}
	st.Running = false
	st.Dead = true
	st.Error = errMsg
}

// ErrFakeContainerNotFound mirrors apierr.ErrContainerNotFound for tests
// that don't want to import apierr just to assert on the fake's error.
var ErrFakeContainerNotFound = fakeNotFound{}

type fakeNotFound struct{}

func (fakeNotFound) Error() string { return "fake: container not found" }
