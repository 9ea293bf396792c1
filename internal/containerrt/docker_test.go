package containerrt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDockerTime_ZeroValueIsNil(t *testing.T) {
	zero := "0001-01-01T00:00:00Z"
	assert.Nil(t, parseDockerTime(&zero))
	assert.Nil(t, parseDockerTime(nil))
	empty := ""
	assert.Nil(t, parseDockerTime(&empty))
}

func TestParseDockerTime_ValidTimestamp(t *testing.T) {
	raw := "2026-07-30T12:00:00.5Z"
	got := parseDockerTime(&raw)
	require.NotNil(t, got)
	assert.Equal(t, 2026, got.Year())
}

func TestDocker_Run_UsesConfiguredBinary(t *testing.T) {
	d := NewDocker("true")
	assert.Equal(t, "true", d.bin())
}

func TestDocker_Run_DefaultsToDockerBinary(t *testing.T) {
	d := NewDocker("")
	assert.Equal(t, "docker", d.bin())
}

func TestDocker_run_ReturnsErrorOnFailure(t *testing.T) {
	d := NewDocker("false")
	_, err := d.run(context.Background(), "anything")
	require.Error(t, err)
}

func TestDocker_run_ReturnsStdout(t *testing.T) {
	d := NewDocker("echo")
	out, err := d.run(context.Background(), "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
}

func TestDocker_Inspect_NonJSONOutputFails(t *testing.T) {
	d := NewDocker("echo")
	_, err := d.Inspect(context.Background(), "some-container")
	require.Error(t, err)
}
