//go:build !windows

package process

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawn_EchoRoundTrip(t *testing.T) {
	h, err := Spawn("cat", nil, true)
	require.NoError(t, err)
	defer h.Terminate()

	assert.Greater(t, h.Pid(), 0)
	require.NoError(t, h.Write([]byte("hello\n")))

	var got []byte
	require.Eventually(t, func() bool {
		got = append(got, h.ReadAvailable()...)
		return len(got) >= 6
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "hello\n", string(got))
}

func TestSpawn_NotFound(t *testing.T) {
	_, err := Spawn("lstalk-no-such-binary-on-path", nil, true)
	assert.Error(t, err)
}

func TestSpawn_BareNameWithoutSeekPath(t *testing.T) {
	// Without PATH resolution a bare nonexistent name cannot spawn.
	_, err := Spawn("lstalk-no-such-binary-on-path", nil, false)
	assert.Error(t, err)
}

func TestHandle_AliveAfterExit(t *testing.T) {
	h, err := Spawn("true", nil, true)
	require.NoError(t, err)
	defer h.Terminate()

	require.Eventually(t, func() bool {
		return !h.Alive()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandle_WriteAfterTerminate(t *testing.T) {
	h, err := Spawn("cat", nil, true)
	require.NoError(t, err)

	h.Terminate()
	assert.ErrorIs(t, h.Write([]byte("x")), ErrBrokenPipe)
}

func TestHandle_TerminateTwice(t *testing.T) {
	h, err := Spawn("cat", nil, true)
	require.NoError(t, err)

	h.Terminate()
	h.Terminate()
}

func TestHandle_StderrMultiplexed(t *testing.T) {
	h, err := Spawn("sh", []string{"-c", "echo err 1>&2"}, true)
	require.NoError(t, err)
	defer h.Terminate()

	var got []byte
	require.Eventually(t, func() bool {
		got = append(got, h.ReadAvailable()...)
		return len(got) >= 4
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "err\n", string(got))
}
