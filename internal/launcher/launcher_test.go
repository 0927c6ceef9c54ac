package launcher_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/outpipe/outpipe/internal/launcher"
)

// chunkCollector accumulates sink invocations. Reading it is safe once Wait
// has returned: joining the reader happens-before Wait's return.
type chunkCollector struct {
	chunks []string
}

func (c *chunkCollector) sink(text string) {
	c.chunks = append(c.chunks, text)
}

func (c *chunkCollector) all() string {
	return strings.Join(c.chunks, "")
}

func TestEchoRoundTrip(t *testing.T) {
	var out chunkCollector
	p, err := launcher.Launch(context.Background(), launcher.Command{
		Args: []string{"echo", "hello"},
		Sink: out.sink,
	})
	require.NoError(t, err)

	res, err := p.Wait()
	require.NoError(t, err)
	require.True(t, res.Success())
	require.Equal(t, "hello\n", out.all())
}

func TestMergedStreams(t *testing.T) {
	var out chunkCollector
	p, err := launcher.Launch(context.Background(), launcher.Command{
		Args: []string{"sh", "-c", "echo to-stdout; echo to-stderr >&2"},
		Sink: out.sink,
	})
	require.NoError(t, err)

	res, err := p.Wait()
	require.NoError(t, err)
	require.True(t, res.Success())
	require.Contains(t, out.all(), "to-stdout")
	require.Contains(t, out.all(), "to-stderr")
}

func TestNoOutputNeverInvokesSink(t *testing.T) {
	var out chunkCollector
	p, err := launcher.Launch(context.Background(), launcher.Command{
		Args: []string{"true"},
		Sink: out.sink,
	})
	require.NoError(t, err)

	res, err := p.Wait()
	require.NoError(t, err)
	require.True(t, res.Success())
	require.Empty(t, out.chunks)
}

func TestExitStatusPropagation(t *testing.T) {
	p, err := launcher.Launch(context.Background(), launcher.Command{
		Args: []string{"sh", "-c", "exit 42"},
	})
	require.NoError(t, err)

	res, err := p.Wait()
	require.NoError(t, err)
	require.False(t, res.Success())
	require.True(t, res.Exited())
	require.Equal(t, 42, res.ExitCode)
	require.Equal(t, 42, res.Status.ExitStatus())
}

func TestLargeOutputSpansChunks(t *testing.T) {
	var out chunkCollector
	p, err := launcher.Launch(context.Background(), launcher.Command{
		Args: []string{"sh", "-c", "head -c 100000 /dev/zero | tr '\\0' x"},
		Sink: out.sink,
	})
	require.NoError(t, err)

	res, err := p.Wait()
	require.NoError(t, err)
	require.True(t, res.Success())
	require.Greater(t, len(out.chunks), 1)
	require.Equal(t, strings.Repeat("x", 100000), out.all())
}

func TestMultiByteSplitAcrossChunks(t *testing.T) {
	var out chunkCollector
	p, err := launcher.Launch(context.Background(), launcher.Command{
		Args: []string{"sh", "-c", "yes 'héllo wörld' | head -n 2000"},
		Sink: out.sink,
	})
	require.NoError(t, err)

	res, err := p.Wait()
	require.NoError(t, err)
	require.True(t, res.Success())
	require.Equal(t, strings.Repeat("héllo wörld\n", 2000), out.all())
}

func TestSpawnFailed(t *testing.T) {
	var out chunkCollector
	_, err := launcher.Launch(context.Background(), launcher.Command{
		Args: []string{"/nonexistent/outpipe-test-binary"},
		Sink: out.sink,
	})
	require.ErrorIs(t, err, launcher.ErrSpawnFailed)
	require.Empty(t, out.chunks)

	_, err = launcher.Launch(context.Background(), launcher.Command{})
	require.ErrorIs(t, err, launcher.ErrSpawnFailed)
}

func TestEmptyEnvironmentIsLiterallyEmpty(t *testing.T) {
	var out chunkCollector
	p, err := launcher.Launch(context.Background(), launcher.Command{
		Args: []string{"env"},
		Sink: out.sink,
	})
	require.NoError(t, err)

	res, err := p.Wait()
	require.NoError(t, err)
	require.True(t, res.Success())
	require.Empty(t, out.all())
}

func TestEnvAssignmentsReachChild(t *testing.T) {
	var out chunkCollector
	p, err := launcher.Launch(context.Background(), launcher.Command{
		Args: []string{"env"},
		Env:  []string{"OUTPIPE_TEST_VAR=hello123"},
		Sink: out.sink,
	})
	require.NoError(t, err)

	res, err := p.Wait()
	require.NoError(t, err)
	require.True(t, res.Success())
	require.Equal(t, "OUTPIPE_TEST_VAR=hello123\n", out.all())
}

func TestWaitIsIdempotent(t *testing.T) {
	p, err := launcher.Launch(context.Background(), launcher.Command{
		Args: []string{"sh", "-c", "exit 7"},
	})
	require.NoError(t, err)

	first, err := p.Wait()
	require.NoError(t, err)
	second, err := p.Wait()
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestContextCancellationTerminatesChild(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	p, err := launcher.Launch(ctx, launcher.Command{
		Args:        []string{"sleep", "10"},
		GracePeriod: 200 * time.Millisecond,
	})
	require.NoError(t, err)

	res, err := p.Wait()
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.True(t, res.Signaled())
	require.Less(t, res.Duration, 5*time.Second)
}

func TestTerminateYieldsSignaledResult(t *testing.T) {
	p, err := launcher.Launch(context.Background(), launcher.Command{
		Args: []string{"sleep", "30"},
	})
	require.NoError(t, err)

	p.Terminate(500 * time.Millisecond)

	res, err := p.Wait()
	require.NoError(t, err)
	require.True(t, res.Signaled())
	require.Equal(t, -1, res.ExitCode)
	require.Less(t, res.Duration, 10*time.Second)
}

func TestNoDescriptorLeak(t *testing.T) {
	countFDs := func() int {
		entries, err := os.ReadDir("/proc/self/fd")
		if err != nil {
			t.Skip("no /proc/self/fd on this platform")
		}
		return len(entries)
	}

	// Warm up lazily-created runtime descriptors before the baseline.
	warm, err := launcher.Launch(context.Background(), launcher.Command{Args: []string{"true"}})
	require.NoError(t, err)
	_, err = warm.Wait()
	require.NoError(t, err)

	baseline := countFDs()

	for i := 0; i < 50; i++ {
		p, err := launcher.Launch(context.Background(), launcher.Command{Args: []string{"true"}})
		require.NoError(t, err)
		_, err = p.Wait()
		require.NoError(t, err)
	}
	for i := 0; i < 10; i++ {
		_, err := launcher.Launch(context.Background(), launcher.Command{
			Args: []string{"/nonexistent/outpipe-test-binary"},
		})
		require.ErrorIs(t, err, launcher.ErrSpawnFailed)
	}

	require.Equal(t, baseline, countFDs())
}

func TestReaderErrIsNilOnCleanEOF(t *testing.T) {
	p, err := launcher.Launch(context.Background(), launcher.Command{
		Args: []string{"echo", "done"},
	})
	require.NoError(t, err)

	res, err := p.Wait()
	require.NoError(t, err)
	require.NoError(t, res.ReaderErr)
}

func TestSinkSeesOutputBeforeWait(t *testing.T) {
	received := make(chan string, 1)
	p, err := launcher.Launch(context.Background(), launcher.Command{
		Args: []string{"sh", "-c", "echo early; sleep 2"},
		Sink: func(text string) {
			select {
			case received <- text:
			default:
			}
		},
	})
	require.NoError(t, err)

	// Capture is concurrent with the child: the first chunk arrives long
	// before the child exits and Wait is ever called.
	select {
	case text := <-received:
		require.Contains(t, text, "early")
	case <-time.After(1 * time.Second):
		t.Fatal("no output observed while child was still running")
	}

	p.Terminate(100 * time.Millisecond)
	_, err = p.Wait()
	require.NoError(t, err)
}
