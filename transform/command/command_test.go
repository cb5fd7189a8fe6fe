package command_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/deobf/cache"
	"ocm.software/open-component-model/deobf/coordinate"
	"ocm.software/open-component-model/deobf/mapping"
	"ocm.software/open-component-model/deobf/transform"
	"ocm.software/open-component-model/deobf/transform/command"
)

var target = coordinate.MustParse("net.mc:client:1.20.1_mapped_official_2023.10_server")

func requireShell(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh is not available")
	}
	return sh
}

// setup creates an input file, a sink and a counter file that the script appends to on every run.
func setup(t *testing.T) (input string, sink *cache.Store, counter string) {
	t.Helper()
	r := require.New(t)
	dir := t.TempDir()
	input = filepath.Join(dir, "client-1.20.1.jar")
	r.NoError(os.WriteFile(input, []byte("obfuscated"), 0o644))
	sink, err := cache.New(filepath.Join(dir, "cache"))
	r.NoError(err)
	return input, sink, filepath.Join(dir, "runs")
}

func request(input string) transform.Request {
	return transform.Request{
		Input:   input,
		Target:  target,
		Mapping: mapping.Spec{Channel: "official", Version: "2023.10", Side: mapping.SideServer},
	}
}

func TestTransformer_Binary(t *testing.T) {
	sh := requireShell(t)
	r := require.New(t)
	input, sink, counter := setup(t)

	tr, err := command.New(command.Options{
		Command: []string{sh, "-c", `echo run >> "$2"; { cat "$0"; printf ' %s/%s/%s' "$3" "$4" "$5"; } > "$1"`,
			"{{.Input}}", "{{.Output}}", counter, "{{.Channel}}", "{{.MappingVersion}}", "{{.Side}}"},
	})
	r.NoError(err)

	path, err := tr.Binary(t.Context(), request(input), sink)
	r.NoError(err)
	r.Equal(sink.Path(target), path)

	content, err := os.ReadFile(path)
	r.NoError(err)
	r.Equal("obfuscated official/2023.10/server", string(content))
	r.NoError(sink.Verify(target))

	// the target is now present in the sink and must not be produced again
	again, err := tr.Binary(t.Context(), request(input), sink)
	r.NoError(err)
	r.Equal(path, again)

	runs, err := os.ReadFile(counter)
	r.NoError(err)
	r.Equal(1, strings.Count(string(runs), "run"))
}

func TestTransformer_ConcurrentRequestsShareOneRun(t *testing.T) {
	sh := requireShell(t)
	r := require.New(t)
	input, sink, counter := setup(t)

	tr, err := command.New(command.Options{
		Command: []string{sh, "-c", `echo run >> "$2"; sleep 0.2; cp "$0" "$1"`, "{{.Input}}", "{{.Output}}", counter},
	})
	r.NoError(err)

	var wg sync.WaitGroup
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			path, err := tr.Binary(t.Context(), request(input), sink)
			assert.NoError(t, err)
			assert.Equal(t, sink.Path(target), path)
		}()
	}
	wg.Wait()

	runs, err := os.ReadFile(counter)
	r.NoError(err)
	r.Equal(1, strings.Count(string(runs), "run"))
}

func TestTransformer_ConcurrentRequestsForDifferentSinks(t *testing.T) {
	sh := requireShell(t)
	r := require.New(t)
	input, first, counter := setup(t)
	second, err := cache.New(filepath.Join(t.TempDir(), "second"))
	r.NoError(err)

	tr, err := command.New(command.Options{
		Command: []string{sh, "-c", `echo run >> "$2"; sleep 0.2; cp "$0" "$1"`, "{{.Input}}", "{{.Output}}", counter},
	})
	r.NoError(err)

	var wg sync.WaitGroup
	for _, sink := range []*cache.Store{first, second, first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			path, err := tr.Binary(t.Context(), request(input), sink)
			assert.NoError(t, err)
			assert.Equal(t, sink.Path(target), path)
		}()
	}
	wg.Wait()

	for _, sink := range []*cache.Store{first, second} {
		_, err := sink.FindFile(t.Context(), target)
		r.NoError(err)
		r.NoError(sink.Verify(target))
	}
	runs, err := os.ReadFile(counter)
	r.NoError(err)
	r.Equal(2, strings.Count(string(runs), "run"), "one run per sink")
}

func TestTransformer_CancelledCallerDoesNotFailOthers(t *testing.T) {
	sh := requireShell(t)
	r := require.New(t)
	input, sink, counter := setup(t)

	tr, err := command.New(command.Options{
		Command: []string{sh, "-c", `echo run >> "$2"; sleep 0.5; cp "$0" "$1"`, "{{.Input}}", "{{.Output}}", counter},
	})
	r.NoError(err)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	cancelled := make(chan error, 1)
	go func() {
		_, err := tr.Binary(ctx, request(input), sink)
		cancelled <- err
	}()
	r.Eventually(func() bool {
		_, err := os.Stat(counter)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	waiting := make(chan error, 1)
	go func() {
		_, err := tr.Binary(t.Context(), request(input), sink)
		waiting <- err
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	r.ErrorIs(<-cancelled, context.Canceled)
	r.NoError(<-waiting)
	r.NoError(sink.Verify(target))

	runs, err := os.ReadFile(counter)
	r.NoError(err)
	r.Equal(1, strings.Count(string(runs), "run"))
}

func TestTransformer_Failures(t *testing.T) {
	sh := requireShell(t)

	t.Run("non zero exit", func(t *testing.T) {
		r := require.New(t)
		input, sink, _ := setup(t)
		tr, err := command.New(command.Options{Command: []string{sh, "-c", `echo "bad mapping" >&2; exit 3`}})
		r.NoError(err)

		_, err = tr.Binary(t.Context(), request(input), sink)
		r.ErrorContains(err, "bad mapping")
		var exitErr *exec.ExitError
		r.ErrorAs(err, &exitErr)
		r.Equal(3, exitErr.ExitCode())

		_, err = sink.FindFile(t.Context(), target)
		r.Error(err)
	})

	t.Run("no output", func(t *testing.T) {
		r := require.New(t)
		input, sink, _ := setup(t)
		tr, err := command.New(command.Options{Command: []string{sh, "-c", "true"}})
		r.NoError(err)

		_, err = tr.Binary(t.Context(), request(input), sink)
		r.ErrorContains(err, "did not produce")
	})

	t.Run("timeout", func(t *testing.T) {
		r := require.New(t)
		input, sink, _ := setup(t)
		tr, err := command.New(command.Options{Command: []string{sh, "-c", "exec sleep 5"}, Timeout: 100 * time.Millisecond})
		r.NoError(err)

		start := time.Now()
		_, err = tr.Binary(t.Context(), request(input), sink)
		r.Error(err)
		r.Less(time.Since(start), 4*time.Second)
	})
}

func TestNew_Invalid(t *testing.T) {
	r := require.New(t)

	_, err := command.New(command.Options{})
	r.ErrorContains(err, "command is required")

	_, err = command.New(command.Options{Command: []string{"remap", "{{.Input"}})
	r.ErrorContains(err, "invalid template in argument 1")

	tr, err := command.New(command.Options{Command: []string{"remap", "{{.Unknown}}"}})
	r.NoError(err)
	_, err = tr.Binary(t.Context(), request("in.jar"), nopSink{dir: t.TempDir()})
	r.ErrorContains(err, "rendering argument 1 failed")
}

type nopSink struct {
	transform.Sink
	dir string
}

func (n nopSink) Path(c coordinate.Coordinate) string {
	if n.dir == "" {
		return ""
	}
	return filepath.Join(n.dir, c.FileName())
}

func TestTransformer_SinkWithoutLocation(t *testing.T) {
	tr, err := command.New(command.Options{Command: []string{"remap"}})
	require.NoError(t, err)
	_, err = tr.Binary(t.Context(), request("in.jar"), nopSink{})
	require.ErrorContains(t, err, "sink has no location")
}
