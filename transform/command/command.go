// Package command provides a transformer that delegates the deobfuscation to an
// external program, e.g. a remapping tool shipped as a jar.
//
// The program is described as an argument vector whose elements are rendered as
// text/template against [Data] for every request:
//
//	[java, -jar, remap.jar, "{{.Input}}", "{{.Output}}", "{{.Channel}}", "{{.MappingVersion}}", "{{.Side}}"]
//
// The program must write the deobfuscated binary to Output and exit with status 0.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	slogcontext "github.com/veqryn/slog-context"
	"golang.org/x/sync/singleflight"

	"ocm.software/open-component-model/deobf/transform"
)

const Realm = "transform/command"

// DefaultTimeout bounds a single run of the program if no timeout is configured.
const DefaultTimeout = 10 * time.Minute

// waitDelay bounds how long output of a killed program is still collected.
const waitDelay = 10 * time.Second

// maxReportedOutput limits how much of the program output is attached to errors.
const maxReportedOutput = 4 << 10

// Data is available to the argument templates.
type Data struct {
	Input          string
	Output         string
	Group          string
	Name           string
	Version        string
	Classifier     string
	Channel        string
	MappingVersion string
	Side           string
}

type Options struct {
	// Command is the argument vector, the first element is the program.
	Command []string
	// Timeout bounds a single run, DefaultTimeout if zero.
	Timeout time.Duration
	// Env is appended to the environment of the current process.
	Env []string
	// Dir is the working directory of the program, the current one if empty.
	Dir string
}

// Transformer runs the program once per target coordinate. Concurrent requests for the
// same target share one run, and targets already present in the sink are not produced again.
type Transformer struct {
	args    []*template.Template
	timeout time.Duration
	env     []string
	dir     string

	sf singleflight.Group
}

var _ transform.Transformer = (*Transformer)(nil)

func New(opts Options) (*Transformer, error) {
	if len(opts.Command) == 0 || strings.TrimSpace(opts.Command[0]) == "" {
		return nil, fmt.Errorf("transformer command is required")
	}
	args := make([]*template.Template, 0, len(opts.Command))
	var errs []error
	for i, arg := range opts.Command {
		tmpl, err := template.New(fmt.Sprintf("arg%d", i)).Option("missingkey=error").Parse(arg)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid template in argument %d %q: %w", i, arg, err))
			continue
		}
		args = append(args, tmpl)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Transformer{
		args:    args,
		timeout: opts.Timeout,
		env:     opts.Env,
		dir:     opts.Dir,
	}, nil
}

// Binary produces the target of req into sink unless it is already present there.
// Concurrent requests for the same destination share one run of the program. The
// run is not bound to the cancellation of the request that started it, every
// caller stops waiting when its own context is done.
func (t *Transformer) Binary(ctx context.Context, req transform.Request, sink transform.Sink) (string, error) {
	logger := slogcontext.FromCtx(ctx).With(slog.String("realm", Realm), slog.String("target", req.Target.String()))

	destination := sink.Path(req.Target)
	if destination == "" {
		return "", fmt.Errorf("sink has no location for %s", req.Target)
	}
	if isRegularFile(destination) {
		logger.Log(ctx, slog.LevelDebug, "target already produced", slog.String("path", destination))
		return destination, nil
	}

	results := t.sf.DoChan(destination, func() (any, error) {
		// a run for the same destination may have completed since the check above
		if isRegularFile(destination) {
			return destination, nil
		}
		return t.run(context.WithoutCancel(ctx), logger, req, sink)
	})
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for transformation of %s: %w", req.Target, context.Cause(ctx))
	case res := <-results:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			logger.Log(ctx, slog.LevelDebug, "shared transformation result with concurrent request")
		}
		return res.Val.(string), nil
	}
}

func (t *Transformer) run(ctx context.Context, logger *slog.Logger, req transform.Request, sink transform.Sink) (_ string, err error) {
	work, err := os.MkdirTemp("", "deobf-transform-*")
	if err != nil {
		return "", fmt.Errorf("failed to create working directory: %w", err)
	}
	defer func() {
		err = errors.Join(err, os.RemoveAll(work))
	}()

	data := Data{
		Input:          req.Input,
		Output:         filepath.Join(work, req.Target.FileName()),
		Group:          req.Target.Group,
		Name:           req.Target.Name,
		Version:        req.Target.Version,
		Classifier:     req.Target.Classifier,
		Channel:        req.Mapping.Channel,
		MappingVersion: req.Mapping.Version,
		Side:           req.Mapping.Side.String(),
	}
	argv, err := t.render(data)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.Dir = t.dir
	cmd.Env = append(os.Environ(), t.env...)
	cmd.WaitDelay = waitDelay

	logger.InfoContext(ctx, "running transformer", slog.String("program", argv[0]), slog.String("input", req.Input), slog.String("mapping", req.Mapping.String()))
	start := time.Now()
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("transformer %s failed for %s: %w: %s", argv[0], req.Target, err, truncate(output.String()))
	}
	logger.Log(ctx, slog.LevelDebug, "transformer finished", slog.Duration("duration", time.Since(start)))

	result, err := os.Open(data.Output)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("transformer %s did not produce %s: %s", argv[0], data.Output, truncate(output.String()))
	}
	if err != nil {
		return "", fmt.Errorf("failed to open transformer output: %w", err)
	}
	defer func() {
		err = errors.Join(err, result.Close())
	}()

	path, err := sink.Store(ctx, req.Target, result)
	if err != nil {
		return "", fmt.Errorf("storing transformer output for %s failed: %w", req.Target, err)
	}
	return path, nil
}

func (t *Transformer) render(data Data) ([]string, error) {
	argv := make([]string, 0, len(t.args))
	var buf strings.Builder
	for i, tmpl := range t.args {
		buf.Reset()
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("rendering argument %d failed: %w", i, err)
		}
		argv = append(argv, buf.String())
	}
	return argv, nil
}

func isRegularFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxReportedOutput {
		return s[len(s)-maxReportedOutput:]
	}
	return s
}
