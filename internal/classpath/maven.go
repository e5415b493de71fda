package classpath

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	cverrors "codevision/internal/errors"
)

// MinBuildTimeout is the floor applied to the configured build timeout.
const MinBuildTimeout = 30 * time.Second

// BuildRunner runs the external build tool in a project directory.
type BuildRunner interface {
	Run(ctx context.Context, dir string, args ...string) error
}

// MavenRunner invokes Maven as a child process. Output lines go to the
// debug log. The process is killed once Timeout elapses.
type MavenRunner struct {
	Executable string
	Timeout    time.Duration
	HeapMb     int
	Logger     *slog.Logger
}

// NewMavenRunner creates a runner. The timeout never drops below MinBuildTimeout.
func NewMavenRunner(executable string, maxRuntimeSeconds, heapMb int, logger *slog.Logger) *MavenRunner {
	timeout := time.Duration(maxRuntimeSeconds) * time.Second
	if timeout < MinBuildTimeout {
		timeout = MinBuildTimeout
	}
	if executable == "" {
		executable = "mvn"
	}
	return &MavenRunner{Executable: executable, Timeout: timeout, HeapMb: heapMb, Logger: logger}
}

// Run executes the build tool with args in dir.
func (m *MavenRunner) Run(ctx context.Context, dir string, args ...string) error {
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, m.Executable, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	if m.HeapMb > 0 {
		cmd.Env = append(cmd.Env, fmt.Sprintf("MAVEN_OPTS=-Xmx%dm", m.HeapMb))
	}
	cmd.WaitDelay = 5 * time.Second

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	done := make(chan struct{})
	go func() {
		defer close(done)
		sc := bufio.NewScanner(pr)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			if m.Logger != nil {
				m.Logger.Debug(sc.Text(), "tool", "mvn")
			}
		}
		_, _ = io.Copy(io.Discard, pr)
	}()

	command := m.Executable + " " + strings.Join(args, " ")
	if m.Logger != nil {
		m.Logger.Info("Running build tool", "command", command, "dir", dir)
	}

	err := cmd.Run()
	_ = pw.Close()
	<-done

	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return cverrors.New(cverrors.BuildTimeout,
			fmt.Sprintf("%s did not finish within %s", command, m.Timeout), err)
	}
	return cverrors.New(cverrors.BuildFailed, fmt.Sprintf("%s failed", command), err)
}
