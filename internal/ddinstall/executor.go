package ddinstall

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ulikunitz/xz"
)

// Executor runs external commands tied to the run's context. Each command is
// isolated in its own process group so cancellation kills the whole tree.
type Executor struct {
	Context context.Context // The context to use for cancellation
}

func NewExecutor(ctx context.Context) *Executor {
	return &Executor{Context: ctx}
}

// Run executes cmd, wiring default stdio when unset, and kills the command's
// process group when the context is cancelled.
func (e *Executor) Run(cmd *exec.Cmd) error {
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if len(cmd.Env) == 0 {
		cmd.Env = os.Environ()
	}

	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start command: %w", err)
	}
	pgid := cmd.Process.Pid

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-e.Context.Done():
			syscall.Kill(-pgid, syscall.SIGKILL)
		case <-done:
		}
	}()

	if waitErr := cmd.Wait(); waitErr != nil {
		if e.Context.Err() != nil {
			time.Sleep(100 * time.Millisecond)
			return fmt.Errorf("command aborted: %v", e.Context.Err())
		}
		return waitErr
	}
	return nil
}

// runBuild invokes the build tool for the profile, blocking until it exits.
// Output is teed to the terminal and captured into the compressed build log
// under the user's config dir.
func runBuild(cfg *Config, profile BuildProfile, home string, execCtx *Executor) error {
	args := []string{"build"}
	if profile == ProfileRelease {
		args = append(args, "--release")
	}
	if cfg.Jobs > 0 {
		args = append(args, "-j", strconv.Itoa(cfg.Jobs))
	}

	colArrow.Print("-> ")
	cPrintf(colInfo, "%s %s\n", cfg.BuildTool, strings.Join(args, " "))

	var logBuf bytes.Buffer
	cmd := exec.Command(cfg.BuildTool, args...)
	cmd.Stdout = io.MultiWriter(os.Stdout, &logBuf)
	cmd.Stderr = io.MultiWriter(os.Stderr, &logBuf)

	buildErr := execCtx.Run(cmd)

	// Log capture is best effort; a failed write never fails the build.
	if err := writeBuildLog(home, logBuf.Bytes()); err != nil {
		colWarn.Printf("Warning: could not write build log: %v\n", err)
	}

	if buildErr != nil {
		return fmt.Errorf("build failed: %v", buildErr)
	}
	return nil
}

// writeBuildLog saves the captured build output as build.log.xz.
func writeBuildLog(home string, data []byte) error {
	dir := filepath.Join(home, ConfigDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dest, err := os.Create(filepath.Join(dir, BuildLogName))
	if err != nil {
		return err
	}
	defer dest.Close()

	xzWriter, err := xz.NewWriter(dest)
	if err != nil {
		return err
	}
	defer xzWriter.Close()

	_, err = xzWriter.Write(data)
	return err
}
