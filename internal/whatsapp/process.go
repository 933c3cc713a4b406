package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	psprocess "github.com/shirou/gopsutil/v3/process"
)

// Process is a running bot child.
type Process interface {
	Pid() int
	// Output yields the child's combined stdout and stderr. The reader stays
	// readable after Wait returns so buffered lines are not lost; the consumer
	// closes it when it implements io.Closer.
	Output() io.Reader
	// Wait blocks until the child exits. It is called exactly once.
	Wait() error
	Terminate() error
	Kill() error
	Alive() bool
}

type Launcher interface {
	Launch(ctx context.Context) (Process, error)
}

var _ Launcher = &ExecLauncher{}

// ExecLauncher starts the bot as an OS process in its own process group.
type ExecLauncher struct {
	Args []string
	Dir  string
	Env  []string
}

func (l *ExecLauncher) Launch(ctx context.Context) (Process, error) {
	if len(l.Args) == 0 {
		return nil, errors.New("bot command is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Unbuffered, line oriented output from node.
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("output pipe: %w", err)
	}

	cmd := exec.Command(l.Args[0], l.Args[1:]...)
	cmd.Dir = l.Dir
	cmd.Env = append(os.Environ(), l.Env...)
	cmd.Stdout = w
	cmd.Stderr = w
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		_ = r.Close()
		_ = w.Close()
		return nil, fmt.Errorf("start %q: %w", l.Args[0], err)
	}
	// The child holds its own copy of the write end.
	_ = w.Close()

	return &execProcess{cmd: cmd, out: r}, nil
}

type execProcess struct {
	cmd *exec.Cmd
	out *os.File
}

func (p *execProcess) Pid() int          { return p.cmd.Process.Pid }
func (p *execProcess) Output() io.Reader { return p.out }

func (p *execProcess) Wait() error {
	return p.cmd.Wait()
}

func (p *execProcess) Terminate() error { return terminateGroup(p.cmd.Process) }
func (p *execProcess) Kill() error      { return killGroup(p.cmd.Process) }

func (p *execProcess) Alive() bool {
	ok, err := psprocess.PidExists(int32(p.Pid()))
	if err != nil {
		supervisorLog.Warnf("liveness check for pid %d failed: %v", p.Pid(), err)
		return true
	}
	return ok
}
