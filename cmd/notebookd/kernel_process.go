package main

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/smilemakc/cellgraph/internal/ipc"
	"golang.org/x/sys/unix"
)

// kernelProcess spawns the kernel as a re-exec'd child (`notebookd
// -kernel`) running in its own process group, and implements
// coordinator.KernelLink over the two framed pipes wired to its
// stdin/stdout. This is the concrete realization of spec §4.3's "the
// kernel is a separate OS process" for one notebook session.
//
// Grounded on the teacher's cmd/server/main.go process lifecycle
// (flag-driven startup, signal-driven graceful shutdown), extended with
// an explicit process group for the kernel. The kernel's nested pyhost
// subprocess runs in a process group of its own (see pyhost.Launch).
type kernelProcess struct {
	cmd   *exec.Cmd
	reqW  *ipc.Transport
	notiR *ipc.Transport

	mu   sync.Mutex
	dead bool
}

// spawnKernel execs the current binary with -kernel, wiring its stdin to
// the request transport and its stdout to the notification transport.
func spawnKernel(selfPath string, extraArgs ...string) (*kernelProcess, error) {
	args := append([]string{"-kernel"}, extraArgs...)
	cmd := exec.Command(selfPath, args...)
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("notebookd: kernel stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("notebookd: kernel stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("notebookd: starting kernel process: %w", err)
	}

	return &kernelProcess{
		cmd:   cmd,
		reqW:  ipc.NewTransport(stdin, nil),
		notiR: ipc.NewTransport(nil, stdout),
	}, nil
}

func (k *kernelProcess) Send(req ipc.Request) error {
	if err := k.reqW.WriteRequest(req); err != nil {
		k.markDead()
		return err
	}
	return nil
}

func (k *kernelProcess) Recv() (ipc.Notification, error) {
	n, err := k.notiR.ReadNotification()
	if err != nil {
		k.markDead()
		return ipc.Notification{}, err
	}
	return n, nil
}

func (k *kernelProcess) Alive() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.dead {
		return false
	}
	return k.cmd.ProcessState == nil
}

func (k *kernelProcess) markDead() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.dead = true
}

// Kill sends SIGTERM to the kernel's process group and waits for the
// kernel to exit. The nested pyhost subprocess is in a separate process
// group and is not signalled here; it exits when its stdin pipe from the
// kernel reaches EOF.
func (k *kernelProcess) Kill() error {
	k.markDead()
	if k.cmd.Process == nil {
		return nil
	}
	_ = unix.Kill(-k.cmd.Process.Pid, unix.SIGTERM)
	return k.cmd.Wait()
}
