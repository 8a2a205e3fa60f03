package pyhost

import (
	"bufio"
	"encoding/binary"
	_ "embed"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sys/unix"
)

//go:embed script.py
var scriptSource []byte

// Host manages one nested python3 subprocess and the framed msgpack
// protocol over its stdin/stdout. One Host exists per kernel process and
// is reused across every cell execution in that session, since the
// host's globals dict IS the persistent namespace the kernel mirrors into
// its own Namespace.
//
// Grounded on the teacher's cmd/server/main.go process-lifecycle pattern
// (explicit Setpgid so a killed parent takes the child with it), adapted
// from "one process group per server" to "one process group per nested
// interpreter".
type Host struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	dead   bool
}

// Launch writes the embedded script to a temp file and starts python3
// against it in its own process group, so that Close can signal the
// interpreter together with any children it forked. Signals sent to the
// kernel's process group do not reach it.
func Launch(pythonBin string) (*Host, error) {
	if pythonBin == "" {
		pythonBin = "python3"
	}

	scriptPath, err := writeScriptTemp()
	if err != nil {
		return nil, fmt.Errorf("pyhost: writing embedded script: %w", err)
	}

	cmd := exec.Command(pythonBin, scriptPath)
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("pyhost: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("pyhost: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("pyhost: starting %s: %w", pythonBin, err)
	}

	return &Host{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}, nil
}

func writeScriptTemp() (string, error) {
	f, err := os.CreateTemp("", "cellgraph-pyhost-*.py")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(scriptSource); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// Exec sends one code fragment and blocks for its Response. Not safe to
// call concurrently with itself — the kernel's single-threaded
// request-processing loop (spec §6.5 "kernel is a single-threaded
// blocking loop") is what guarantees that, so Host does not add its own
// queue.
func (h *Host) Exec(code string) (Response, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.dead {
		return Response{}, fmt.Errorf("pyhost: process is dead")
	}

	payload, err := msgpack.Marshal(Request{Code: code})
	if err != nil {
		return Response{}, fmt.Errorf("pyhost: encoding request: %w", err)
	}
	if err := writeFrame(h.stdin, payload); err != nil {
		h.dead = true
		return Response{}, fmt.Errorf("pyhost: writing frame: %w", err)
	}

	frame, err := readFrame(h.stdout)
	if err != nil {
		h.dead = true
		return Response{}, fmt.Errorf("pyhost: reading frame: %w", err)
	}

	var resp Response
	if err := msgpack.Unmarshal(frame, &resp); err != nil {
		return Response{}, fmt.Errorf("pyhost: decoding response: %w", err)
	}
	return resp, nil
}

// Alive reports whether the subprocess is still believed to be running.
func (h *Host) Alive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.dead
}

// Close terminates the subprocess and its process group.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dead = true
	_ = h.stdin.Close()
	if h.cmd.Process == nil {
		return nil
	}
	_ = unix.Kill(-h.cmd.Process.Pid, unix.SIGTERM)
	return h.cmd.Wait()
}

func writeFrame(w io.Writer, payload []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFrame(r *bufio.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header[:])
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
