package runner

import (
	"bytes"
	"log/slog"
	"sync"
)

// outputLog forwards subprocess output line by line to the debug log and
// keeps the most recent bytes for crash reports.
type outputLog struct {
	mu      sync.Mutex
	runner  string
	sandbox string
	pid     int
	partial []byte
	tail    []byte
	limit   int
}

func newOutputLog(runner string, sandbox string, limit int) *outputLog {
	return &outputLog{runner: runner, sandbox: sandbox, limit: limit}
}

// setPID tags lines forwarded from now on with the subprocess id.
func (o *outputLog) setPID(pid int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.pid = pid
}

func (o *outputLog) Write(b []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.tail = append(o.tail, b...)
	if len(o.tail) > o.limit {
		o.tail = o.tail[len(o.tail)-o.limit:]
	}

	o.partial = append(o.partial, b...)
	for {
		i := bytes.IndexByte(o.partial, '\n')
		if i < 0 {
			break
		}

		slog.Debug("Test runner output",
			"runner", o.runner,
			"sandbox", o.sandbox,
			"pid", o.pid,
			"line", string(bytes.TrimRight(o.partial[:i], "\r")),
		)
		o.partial = o.partial[i+1:]
	}

	return len(b), nil
}

// Tail returns the retained output.
func (o *outputLog) Tail() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return string(bytes.TrimSpace(o.tail))
}
