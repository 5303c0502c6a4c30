package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bytedance/sonic"
)

// maxFrameSize bounds a single message; results with coverage can be large.
const maxFrameSize = 64 << 20

// ErrFrameTooLarge is returned when a frame exceeds maxFrameSize.
var ErrFrameTooLarge = errors.New("protocol frame too large")

// Encoder writes newline-delimited JSON frames. It is safe for concurrent use.
type Encoder struct {
	mu sync.Mutex
	w  io.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes v as one frame.
func (e *Encoder) Encode(v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}

// Decoder reads newline-delimited JSON frames.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReaderSize(r, 64<<10)}
}

// Decode reads the next non-empty frame into v. It returns io.EOF when the
// stream ends cleanly between frames.
func (d *Decoder) Decode(v any) error {
	for {
		line, err := d.readLine()
		if err != nil {
			return err
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		if err := sonic.Unmarshal(line, v); err != nil {
			return fmt.Errorf("unmarshal frame: %w", err)
		}

		return nil
	}
}

func (d *Decoder) readLine() ([]byte, error) {
	var frame []byte

	for {
		chunk, isPrefix, err := d.r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && len(frame) > 0 {
				return nil, io.ErrUnexpectedEOF
			}

			return nil, err
		}

		frame = append(frame, chunk...)
		if len(frame) > maxFrameSize {
			return nil, ErrFrameTooLarge
		}

		if !isPrefix {
			return frame, nil
		}
	}
}
