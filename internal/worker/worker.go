package worker

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/andresmejia3/backbeat/internal/types"
	"github.com/andresmejia3/backbeat/internal/utils" // Using the SafeCommand wrapper
)

// DefaultScript is the pose estimation script started by NewPoseWorker.
const DefaultScript = "python/pose_worker.py"

// Reply status bytes
const (
	statusOK    byte = 0
	statusError byte = 1
)

// MaxReplySize bounds a single reply. A larger length prefix means the stream
// is out of sync.
const MaxReplySize = 16 << 20

// ErrStreamCorrupt means the reply stream can no longer be framed: a reply was
// cut off mid-read or announced an impossible length. The worker must be
// restarted.
var ErrStreamCorrupt = errors.New("pose worker reply stream out of sync")

// FrameError is a failure confined to one frame: the worker is still alive and
// the next frame may succeed.
type FrameError struct {
	Frame int
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d: %v", e.Frame, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// IsFrameError reports whether err only affects the frame it came from.
func IsFrameError(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe)
}

// PoseWorker drives a python pose estimation process. Frames go in on stdin,
// replies come back on a side pipe so python's own stdout noise never
// corrupts the stream.
type PoseWorker struct {
	ID       int
	Cmd      *utils.SafeCommand
	Stdin    io.WriteCloser
	DataPipe io.ReadCloser
	// Timeout bounds each Estimate call whose context has no deadline. Zero waits forever.
	Timeout time.Duration

	frames int
	// stale counts replies still owed for frames that timed out
	stale int
}

// NewPoseWorker starts the pose script. Extra args are passed to it verbatim.
func NewPoseWorker(id int, script string, args ...string) (*PoseWorker, error) {
	if script == "" {
		script = DefaultScript
	}
	py := utils.NewSafeCommand("python3", append([]string{"-u", script}, args...)...)

	// Create a side-channel pipe (FD 3) for clean data transfer
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}
	// Pass the write-end to the child process. It will appear as FD 3.
	py.Cmd.ExtraFiles = []*os.File{w}

	stdin, err := py.StdinPipe()
	if err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := py.Start(); err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("worker %d failed to start: %w", id, err)
	}

	// Close the write-end in the parent so only the child holds it
	w.Close()

	return &PoseWorker{
		ID:       id,
		Cmd:      py,
		Stdin:    stdin,
		DataPipe: r,
	}, nil
}

// Estimate sends one encoded frame and waits for its keypoints. A deadline on
// ctx bounds the wait when the data pipe supports read deadlines.
//
// Wire format, both directions: [uint32 big-endian length][payload].
// Reply payload: [status byte] followed by a JSON PoseResult (status 0) or a
// JSON ErrorResult (status 1).
func (w *PoseWorker) Estimate(ctx context.Context, frame []byte) ([]types.Keypoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := ctx.Deadline(); !ok && w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}
	idx := w.frames
	w.frames++

	if dl, ok := w.DataPipe.(interface{ SetReadDeadline(time.Time) error }); ok {
		deadline, _ := ctx.Deadline()
		// zero deadline clears any previous one
		_ = dl.SetReadDeadline(deadline)
	}

	payload, err := w.communicate(frame)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) && !errors.Is(err, ErrStreamCorrupt) {
			w.stale++
			return nil, &FrameError{Frame: idx, Err: fmt.Errorf("pose worker timed out: %w", err)}
		}
		return nil, fmt.Errorf("pose worker %d: %w", w.ID, err)
	}
	if len(payload) == 0 {
		return nil, &FrameError{Frame: idx, Err: errors.New("empty reply")}
	}

	switch payload[0] {
	case statusOK:
		var res types.PoseResult
		if err := json.Unmarshal(payload[1:], &res); err != nil {
			return nil, &FrameError{Frame: idx, Err: fmt.Errorf("bad keypoint payload: %w", err)}
		}
		return res.Keypoints, nil
	case statusError:
		var res types.ErrorResult
		if err := json.Unmarshal(payload[1:], &res); err != nil || res.Error == "" {
			res.Error = string(payload[1:])
		}
		return nil, &FrameError{Frame: idx, Err: fmt.Errorf("python worker error: %s", res.Error)}
	default:
		return nil, &FrameError{Frame: idx, Err: fmt.Errorf("unknown reply status %d", payload[0])}
	}
}

func (w *PoseWorker) communicate(data []byte) ([]byte, error) {
	// Protocol: [Length][Data]
	if err := binary.Write(w.Stdin, binary.BigEndian, uint32(len(data))); err != nil {
		return nil, err
	}
	if _, err := w.Stdin.Write(data); err != nil {
		return nil, err
	}

	for w.stale > 0 {
		if _, err := w.readReply(); err != nil {
			return nil, err
		}
		w.stale--
	}
	return w.readReply()
}

func (w *PoseWorker) readReply() ([]byte, error) {
	header := make([]byte, 4)
	if n, err := io.ReadFull(w.DataPipe, header); err != nil {
		if n > 0 {
			return nil, fmt.Errorf("%w: header cut off after %d bytes: %v", ErrStreamCorrupt, n, err)
		}
		return nil, err // the process died (e.g. ModuleNotFoundError on startup)
	}

	respLen := binary.BigEndian.Uint32(header)
	if respLen > MaxReplySize {
		return nil, fmt.Errorf("%w: reply of %d bytes exceeds %d", ErrStreamCorrupt, respLen, MaxReplySize)
	}
	respBody := make([]byte, respLen)
	if n, err := io.ReadFull(w.DataPipe, respBody); err != nil {
		return nil, fmt.Errorf("%w: reply cut off after %d of %d bytes: %v", ErrStreamCorrupt, n, respLen, err)
	}
	return respBody, nil
}

// Close shuts down the pipes and waits for the process to exit.
func (w *PoseWorker) Close() error {
	w.Stdin.Close()
	w.DataPipe.Close()
	if w.Cmd == nil {
		return nil
	}
	return w.Cmd.Wait()
}
