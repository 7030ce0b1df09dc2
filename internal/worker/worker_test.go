package worker

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"testing"
	"time"

	"github.com/andresmejia3/backbeat/internal/types"
)

// MockCloser wraps a bytes.Buffer to satisfy io.ReadCloser and io.WriteCloser interfaces.
// This allows us to use in-memory buffers as if they were OS Pipes.
type MockCloser struct {
	*bytes.Buffer
}

func (m *MockCloser) Close() error { return nil }

// reply frames a worker response the way python writes it to FD 3.
func reply(status byte, body string) *MockCloser {
	payload := append([]byte{status}, body...)
	pipe := &MockCloser{Buffer: new(bytes.Buffer)}
	binary.Write(pipe, binary.BigEndian, uint32(len(payload)))
	pipe.Write(payload)
	return pipe
}

func TestEstimate(t *testing.T) {
	stdinMock := &MockCloser{Buffer: new(bytes.Buffer)}
	dataPipeMock := reply(0, `{"keypoints":[
		{"part":"leftShoulder","position":{"x":100.5,"y":98},"score":0.91},
		{"part":"nose","position":{"x":150,"y":40},"score":0.2}
	],"width":640,"height":480}`)

	w := &PoseWorker{ID: 1, Stdin: stdinMock, DataPipe: dataPipeMock}

	inputFrame := []byte{0xFF, 0xD8, 0xBE, 0xEF, 0xFF, 0xD9}
	kps, err := w.Estimate(context.Background(), inputFrame)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	// Verify Go sent the correct data TO Python
	sent := stdinMock.Bytes()
	if len(sent) != 4+len(inputFrame) {
		t.Fatalf("Expected %d bytes sent, got %d", 4+len(inputFrame), len(sent))
	}
	if binary.BigEndian.Uint32(sent[:4]) != uint32(len(inputFrame)) || !bytes.Equal(sent[4:], inputFrame) {
		t.Errorf("Unexpected request bytes %X", sent)
	}

	if len(kps) != 2 {
		t.Fatalf("Expected 2 keypoints, got %d", len(kps))
	}
	if kps[0].Part != types.LeftShoulder || math.Abs(kps[0].Position.X-100.5) > 1e-9 {
		t.Errorf("Unexpected first keypoint %+v", kps[0])
	}
	if math.Abs(kps[1].Confidence-0.2) > 1e-9 {
		t.Errorf("Expected confidence 0.2, got %f", kps[1].Confidence)
	}
}

func TestEstimate_FrameErrors(t *testing.T) {
	tests := []struct {
		name    string
		pipe    *MockCloser
		wantMsg string
	}{
		{
			name:    "Python reports an error",
			pipe:    reply(1, `{"error":"no person detected"}`),
			wantMsg: "frame 0: python worker error: no person detected",
		},
		{
			name:    "Plain text error",
			pipe:    reply(1, "CUDA out of memory"),
			wantMsg: "frame 0: python worker error: CUDA out of memory",
		},
		{
			name: "Malformed keypoint JSON",
			pipe: reply(0, `{"keypoints":[`),
		},
		{
			name: "Unknown status",
			pipe: reply(7, ""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &PoseWorker{ID: 1, Stdin: &MockCloser{Buffer: new(bytes.Buffer)}, DataPipe: tt.pipe}

			_, err := w.Estimate(context.Background(), []byte("frame"))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !IsFrameError(err) {
				t.Errorf("Expected a FrameError, got %T: %v", err, err)
			}
			if tt.wantMsg != "" && err.Error() != tt.wantMsg {
				t.Errorf("Expected error message '%s', got '%v'", tt.wantMsg, err)
			}
		})
	}
}

func TestEstimate_DeadWorkerIsFatal(t *testing.T) {
	// nothing on the data pipe: python exited before replying
	w := &PoseWorker{
		ID:       3,
		Stdin:    &MockCloser{Buffer: new(bytes.Buffer)},
		DataPipe: &MockCloser{Buffer: new(bytes.Buffer)},
	}

	_, err := w.Estimate(context.Background(), []byte("frame"))
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if IsFrameError(err) {
		t.Errorf("A dead worker must not be reported as a per-frame error: %v", err)
	}
	if !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF in chain, got %v", err)
	}
}

func TestEstimate_CancelledContext(t *testing.T) {
	stdin := &MockCloser{Buffer: new(bytes.Buffer)}
	w := &PoseWorker{ID: 1, Stdin: stdin, DataPipe: reply(0, `{"keypoints":[]}`)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := w.Estimate(ctx, []byte("frame")); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if stdin.Len() != 0 {
		t.Error("No frame should be sent once the context is cancelled")
	}
}

func TestEstimate_FrameIndexAdvances(t *testing.T) {
	pipe := reply(1, `{"error":"first"}`)
	second := reply(1, `{"error":"second"}`)
	pipe.Write(second.Bytes())

	w := &PoseWorker{ID: 1, Stdin: &MockCloser{Buffer: new(bytes.Buffer)}, DataPipe: pipe}
	w.Estimate(context.Background(), []byte("a"))
	_, err := w.Estimate(context.Background(), []byte("b"))

	var fe *FrameError
	if !errors.As(err, &fe) || fe.Frame != 1 {
		t.Errorf("Expected FrameError for frame 1, got %v", err)
	}
}

func TestEstimate_SkipsRepliesForTimedOutFrames(t *testing.T) {
	pipe := reply(0, `{"keypoints":[{"part":"nose","position":{"x":1,"y":1},"score":0.9}]}`)
	current := reply(0, `{"keypoints":[{"part":"leftHip","position":{"x":2,"y":2},"score":0.9}]}`)
	pipe.Write(current.Bytes())

	// frame 0 timed out, its reply is still first in the pipe
	w := &PoseWorker{ID: 1, Stdin: &MockCloser{Buffer: new(bytes.Buffer)}, DataPipe: pipe, frames: 1, stale: 1}
	kps, err := w.Estimate(context.Background(), []byte("b"))
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if len(kps) != 1 || kps[0].Part != types.LeftHip {
		t.Errorf("Expected the reply for the current frame, got %+v", kps)
	}
	if w.stale != 0 {
		t.Errorf("stale = %d, want 0", w.stale)
	}
}

// timeoutPipe serves its bytes and then fails every read with a deadline
// error, like an *os.File whose read deadline passed mid-reply.
type timeoutPipe struct {
	data []byte
}

func (p *timeoutPipe) Read(b []byte) (int, error) {
	if len(p.data) == 0 {
		return 0, os.ErrDeadlineExceeded
	}
	n := copy(b, p.data)
	p.data = p.data[n:]
	return n, nil
}

func (p *timeoutPipe) Close() error { return nil }

func (p *timeoutPipe) SetReadDeadline(time.Time) error { return nil }

func TestEstimate_TimeoutBeforeReplyIsPerFrame(t *testing.T) {
	w := &PoseWorker{ID: 1, Stdin: &MockCloser{Buffer: new(bytes.Buffer)}, DataPipe: &timeoutPipe{}}

	_, err := w.Estimate(context.Background(), []byte("frame"))
	if !IsFrameError(err) {
		t.Fatalf("Expected a FrameError, got %v", err)
	}
	if w.stale != 1 {
		t.Errorf("stale = %d, want 1", w.stale)
	}
}

func TestEstimate_TimeoutMidReplyIsFatal(t *testing.T) {
	full := reply(0, `{"keypoints":[]}`).Bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"Inside header", full[:2]},
		{"Inside body", full[:7]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &PoseWorker{ID: 1, Stdin: &MockCloser{Buffer: new(bytes.Buffer)}, DataPipe: &timeoutPipe{data: tt.data}}

			_, err := w.Estimate(context.Background(), []byte("frame"))
			if IsFrameError(err) {
				t.Fatalf("A cut-off reply must end the session, got per-frame %v", err)
			}
			if !errors.Is(err, ErrStreamCorrupt) {
				t.Errorf("Expected ErrStreamCorrupt, got %v", err)
			}
			if w.stale != 0 {
				t.Errorf("stale = %d, want 0", w.stale)
			}
		})
	}
}

func TestEstimate_OversizedReplyIsFatal(t *testing.T) {
	pipe := &MockCloser{Buffer: new(bytes.Buffer)}
	binary.Write(pipe, binary.BigEndian, uint32(math.MaxUint32))
	pipe.Write([]byte("{"))

	w := &PoseWorker{ID: 1, Stdin: &MockCloser{Buffer: new(bytes.Buffer)}, DataPipe: pipe}
	_, err := w.Estimate(context.Background(), []byte("frame"))
	if !errors.Is(err, ErrStreamCorrupt) || IsFrameError(err) {
		t.Errorf("Expected fatal ErrStreamCorrupt, got %v", err)
	}
}
