package monitor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/andresmejia3/backbeat/internal/types"
	"github.com/andresmejia3/backbeat/internal/utils"
)

const megabyte = 1024 * 1024

// Capture reads JPEG frames from an ffmpeg process.
type Capture struct {
	cmd     *exec.Cmd
	stderr  *bytes.Buffer
	out     io.ReadCloser
	scanner *bufio.Scanner
	stop    func() bool
	index   int

	closeOnce sync.Once
	waitOnce  sync.Once
	waitErr   error
}

// NewCapture starts ffmpeg for src. The process is killed when ctx is done or
// Close is called.
func NewCapture(ctx context.Context, src utils.Source) (*Capture, error) {
	ffmpeg := utils.NewFFmpegCmd(src)

	var stderrBuf bytes.Buffer
	ffmpeg.Stderr = &stderrBuf

	out, err := ffmpeg.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create FFmpeg stdout pipe: %w", err)
	}
	if err := ffmpeg.Start(); err != nil {
		return nil, fmt.Errorf("failed to start FFmpeg: %w", err)
	}

	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, megabyte), 64*megabyte)
	scanner.Split(utils.SplitJpeg)

	c := &Capture{cmd: ffmpeg, stderr: &stderrBuf, out: out, scanner: scanner}
	c.stop = context.AfterFunc(ctx, func() { c.Close() })
	return c, nil
}

// Next returns the next frame, or io.EOF once the input is exhausted.
func (c *Capture) Next(ctx context.Context) (types.FrameTask, error) {
	if err := ctx.Err(); err != nil {
		return types.FrameTask{}, err
	}
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return types.FrameTask{}, fmt.Errorf("frame scanner failed: %w", err)
		}
		if err := c.wait(); err != nil && ctx.Err() == nil {
			return types.FrameTask{}, fmt.Errorf("ffmpeg exited: %w: %s", err, strings.TrimSpace(c.stderr.String()))
		}
		return types.FrameTask{}, io.EOF
	}

	frame := make([]byte, len(c.scanner.Bytes()))
	copy(frame, c.scanner.Bytes())
	c.index++
	return types.FrameTask{Index: c.index, Data: frame}, nil
}

// Close stops ffmpeg and releases the pipe. It is safe to call more than once.
func (c *Capture) Close() error {
	c.closeOnce.Do(func() {
		if c.stop != nil {
			c.stop()
		}
		if c.cmd.Process != nil {
			c.cmd.Process.Kill()
		}
		c.out.Close()
		c.wait()
	})
	return nil
}

// wait reaps ffmpeg exactly once.
func (c *Capture) wait() error {
	c.waitOnce.Do(func() { c.waitErr = c.cmd.Wait() })
	return c.waitErr
}
