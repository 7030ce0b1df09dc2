package utils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// --- 1. Process Safety & Command Wrapping ---

// SafeCommand wraps a standard exec.Cmd with a buffer to catch Stderr (Python logs)
// so crash information survives a worker dying.
type SafeCommand struct {
	*exec.Cmd
	Stderr *bytes.Buffer
}

// NewSafeCommand initializes a command and attaches a buffer to its Stderr pipe.
// It prepares the command for execution but does not start it.
func NewSafeCommand(name string, args ...string) *SafeCommand {
	cmd := exec.Command(name, args...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	return &SafeCommand{Cmd: cmd, Stderr: stderr}
}

// ShowError prints a formatted error box and dumps Python logs if a SafeCommand is provided.
func ShowError(context string, err error, s *SafeCommand) {
	fmt.Fprintf(os.Stderr, "\n---------------------------------------------------------\n")
	fmt.Fprintf(os.Stderr, "🚨 BACKBEAT ERROR: %s\n", context)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DETAILS: %v\n", err)
	}

	// If we have a SafeCommand and it captured logs, print them.
	if s != nil && s.Stderr.Len() > 0 {
		fmt.Fprintf(os.Stderr, "\nPYTHON CRASH LOGS:\n%s\n", s.Stderr.String())
	}
	fmt.Fprintf(os.Stderr, "---------------------------------------------------------\n")
}

// Die is the unified exit strategy: ShowError, then exit 1.
func Die(context string, err error, s *SafeCommand) {
	ShowError(context, err, s)
	os.Exit(1)
}

// --- 2. Video Engine (shared by live, scan, score and calibrate) ---

var (
	JpegSOI = []byte{0xFF, 0xD8} // Start of Image
	JpegEOI = []byte{0xFF, 0xD9} // End of Image
)

// ffprobeOutput is the subset of `ffprobe -of json` we read.
type ffprobeOutput struct {
	Streams []struct {
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		AvgFrameRate  string `json:"avg_frame_rate"`
		RFrameRate    string `json:"r_frame_rate"`
		NbFrames      string `json:"nb_frames"`
		NbReadPackets string `json:"nb_read_packets"`
	} `json:"streams"`
}

func probe(path string, extra ...string) (ffprobeOutput, error) {
	var res ffprobeOutput
	args := append([]string{"-v", "error", "-select_streams", "v:0"}, extra...)
	args = append(args, "-of", "json", path)
	out, err := exec.Command("ffprobe", args...).Output()
	if err != nil {
		return res, fmt.Errorf("ffprobe failed: %w", err)
	}
	if err := json.Unmarshal(out, &res); err != nil {
		return res, fmt.Errorf("ffprobe JSON parse error: %w", err)
	}
	if len(res.Streams) == 0 {
		return res, fmt.Errorf("no video stream in %s", path)
	}
	return res, nil
}

// GetVideoFPS returns the average frame rate of the first video stream.
func GetVideoFPS(path string) (float64, error) {
	res, err := probe(path, "-show_entries", "stream=avg_frame_rate,r_frame_rate")
	if err != nil {
		return 0, err
	}
	for _, rate := range []string{res.Streams[0].AvgFrameRate, res.Streams[0].RFrameRate} {
		if fps, err := ParseRate(rate); err == nil && fps > 0 {
			return fps, nil
		}
	}
	return 0, fmt.Errorf("no usable frame rate in %q", res.Streams[0].AvgFrameRate)
}

// ParseRate parses an ffprobe rational such as "30000/1001" or a plain number.
func ParseRate(rate string) (float64, error) {
	num, den, found := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, err
	}
	if !found {
		return n, nil
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("zero denominator in %q", rate)
	}
	return n / d, nil
}

// GetVideoDimensions returns the width and height of the first video stream.
func GetVideoDimensions(path string) (int, int, error) {
	res, err := probe(path, "-show_entries", "stream=width,height")
	if err != nil {
		return 0, 0, err
	}
	return res.Streams[0].Width, res.Streams[0].Height, nil
}

// GetTotalFrames uses ffprobe to count frames for the progress bar.
// It returns 0 if the count fails, allowing the scanner to fall back to a spinner.
func GetTotalFrames(path string) int {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  ffprobe not found. Cannot provide a progress bar estimation because of this.\n")
		return 0
	}

	// 1. Fast Path: container metadata. Instant, but may be "N/A" for VFR.
	if res, err := probe(path, "-show_entries", "stream=nb_frames"); err == nil {
		if count, err := strconv.Atoi(res.Streams[0].NbFrames); err == nil && count > 0 {
			return count
		}
	}

	// 2. Slow Path: count packets
	fmt.Fprintf(os.Stderr, "⏳ Metadata missing. Counting frames (this may take a moment)...\n")
	res, err := probe(path, "-count_packets", "-show_entries", "stream=nb_read_packets")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 0
	}
	count, err := strconv.Atoi(res.Streams[0].NbReadPackets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ffprobe integer parse error: %v\n", err)
		return 0
	}
	return count
}

// SplitJpeg is the custom splitter for bufio.Scanner.
// It locates the Start Of Image (FFD8) and End Of Image (FFD9) markers to extract full JPEG frames.
func SplitJpeg(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	start := bytes.Index(data, JpegSOI)
	if start == -1 {
		return 0, nil, nil
	}
	end := bytes.Index(data[start:], JpegEOI)
	if end == -1 {
		return 0, nil, nil
	}
	return start + end + 2, data[start : start+end+2], nil
}

// Source describes what ffmpeg should decode.
type Source struct {
	// Path is a video file, or a camera device when Camera is set
	// (/dev/video0 on Linux, an index such as "0" on macOS).
	Path   string
	Camera bool
	// FrameRate and Width/Height are requested from the camera; zero keeps the device default.
	FrameRate int
	Width     int
	Height    int
	// EveryNth keeps one frame in N (files only); zero or one keeps all.
	EveryNth int
}

// NewFFmpegCmd creates a decoder pipe that writes MJPEG frames to stdout.
func NewFFmpegCmd(src Source) *exec.Cmd {
	// -hide_banner and -loglevel error keep the stderr buffer small
	args := []string{"-hide_banner", "-loglevel", "error"}

	if src.Camera {
		args = append(args, "-f", cameraFormat(runtime.GOOS))
		if src.FrameRate > 0 {
			args = append(args, "-framerate", strconv.Itoa(src.FrameRate))
		}
		if src.Width > 0 && src.Height > 0 {
			args = append(args, "-video_size", fmt.Sprintf("%dx%d", src.Width, src.Height))
		}
	}
	args = append(args, "-i", src.Path)

	if !src.Camera && src.EveryNth > 1 {
		args = append(args, "-vf", fmt.Sprintf(`select=not(mod(n\,%d))`, src.EveryNth), "-fps_mode", "vfr")
	}

	// -vcodec mjpeg ensures we get JPEGs Go can split
	args = append(args, "-f", "image2pipe", "-vcodec", "mjpeg", "-")
	return exec.Command("ffmpeg", args...)
}

func cameraFormat(goos string) string {
	switch goos {
	case "darwin":
		return "avfoundation"
	case "windows":
		return "dshow"
	default:
		return "v4l2"
	}
}

// DefaultCamera returns the usual first camera device for the platform.
func DefaultCamera() string {
	switch runtime.GOOS {
	case "darwin":
		return "0"
	case "windows":
		return "video=Integrated Camera"
	default:
		return "/dev/video0"
	}
}

// SourceID creates a deterministic hash for a video file
// based on its path, size, and modification time.
func SourceID(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	input := fmt.Sprintf("%s-%d-%d", path, info.Size(), info.ModTime().UnixNano())
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:]), nil
}
