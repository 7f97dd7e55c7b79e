package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"github.com/streamforge/transcoder/internal/config"
	"github.com/streamforge/transcoder/internal/media"
	"github.com/streamforge/transcoder/internal/models"
	"github.com/streamforge/transcoder/pkg/logger"
)

const probeTimeout = 30 * time.Second

var progressPattern = regexp.MustCompile(`time=(\d{2}):(\d{2}):(\d{2})\.(\d+)`)

type ffmpegDriver struct {
	ffmpegPath  string
	ffprobePath string
	logger      logger.Logger
}

// NewFFmpegDriver returns a Driver backed by the ffmpeg and ffprobe binaries
// configured in cfg.FFmpeg.
func NewFFmpegDriver(cfg *config.Config, log logger.Logger) media.Driver {
	return &ffmpegDriver{
		ffmpegPath:  cfg.FFmpeg.FFmpegPath,
		ffprobePath: cfg.FFmpeg.FFprobePath,
		logger:      log,
	}
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type probeFormat struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
}

func (d *ffmpegDriver) Probe(ctx context.Context, inputPath string) (*models.VideoMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.ffprobePath,
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-of", "json",
		inputPath,
	)
	output, err := cmd.Output()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("ffprobe timed out after %s", probeTimeout)
	}
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %v", err)
	}
	return parseProbeOutput(output)
}

func parseProbeOutput(output []byte) (*models.VideoMetadata, error) {
	var probed probeOutput
	if err := json.Unmarshal(output, &probed); err != nil {
		return nil, fmt.Errorf("invalid ffprobe output: %v", err)
	}

	duration, err := strconv.ParseFloat(probed.Format.Duration, 64)
	if err != nil || duration <= 0 {
		return nil, fmt.Errorf("ffprobe output has no usable duration: %q", probed.Format.Duration)
	}

	meta := &models.VideoMetadata{DurationSeconds: duration}
	if bps, err := strconv.Atoi(probed.Format.BitRate); err == nil {
		meta.Bitrate = bps / 1000
	}
	for _, s := range probed.Streams {
		switch s.CodecType {
		case "video":
			if meta.VideoCodec == "" {
				meta.VideoCodec = s.CodecName
				meta.Width = s.Width
				meta.Height = s.Height
			}
		case "audio":
			if meta.AudioCodec == "" {
				meta.AudioCodec = s.CodecName
			}
		}
	}
	return meta, nil
}

func (d *ffmpegDriver) Encode(ctx context.Context, inputPath, outputPath string, format models.VideoFormat,
	opts models.TranscodeOptions, metadata *models.VideoMetadata, onProgress media.ProgressFunc) error {

	args := buildEncodeArgs(inputPath, outputPath, format, opts)
	d.logger.Infof("ffmpeg command: %s %v", d.ffmpegPath, args)

	cmd := exec.CommandContext(ctx, d.ffmpegPath, args...)

	// ffmpeg writes its progress reports to stderr, terminated by carriage
	// returns rather than newlines; merge both streams and split on either.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		report(onProgress, -1, "Error: "+err.Error())
		return fmt.Errorf("failed to start ffmpeg: %v", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		pw.Close()
	}()

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanMediaLines)
	for scanner.Scan() {
		line := scanner.Text()
		if current, ok := parseProgressTime(line); ok && metadata.DurationSeconds > 0 {
			percent := int(current / metadata.DurationSeconds * 100)
			if percent < 0 {
				percent = 0
			}
			if percent > 100 {
				percent = 100
			}
			report(onProgress, percent, "Transcoding "+format.Name)
		}
		d.logger.Debugf("ffmpeg: %s", line)
	}
	// Keep consuming the pipe after a scan error so the subprocess never
	// blocks on a full write buffer.
	io.Copy(io.Discard, pr)

	err := <-waitErr
	if ctx.Err() != nil {
		report(onProgress, -1, "Error: encode interrupted")
		return fmt.Errorf("encode interrupted: %v", ctx.Err())
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			report(onProgress, -1, fmt.Sprintf("Failed: exit code %d", exitErr.ExitCode()))
			return fmt.Errorf("ffmpeg exited with code %d", exitErr.ExitCode())
		}
		report(onProgress, -1, "Error: "+err.Error())
		return fmt.Errorf("ffmpeg failed: %v", err)
	}

	report(onProgress, 100, "Completed "+format.Name)
	return nil
}

// buildEncodeArgs builds the ffmpeg argument list: input, video codec, frame
// size, optional bitrate, two-pass flag, CRF and frame rate, the audio block
// (defaulting to aac at 128k), overwrite and the output path, in that order.
func buildEncodeArgs(inputPath, outputPath string, format models.VideoFormat, opts models.TranscodeOptions) []string {
	args := []string{
		"-i", inputPath,
		"-c:v", format.VideoCodec,
		"-s", fmt.Sprintf("%dx%d", format.Width, format.Height),
	}
	if format.Bitrate > 0 {
		args = append(args, "-b:v", fmt.Sprintf("%dk", format.Bitrate))
	}
	if opts.TwoPass {
		args = append(args, "-pass", "1")
	}
	if opts.CRF > 0 {
		args = append(args, "-crf", strconv.Itoa(opts.CRF))
	}
	if opts.FrameRate > 0 {
		args = append(args, "-r", strconv.FormatFloat(opts.FrameRate, 'f', -1, 64))
	}
	if opts.AudioCodec != "" {
		args = append(args, "-c:a", opts.AudioCodec)
		if opts.AudioBitrate > 0 {
			args = append(args, "-b:a", fmt.Sprintf("%dk", opts.AudioBitrate))
		}
	} else {
		args = append(args, "-c:a", "aac", "-b:a", "128k")
	}
	return append(args, "-y", outputPath)
}

// scanMediaLines is a bufio.SplitFunc treating both CR and LF as line
// terminators.
func scanMediaLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// parseProgressTime extracts the current position in seconds from an ffmpeg
// progress line containing time=HH:MM:SS.cs.
func parseProgressTime(line string) (float64, bool) {
	m := progressPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	centis, _ := strconv.Atoi(m[4])
	return float64(hours)*3600 + float64(minutes)*60 + float64(seconds) + float64(centis)/100, true
}

func report(onProgress media.ProgressFunc, percent int, message string) {
	if onProgress != nil {
		onProgress(percent, message)
	}
}
