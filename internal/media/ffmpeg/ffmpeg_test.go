package ffmpeg

import (
	"bufio"
	"reflect"
	"strings"
	"testing"

	"github.com/streamforge/transcoder/internal/models"
)

func TestBuildEncodeArgsFullOptions(t *testing.T) {
	format := models.VideoFormat{Name: "720p", Width: 1280, Height: 720, VideoCodec: "libx264", Bitrate: 2500}
	opts := models.TranscodeOptions{
		AudioCodec:   "aac",
		AudioBitrate: 128,
		FrameRate:    30,
		TwoPass:      true,
		CRF:          23,
	}

	got := buildEncodeArgs("/in/src.mp4", "/out/v_720p.mp4", format, opts)
	want := []string{
		"-i", "/in/src.mp4",
		"-c:v", "libx264",
		"-s", "1280x720",
		"-b:v", "2500k",
		"-pass", "1",
		"-crf", "23",
		"-r", "30",
		"-c:a", "aac",
		"-b:a", "128k",
		"-y", "/out/v_720p.mp4",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("args mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestBuildEncodeArgsDefaultAudio(t *testing.T) {
	format := models.VideoFormat{Name: "360p", Width: 640, Height: 360, VideoCodec: "libx264"}

	got := buildEncodeArgs("in.avi", "out.mp4", format, models.TranscodeOptions{})
	want := []string{
		"-i", "in.avi",
		"-c:v", "libx264",
		"-s", "640x360",
		"-c:a", "aac",
		"-b:a", "128k",
		"-y", "out.mp4",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("args mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestParseProgressTime(t *testing.T) {
	tests := []struct {
		line string
		want float64
		ok   bool
	}{
		{"frame= 120 fps= 25 time=00:01:30.50 bitrate=1000k", 90.5, true},
		{"frame= 1 fps=0.0 time=01:00:00.00 speed=1x", 3600, true},
		{"size=    1024kB time=00:00:05.25 bitrate= 512k", 5.25, true},
		{"Press [q] to stop, [?] for help", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseProgressTime(tt.line)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseProgressTime(%q) = (%v, %v), want (%v, %v)", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func TestScanMediaLinesSplitsOnCarriageReturn(t *testing.T) {
	// ffmpeg rewrites its progress line in place, separating reports with
	// bare carriage returns; only the final line ends in a newline.
	input := "frame=  250 fps= 25 time=00:00:10.00 bitrate=1000k\r" +
		"frame=  750 fps= 25 time=00:00:30.00 bitrate=1000k\r" +
		"frame= 1250 fps= 25 time=00:00:50.00 bitrate=1000k\n" +
		"video:1024kB audio:128kB\n"

	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(scanMediaLines)

	var times []float64
	for scanner.Scan() {
		if v, ok := parseProgressTime(scanner.Text()); ok {
			times = append(times, v)
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan error: %v", err)
	}
	want := []float64{10, 30, 50}
	if !reflect.DeepEqual(times, want) {
		t.Fatalf("progress times = %v, want %v", times, want)
	}
}

func TestScanMediaLinesTokens(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a\rb\rc", []string{"a", "b", "c"}},
		{"a\nb\n", []string{"a", "b"}},
		{"a\r\nb", []string{"a", "", "b"}},
		{"no terminator", []string{"no terminator"}},
		{"", nil},
	}
	for _, tt := range tests {
		scanner := bufio.NewScanner(strings.NewReader(tt.input))
		scanner.Split(scanMediaLines)
		var got []string
		for scanner.Scan() {
			got = append(got, scanner.Text())
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("tokens(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseProbeOutput(t *testing.T) {
	output := []byte(`{
		"streams": [
			{"codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080},
			{"codec_name": "aac", "codec_type": "audio"}
		],
		"format": {"duration": "120.500000", "bit_rate": "5000000"}
	}`)

	meta, err := parseProbeOutput(output)
	if err != nil {
		t.Fatalf("parseProbeOutput: %v", err)
	}
	if meta.DurationSeconds != 120.5 {
		t.Errorf("duration = %v, want 120.5", meta.DurationSeconds)
	}
	if meta.Width != 1920 || meta.Height != 1080 {
		t.Errorf("dimensions = %dx%d, want 1920x1080", meta.Width, meta.Height)
	}
	if meta.VideoCodec != "h264" || meta.AudioCodec != "aac" {
		t.Errorf("codecs = %s/%s, want h264/aac", meta.VideoCodec, meta.AudioCodec)
	}
	if meta.Bitrate != 5000 {
		t.Errorf("bitrate = %d, want 5000", meta.Bitrate)
	}
}

func TestParseProbeOutputMissingDuration(t *testing.T) {
	if _, err := parseProbeOutput([]byte(`{"streams": [], "format": {}}`)); err == nil {
		t.Fatal("expected error for output without duration")
	}
}

func TestParseProbeOutputInvalidJSON(t *testing.T) {
	if _, err := parseProbeOutput([]byte("Duration: 00:02:00.00")); err == nil {
		t.Fatal("expected error for non-JSON output")
	}
}
