package models

import "fmt"

// VideoFormat describes one transcode target: frame size, codec and bitrate.
type VideoFormat struct {
	Name       string `json:"name" validate:"required,lte=64"`
	Width      int    `json:"width" validate:"gte=0"`
	Height     int    `json:"height" validate:"gte=0"`
	VideoCodec string `json:"video_codec"`
	Bitrate    int    `json:"bitrate"`
}

// StandardFormat expands a predefined format name ("1080p", "720p", "480p",
// "360p") into its full tuple. Any other name is an error.
func StandardFormat(name string) (VideoFormat, error) {
	f := VideoFormat{Name: name, VideoCodec: "libx264"}
	switch name {
	case "1080p":
		f.Width, f.Height, f.Bitrate = 1920, 1080, 5000
	case "720p":
		f.Width, f.Height, f.Bitrate = 1280, 720, 2500
	case "480p":
		f.Width, f.Height, f.Bitrate = 854, 480, 1000
	case "360p":
		f.Width, f.Height, f.Bitrate = 640, 360, 750
	default:
		return VideoFormat{}, fmt.Errorf("unknown format: %s", name)
	}
	return f, nil
}
