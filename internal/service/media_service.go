package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ProbeFunc returns ffprobe JSON output for a file path or URL.
type ProbeFunc func(source string) (string, error)

// MediaService reads metadata of course videos.
type MediaService struct {
	Probe   ProbeFunc
	Timeout time.Duration
}

func NewMediaService() *MediaService {
	s := &MediaService{Timeout: 30 * time.Second}
	s.Probe = func(source string) (string, error) {
		return ffmpeg.ProbeWithTimeout(source, s.Timeout, ffmpeg.KwArgs{})
	}
	return s
}

// Duration returns the length of the media at source.
func (s *MediaService) Duration(source string) (time.Duration, error) {
	out, err := s.Probe(source)
	if err != nil {
		return 0, fmt.Errorf("probe media: %w", err)
	}

	var result struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		return 0, fmt.Errorf("parse probe output: %w", err)
	}

	seconds, err := strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil || seconds <= 0 {
		return 0, fmt.Errorf("probe output has no duration")
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// DurationMinutes rounds the media length up to whole minutes.
func (s *MediaService) DurationMinutes(source string) (int, error) {
	d, err := s.Duration(source)
	if err != nil {
		return 0, err
	}
	return int(math.Ceil(d.Minutes())), nil
}
