package util

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// VideoInfo is the subset of ffprobe output the lesson writer needs.
type VideoInfo struct {
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Format   string  `json:"format"`
}

// DurationProber looks up the length of a video in whole seconds.
type DurationProber interface {
	ProbeDuration(ctx context.Context, url string) (int, error)
}

// FFProbe asks ffprobe for the duration of a local path or remote URL.
type FFProbe struct {
	Timeout time.Duration
}

func NewFFProbe(timeout time.Duration) *FFProbe {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FFProbe{Timeout: timeout}
}

func (p *FFProbe) ProbeDuration(ctx context.Context, url string) (int, error) {
	timeout := p.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return 0, ctx.Err()
	}
	info, err := GetVideoInfo(url, timeout)
	if err != nil {
		return 0, err
	}
	return int(math.Round(info.Duration)), nil
}

// GetVideoInfo runs ffprobe against a video.
func GetVideoInfo(url string, timeout time.Duration) (*VideoInfo, error) {
	jsonOutput, err := ffmpeg.ProbeWithTimeout(url, timeout, ffmpeg.KwArgs{})
	if err != nil {
		return nil, fmt.Errorf("probe video: %w", err)
	}
	return parseProbeOutput(jsonOutput)
}

func parseProbeOutput(jsonOutput string) (*VideoInfo, error) {
	var result struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
			Width     int    `json:"width"`
			Height    int    `json:"height"`
		} `json:"streams"`
		Format struct {
			Duration   string `json:"duration"`
			FormatName string `json:"format_name"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(jsonOutput), &result); err != nil {
		return nil, fmt.Errorf("decode probe output: %w", err)
	}

	info := &VideoInfo{Format: result.Format.FormatName}
	for _, stream := range result.Streams {
		if stream.CodecType == "video" {
			info.Width = stream.Width
			info.Height = stream.Height
			break
		}
	}

	duration, err := strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil {
		return nil, fmt.Errorf("probe output has no duration: %w", err)
	}
	if duration < 0 {
		duration = 0
	}
	info.Duration = duration
	return info, nil
}
