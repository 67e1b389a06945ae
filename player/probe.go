package player

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

type probeStream struct {
	Index             int               `json:"index"`
	CodecType         string            `json:"codec_type"`
	CodecName         string            `json:"codec_name"`
	Width             int               `json:"width"`
	Height            int               `json:"height"`
	SampleAspectRatio string            `json:"sample_aspect_ratio"`
	Tags              map[string]string `json:"tags"`
	Disposition       struct {
		Default int `json:"default"`
	} `json:"disposition"`
}

type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// mediaInfo is what ffprobe reports about a bound file.
type mediaInfo struct {
	path     string
	duration int64
	streams  []probeStream
}

// prober returns ffprobe's JSON description of a file.
type prober func(ctx context.Context, path string) ([]byte, error)

func execProber(binary string) prober {
	return func(ctx context.Context, path string) ([]byte, error) {
		out, err := exec.CommandContext(ctx, binary,
			"-v", "quiet",
			"-print_format", "json",
			"-show_format",
			"-show_streams",
			path,
		).Output()
		if err != nil {
			return nil, fmt.Errorf("ffprobe failed: %w", err)
		}
		return out, nil
	}
}

func parseProbe(path string, data []byte) (*mediaInfo, error) {
	var result probeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &mediaInfo{path: path, duration: -1, streams: result.Streams}
	if sec, err := strconv.ParseFloat(result.Format.Duration, 64); err == nil {
		info.duration = int64(sec * 1000)
	}

	if len(lo.Filter(info.streams, func(s probeStream, _ int) bool {
		return s.CodecType == "video" || s.CodecType == "audio"
	})) == 0 {
		return nil, fmt.Errorf("%s has no audio or video stream", path)
	}
	return info, nil
}

var probeKinds = map[string]TrackKind{
	"video":    Video,
	"audio":    Audio,
	"subtitle": Subtitle,
}

func (m *mediaInfo) streamsOf(kind TrackKind) []probeStream {
	return lo.Filter(m.streams, func(s probeStream, _ int) bool {
		return probeKinds[s.CodecType]&kind != 0
	})
}

// first returns the default stream of a kind, or the first one, or -1.
func (m *mediaInfo) first(kind TrackKind) int {
	streams := m.streamsOf(kind)
	if len(streams) == 0 {
		return -1
	}
	if s, ok := lo.Find(streams, func(s probeStream) bool { return s.Disposition.Default == 1 }); ok {
		return s.Index
	}
	return streams[0].Index
}

func (m *mediaInfo) stream(index int) (probeStream, bool) {
	return lo.Find(m.streams, func(s probeStream) bool { return s.Index == index })
}

// subtitleOrdinal is the position of a stream among the subtitle streams, as the subtitles filter counts.
func (m *mediaInfo) subtitleOrdinal(index int) int {
	return lo.IndexOf(lo.Map(m.streamsOf(Subtitle), func(s probeStream, _ int) int { return s.Index }), index)
}

func (m *mediaInfo) tracks(kind TrackKind) []Track {
	return lo.Map(m.streamsOf(kind), func(s probeStream, _ int) Track {
		return Track{
			ID:    s.Index,
			Kind:  probeKinds[s.CodecType],
			Label: trackLabel(s.Index, s.Tags["title"], s.Tags["language"], s.CodecName),
		}
	})
}

func (m *mediaInfo) pixelAspect() float64 {
	video := m.streamsOf(Video)
	if len(video) == 0 {
		return 1
	}
	return parseRatio(video[0].SampleAspectRatio)
}

// parseRatio parses "num:den", falling back to 1 for missing or degenerate ratios.
func parseRatio(s string) float64 {
	num, den, ok := strings.Cut(s, ":")
	if !ok {
		return 1
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || n <= 0 || d <= 0 {
		return 1
	}
	return n / d
}

// Probe describes the file at path with the ffprobe executable, without
// starting an engine. Default streams are reported as selected.
func Probe(ctx context.Context, ffprobe, path string) (*Media, []Track, error) {
	data, err := execProber(ffprobe)(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	info, err := parseProbe(path, data)
	if err != nil {
		return nil, nil, err
	}

	var tracks []Track
	for _, kind := range Kinds {
		first := info.first(kind)
		for _, t := range info.tracks(kind) {
			t.Selected = t.ID == first
			tracks = append(tracks, t)
		}
	}
	return &Media{Path: path, Duration: info.duration}, tracks, nil
}
