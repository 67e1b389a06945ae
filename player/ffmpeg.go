package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/vplayer/vplayer/filesystem"
	"github.com/vplayer/vplayer/log"
	"github.com/vplayer/vplayer/render"
)

const (
	tickInterval = 250 * time.Millisecond
	// externalBase numbers added subtitles apart from container streams
	externalBase = 1000
)

var ffmpegLog = log.For("ffmpeg")

// streamOpener starts a decoder and returns its output. Closing the stream waits for the decoder.
type streamOpener func(ctx context.Context, args []string) (io.ReadCloser, error)

type processStream struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (p *processStream) Close() error {
	_ = p.ReadCloser.Close()
	return p.cmd.Wait()
}

func execOpener(binary string) streamOpener {
	return func(ctx context.Context, args []string) (io.ReadCloser, error) {
		cmd := exec.CommandContext(ctx, binary, args...)
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("stdout pipe: %w", err)
		}
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("start %s: %w", binary, err)
		}
		return &processStream{ReadCloser: stdout, cmd: cmd}, nil
	}
}

// ffPlayback is the engine instance derived from a bound media.
type ffPlayback struct {
	pipe       *pipeline
	paused     bool
	position   int64
	video      int
	audio      int
	subtitle   int
	externals  []Track
	negotiated []render.Plane
}

// pipeline is one run of the decoders from a given offset.
type pipeline struct {
	mu       sync.Mutex
	stopped  bool
	cancel   context.CancelFunc
	done     chan struct{}
	offset   int64
	duration int64
	started  time.Time
}

func (p *pipeline) position() int64 {
	return clampPosition(p.offset+time.Since(p.started).Milliseconds(), p.duration)
}

// emit runs fn unless the pipeline is being stopped, so no event outlives stop.
func (p *pipeline) emit(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.stopped {
		fn()
	}
}

// stop cancels the decoders and waits for every goroutine of the pipeline.
func (p *pipeline) stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.cancel()
	<-p.done
}

// FFmpeg decodes with ffmpeg processes: raw I420 frames go to the frame provider
// and PCM audio to an AudioSink.
type FFmpeg struct {
	args     []string
	open     streamOpener
	probe    prober
	provider render.Provider
	sink     AudioSink

	handler atomic.Pointer[handlerRef]
	media   handles[mediaInfo, ffPlayback]
	volume  atomic.Int32
}

// NewFFmpeg locates ffmpeg and ffprobe and opens the audio output.
func NewFFmpeg(opts Options) (*FFmpeg, error) {
	ffmpegPath, err := exec.LookPath(lo.Ternary(opts.Binary == "", "ffmpeg", opts.Binary))
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found: %w", ErrEngineConstruction, err)
	}
	ffprobePath, err := exec.LookPath(lo.Ternary(opts.Probe == "", "ffprobe", opts.Probe))
	if err != nil {
		return nil, fmt.Errorf("%w: ffprobe not found: %w", ErrEngineConstruction, err)
	}

	sink := opts.Audio
	if sink == nil {
		if sink, err = newOtoSink(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEngineConstruction, err)
		}
	}

	return newFFmpeg(execOpener(ffmpegPath), execProber(ffprobePath), opts.Provider, sink, opts.Arguments), nil
}

func newFFmpeg(open streamOpener, probe prober, provider render.Provider, sink AudioSink, args []string) *FFmpeg {
	f := &FFmpeg{
		args:     args,
		open:     open,
		probe:    probe,
		provider: provider,
		sink:     sink,
	}
	f.handler.Store(&handlerRef{nopHandler{}})
	f.volume.Store(100)
	return f
}

func (f *FFmpeg) Name() string {
	return EngineFFmpeg
}

func (f *FFmpeg) SetHandler(h Handler) {
	if h == nil {
		h = nopHandler{}
	}
	f.handler.Store(&handlerRef{h})
}

func (f *FFmpeg) events() Handler {
	return f.handler.Load().Handler
}

func (f *FFmpeg) SetMedia(path string) mo.Result[*Media] {
	f.Release()

	abs, err := filepath.Abs(path)
	if err != nil {
		return mo.Err[*Media](fmt.Errorf("%w: %w", ErrMediaBind, err))
	}
	if stat, err := filesystem.API().Stat(abs); err != nil {
		return mo.Err[*Media](fmt.Errorf("%w: %w", ErrMediaBind, err))
	} else if stat.IsDir() {
		return mo.Err[*Media](fmt.Errorf("%w: %s is a directory", ErrMediaBind, abs))
	}

	data, err := f.probe(context.Background(), abs)
	if err != nil {
		return mo.Err[*Media](fmt.Errorf("%w: %w", ErrMediaBind, err))
	}
	info, err := parseProbe(abs, data)
	if err != nil {
		return mo.Err[*Media](fmt.Errorf("%w: %w", ErrMediaBind, err))
	}

	f.media.bind(info, &ffPlayback{
		video:    info.first(Video),
		audio:    info.first(Audio),
		subtitle: info.first(Subtitle),
	})
	return mo.Ok(&Media{Path: abs, Duration: info.duration})
}

// with runs fn on the bound pair, or reports ErrNoMedia.
func (f *FFmpeg) with(fn func(info *mediaInfo, pb *ffPlayback) error) error {
	var err error
	if !f.media.with(func(info *mediaInfo, pb *ffPlayback) { err = fn(info, pb) }) {
		return ErrNoMedia
	}
	return err
}

func (f *FFmpeg) Start() error {
	return f.with(func(info *mediaInfo, pb *ffPlayback) error {
		f.halt(pb)
		pb.position = 0
		pb.paused = false
		if f.sink != nil {
			f.sink.Resume()
		}
		return f.run(info, pb, true)
	})
}

func (f *FFmpeg) TogglePause() error {
	return f.with(func(info *mediaInfo, pb *ffPlayback) error {
		switch {
		case pb.pipe != nil:
			f.halt(pb)
			pb.paused = true
			if f.sink != nil {
				f.sink.Pause()
			}
			return nil
		case pb.paused:
			pb.paused = false
			if f.sink != nil {
				f.sink.Resume()
			}
			return f.run(info, pb, false)
		default:
			return nil
		}
	})
}

func (f *FFmpeg) Stop() error {
	return f.with(func(_ *mediaInfo, pb *ffPlayback) error {
		f.halt(pb)
		pb.position = 0
		pb.paused = false
		return nil
	})
}

func (f *FFmpeg) Seek(ms int64) error {
	return f.with(func(info *mediaInfo, pb *ffPlayback) error {
		return f.restartAt(info, pb, ms)
	})
}

// restartAt moves a running or paused playback to ms. A running pipeline is restarted there.
func (f *FFmpeg) restartAt(info *mediaInfo, pb *ffPlayback, ms int64) error {
	running := pb.pipe != nil
	f.halt(pb)
	pb.position = clampPosition(ms, info.duration)
	if !running {
		return nil
	}
	return f.run(info, pb, false)
}

func (f *FFmpeg) SetVolume(v int) error {
	return f.with(func(*mediaInfo, *ffPlayback) error {
		v = lo.Clamp(v, 0, 100)
		f.volume.Store(int32(v))
		if f.sink != nil {
			f.sink.SetVolume(float64(v) / 100)
		}
		return nil
	})
}

func (f *FFmpeg) Volume() int {
	return int(f.volume.Load())
}

func (f *FFmpeg) Time() int64 {
	var ms int64
	f.media.with(func(_ *mediaInfo, pb *ffPlayback) {
		ms = pb.now()
	})
	return ms
}

func (f *FFmpeg) Duration() int64 {
	duration := int64(-1)
	f.media.with(func(info *mediaInfo, _ *ffPlayback) {
		duration = info.duration
	})
	return duration
}

func (f *FFmpeg) Tracks(kind TrackKind) []Track {
	var tracks []Track
	f.media.with(func(info *mediaInfo, pb *ffPlayback) {
		tracks = info.tracks(kind)
		if kind&Subtitle != 0 {
			tracks = append(tracks, pb.externals...)
		}
		for i := range tracks {
			tracks[i].Selected = tracks[i].ID == pb.selected(tracks[i].Kind)
		}
	})
	return tracks
}

func (pb *ffPlayback) selected(kind TrackKind) int {
	switch kind {
	case Video:
		return pb.video
	case Audio:
		return pb.audio
	default:
		return pb.subtitle
	}
}

func (f *FFmpeg) SelectTrack(kind TrackKind, id int) error {
	return f.with(func(info *mediaInfo, pb *ffPlayback) error {
		known := lo.ContainsBy(info.tracks(kind), func(t Track) bool { return t.ID == id })
		if kind == Subtitle {
			known = known || id == DisabledTrack ||
				lo.ContainsBy(pb.externals, func(t Track) bool { return t.ID == id })
		}
		if !known {
			return fmt.Errorf("%w: %s %d", ErrTrackSelection, kind, id)
		}

		switch kind {
		case Video:
			if pb.video != id {
				// streams may differ in size
				pb.negotiated = nil
			}
			pb.video = id
		case Audio:
			pb.audio = id
		case Subtitle:
			pb.subtitle = id
		default:
			return fmt.Errorf("%w: kind %s", ErrTrackSelection, kind)
		}
		return f.restartAt(info, pb, pb.now())
	})
}

func (f *FFmpeg) AddSubtitle(path string) (Track, error) {
	var track Track
	err := f.with(func(info *mediaInfo, pb *ffPlayback) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if _, err := filesystem.API().Stat(abs); err != nil {
			return err
		}

		id := externalBase + len(pb.externals)
		track = Track{
			ID:       id,
			Kind:     Subtitle,
			Label:    filepath.Base(abs),
			External: abs,
			Selected: true,
		}
		pb.externals = append(pb.externals, track)
		pb.subtitle = id
		return f.restartAt(info, pb, pb.now())
	})
	return track, err
}

func (f *FFmpeg) PixelAspect() float64 {
	ratio := 1.0
	f.media.with(func(info *mediaInfo, _ *ffPlayback) {
		ratio = info.pixelAspect()
	})
	return ratio
}

func (f *FFmpeg) Release() {
	f.media.release(func(pb *ffPlayback) {
		f.halt(pb)
	}, nil)
}

// Close releases the media and the audio output. No event is raised after it returns.
func (f *FFmpeg) Close() error {
	f.Release()
	if f.sink != nil {
		return f.sink.Close()
	}
	return nil
}

// now is the current playback position in milliseconds.
func (pb *ffPlayback) now() int64 {
	if pb.pipe == nil {
		return pb.position
	}
	return pb.pipe.position()
}

func clampPosition(ms, duration int64) int64 {
	if duration < 0 {
		return max(ms, 0)
	}
	return lo.Clamp(ms, 0, duration)
}

// halt stops the running pipeline, keeping its position.
func (f *FFmpeg) halt(pb *ffPlayback) {
	if pb.pipe == nil {
		return
	}
	pipe := pb.pipe
	pb.position = pipe.position()
	pb.pipe = nil
	pipe.stop()
	if f.sink != nil {
		f.sink.Reset()
	}
}

// run starts the decoders at pb.position. announce raises decoder-ready on the first output.
func (f *FFmpeg) run(info *mediaInfo, pb *ffPlayback, announce bool) error {
	withVideo := pb.video >= 0 && f.provider != nil
	withAudio := pb.audio >= 0 && f.sink != nil
	if !withVideo && !withAudio {
		return errors.New("nothing to decode")
	}

	if withVideo && pb.negotiated == nil {
		stream, _ := info.stream(pb.video)
		planes, err := f.provider.Negotiate(render.I420, stream.Width, stream.Height)
		if err != nil {
			return fmt.Errorf("negotiate frame format: %w", err)
		}
		pb.negotiated = planes
	}

	ctx, cancel := context.WithCancel(context.Background())
	pipe := &pipeline{
		cancel:   cancel,
		done:     make(chan struct{}),
		offset:   pb.position,
		duration: info.duration,
		started:  time.Now(),
	}

	var streams []io.ReadCloser
	open := func(args []string) (io.ReadCloser, error) {
		s, err := f.open(ctx, args)
		if err != nil {
			cancel()
			for _, opened := range streams {
				_ = opened.Close()
			}
			return nil, err
		}
		streams = append(streams, s)
		return s, nil
	}

	var video, audio io.ReadCloser
	var err error
	if withVideo {
		if video, err = open(f.videoArgs(info, pb)); err != nil {
			return err
		}
	}
	if withAudio {
		if audio, err = open(f.audioArgs(info, pb)); err != nil {
			return err
		}
	}

	h := f.events()
	var once sync.Once
	ready := func() {
		if announce {
			once.Do(h.OnDecoderReady)
		}
	}

	var wg sync.WaitGroup
	if withVideo {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer video.Close()

			_, err := pumpFrames(video, f.provider, frameSize(pb.negotiated), func(first bool) {
				pipe.emit(func() {
					if first {
						ready()
					}
					h.OnFrameReady()
				})
			})
			f.finished(ctx, pipe, "video", err)
		}()
	}

	if withAudio {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer audio.Close()

			src := &firstRead{Reader: audio, once: func() {
				if !withVideo {
					pipe.emit(ready)
				}
			}}
			_, err := io.Copy(f.sink, src)
			if !withVideo {
				f.finished(ctx, pipe, "audio", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ms := pipe.position()
				pipe.emit(func() { h.OnTimeChanged(ms) })
			}
		}
	}()

	go func() {
		wg.Wait()
		close(pipe.done)
	}()

	pb.pipe = pipe
	return nil
}

// finished reports the end of the stream that drives playback.
func (f *FFmpeg) finished(ctx context.Context, pipe *pipeline, stream string, err error) {
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		ffmpegLog.Warnf("%s decoder ended with error: %v", stream, err)
	}
	pipe.emit(f.events().OnEndReached)
}

// firstRead calls once before the first successful read.
type firstRead struct {
	io.Reader
	once func()
	done bool
}

func (r *firstRead) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	if n > 0 && !r.done {
		r.done = true
		r.once()
	}
	return n, err
}

func (f *FFmpeg) inputArgs(info *mediaInfo, offset int64) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin"}
	args = append(args, f.args...)
	if offset > 0 {
		args = append(args, "-ss", seconds(offset))
	}
	return append(args, "-re", "-i", info.path)
}

func (f *FFmpeg) videoArgs(info *mediaInfo, pb *ffPlayback) []string {
	args := f.inputArgs(info, pb.position)
	args = append(args, "-map", fmt.Sprintf("0:%d", pb.video))
	if filter := subtitleFilter(info, pb); filter != "" {
		args = append(args, "-vf", filter)
	}
	return append(args, "-an", "-sn", "-f", "rawvideo", "-pix_fmt", "yuv420p", "-")
}

func (f *FFmpeg) audioArgs(info *mediaInfo, pb *ffPlayback) []string {
	args := f.inputArgs(info, pb.position)
	return append(args,
		"-map", fmt.Sprintf("0:%d", pb.audio),
		"-vn", "-sn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", strconv.Itoa(channelCount),
		"-ar", strconv.Itoa(sampleRate),
		"-",
	)
}

// subtitleFilter burns the selected subtitle into the picture.
// Input seeking resets timestamps, so they are shifted back for the subtitles filter.
func subtitleFilter(info *mediaInfo, pb *ffPlayback) string {
	var source string
	if external, ok := lo.Find(pb.externals, func(t Track) bool { return t.ID == pb.subtitle }); ok {
		source = "filename=" + escapeFilterValue(external.External)
	} else if ordinal := info.subtitleOrdinal(pb.subtitle); ordinal >= 0 {
		source = fmt.Sprintf("filename=%s:si=%d", escapeFilterValue(info.path), ordinal)
	} else {
		return ""
	}

	if pb.position <= 0 {
		return "subtitles=" + source
	}
	shift := seconds(pb.position)
	return fmt.Sprintf("setpts=PTS+%s/TB,subtitles=%s,setpts=PTS-STARTPTS", shift, source)
}

var filterEscaper = strings.NewReplacer(
	`\`, `\\\\`,
	`'`, `\\\'`,
	`:`, `\\:`,
	`,`, `\,`,
	`;`, `\;`,
	`[`, `\[`,
	`]`, `\]`,
)

func escapeFilterValue(s string) string {
	return filterEscaper.Replace(s)
}

func seconds(ms int64) string {
	return strconv.FormatFloat(float64(ms)/1000, 'f', 3, 64)
}
