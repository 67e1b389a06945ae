package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"github.com/vplayer/vplayer/history"
	"github.com/vplayer/vplayer/key"
	"github.com/vplayer/vplayer/log"
	"github.com/vplayer/vplayer/mpris"
	"github.com/vplayer/vplayer/player"
	"github.com/vplayer/vplayer/queue"
	"github.com/vplayer/vplayer/render"
	"github.com/vplayer/vplayer/session"
	"github.com/vplayer/vplayer/tui"
)

type playOptions struct {
	paths    []string
	subtitle string
	audio    string
	recent   bool
}

// play wires an engine, a session and the terminal view together.
func play(options *playOptions) error {
	var frames *render.Memory
	engineOptions := player.OptionsFromConfig(nil)
	if engineOptions.Engine == player.EngineFFmpeg {
		frames = render.NewMemory()
		engineOptions.Provider = frames
	}

	backend, err := player.New(engineOptions)
	if err != nil {
		return err
	}

	q := queue.New()
	q.Set(lo.Map(options.paths, func(p string, _ int) string {
		return lo.Must(filepath.Abs(p))
	}))

	sessionOptions := session.OptionsFromConfig()
	sessionOptions.Queue = q
	if frames != nil {
		sessionOptions.Provider = frames
	}
	if viper.GetBool(key.HistorySave) {
		sessionOptions.Recorder = history.Save
	}

	controller := session.New(backend, sessionOptions)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	go func() {
		if err := controller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("session: %v", err)
		}
	}()

	watchConfig(controller)

	if viper.GetBool(key.MprisEnable) {
		go serveMPRIS(ctx, controller, q)
	}

	if options.subtitle != "" || options.audio != "" {
		go applyOnBegin(ctx, controller, options)
	}

	runErr := tui.Run(&tui.Options{
		Session: controller,
		Queue:   q,
		Frames:  frames,
		Recent:  options.recent,
	})

	cancel()
	return errors.Join(runErr, controller.Close())
}

// watchConfig applies edits of the configuration file to the running session.
func watchConfig(controller *session.Controller) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Infof("config changed: %s", e.Name)
		if loop := viper.GetBool(key.PlayingLoop); loop != controller.Loop() {
			controller.SetLoop(loop)
		}
	})
	viper.WatchConfig()
}

func serveMPRIS(ctx context.Context, controller *session.Controller, q *queue.Queue) {
	skip := func(next func() (string, bool)) func() {
		return func() {
			if path, ok := next(); ok {
				controller.SetMedia(path, false)
				controller.Play()
			}
		}
	}

	err := mpris.Serve(ctx, controller,
		skip(func() (string, bool) { return q.Next().Get() }),
		skip(func() (string, bool) { return q.Prev().Get() }),
	)
	if err != nil {
		log.Warnf("mpris: %v", err)
	}
}

// applyOnBegin loads the subtitle file and picks the audio track of the
// first media that starts playing.
func applyOnBegin(ctx context.Context, controller *session.Controller, options *playOptions) {
	events, cancel := controller.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if _, begun := ev.(session.Begin); !begun {
				continue
			}

			if options.subtitle != "" {
				abs, err := filepath.Abs(options.subtitle)
				if err != nil {
					log.Warnf("subtitle: %v", err)
				} else {
					controller.AddSubtitle(abs)
				}
			}

			if options.audio != "" {
				if track, ok := matchTrack(controller.Tracks(player.Audio), options.audio).Get(); ok {
					controller.SelectTrack(player.Audio, track.ID)
				} else {
					log.Warnf("no audio track matches %q", options.audio)
				}
			}
			return
		}
	}
}

// matchTrack returns the track whose label best matches query.
func matchTrack(tracks []player.Track, query string) mo.Option[player.Track] {
	labels := lo.Map(tracks, func(t player.Track, _ int) string { return t.Label })
	ranks := fuzzy.RankFindFold(query, labels)
	if len(ranks) == 0 {
		return mo.None[player.Track]()
	}
	sort.Sort(ranks)
	return mo.Some(tracks[ranks[0].OriginalIndex])
}

const otherMedia = "Other file..."

// pickRecent asks which recently played media to open.
// Choosing another file prompts for a path starting in the last used directory.
func pickRecent() (string, error) {
	entries, err := history.Recent(20)
	if err != nil {
		return "", err
	}

	options := append(lo.Map(entries, func(e *history.Entry, _ int) string { return e.String() }), otherMedia)
	var index int
	err = survey.AskOne(&survey.Select{
		Message: "Play",
		Options: options,
		Description: func(_ string, i int) string {
			if i >= len(entries) {
				return ""
			}
			return fmt.Sprintf("played %s", entries[i].PlayedAt.Format(time.DateTime))
		},
	}, &index)
	if err != nil {
		return "", err
	}
	if index < len(entries) {
		return entries[index].Path, nil
	}

	var path string
	dir := history.LastDir()
	if dir != "" {
		dir += string(filepath.Separator)
	}
	err = survey.AskOne(&survey.Input{
		Message: "Media path",
		Default: dir,
	}, &path, survey.WithValidator(survey.Required))
	return path, err
}
