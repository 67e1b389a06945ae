package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vplayer/vplayer/color"
	"github.com/vplayer/vplayer/key"
	"github.com/vplayer/vplayer/player"
	"github.com/vplayer/vplayer/style"
	"github.com/vplayer/vplayer/util"
)

func init() {
	rootCmd.AddCommand(tracksCmd)
	tracksCmd.Flags().StringP("kind", "k", "", "Only list tracks of this kind (video, audio, subtitle)")
	tracksCmd.Flags().StringP("filter", "f", "", "Fuzzy filter applied to track labels")
	tracksCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	lo.Must0(tracksCmd.RegisterFlagCompletionFunc("kind", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return lo.Map(player.Kinds, func(k player.TrackKind, _ int) string { return k.String() }), cobra.ShellCompDirectiveNoFileComp
	}))

	tracksCmd.SetOut(os.Stdout)
}

type tracksOutput struct {
	Path     string         `json:"path"`
	Duration int64          `json:"duration"`
	Tracks   []player.Track `json:"tracks"`
}

// tracksCmd lists the streams of a media file.
var tracksCmd = &cobra.Command{
	Use:   "tracks <media>",
	Short: "List the video, audio and subtitle tracks of a media file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var (
			kind   = lo.Must(cmd.Flags().GetString("kind"))
			filter = lo.Must(cmd.Flags().GetString("filter"))
			asJson = lo.Must(cmd.Flags().GetBool("json"))
		)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		media, tracks, err := player.Probe(ctx, viper.GetString(key.PlayingFFprobeBinary), args[0])
		handleErr(err)

		if kind != "" {
			if !lo.ContainsBy(player.Kinds, func(k player.TrackKind) bool { return k.String() == kind }) {
				handleErr(fmt.Errorf("unknown track kind %q", kind))
			}
			tracks = lo.Filter(tracks, func(t player.Track, _ int) bool { return t.Kind.String() == kind })
		}

		if filter != "" {
			tracks = lo.Filter(tracks, func(t player.Track, _ int) bool { return fuzzy.MatchFold(filter, t.Label) })
		}

		if asJson {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(tracksOutput{
				Path:     media.Path,
				Duration: media.Duration,
				Tracks:   tracks,
			}))
			return
		}

		cmd.Printf("%s %s\n", style.Bold(media.Path), style.Faint(util.FormatMillis(media.Duration)))
		for _, group := range lo.PartitionBy(tracks, func(t player.Track) player.TrackKind { return t.Kind }) {
			cmd.Println()
			cmd.Println(style.New().Bold(true).Foreground(color.Purple).Render(util.Capitalize(group[0].Kind.String())))
			for _, t := range group {
				marker := " "
				if t.Selected {
					marker = style.Fg(color.Green)("*")
				}
				cmd.Printf(" %s %s\n", marker, t.Label)
			}
		}
	},
}
