// Package cmd implements the command-line interface.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vplayer/vplayer/color"
	"github.com/vplayer/vplayer/constant"
	"github.com/vplayer/vplayer/icon"
	"github.com/vplayer/vplayer/key"
	"github.com/vplayer/vplayer/log"
	"github.com/vplayer/vplayer/player"
	"github.com/vplayer/vplayer/style"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().StringP("engine", "e", "", "Playback engine to use")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("engine", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return player.AvailableEngines(), cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(viper.BindPFlag(key.PlayingBackend, rootCmd.PersistentFlags().Lookup("engine")))

	rootCmd.Flags().BoolP("loop", "L", false, "Restart the media when it ends")
	lo.Must0(viper.BindPFlag(key.PlayingLoop, rootCmd.Flags().Lookup("loop")))

	rootCmd.Flags().IntP("volume", "V", 0, "Volume from 0 to 100")
	lo.Must0(viper.BindPFlag(key.PlayingVolume, rootCmd.Flags().Lookup("volume")))

	rootCmd.Flags().BoolP("write-history", "H", true, "Remember played media")
	lo.Must0(viper.BindPFlag(key.HistorySave, rootCmd.Flags().Lookup("write-history")))

	rootCmd.Flags().StringP("sub", "s", "", "External subtitle file to load once playback begins")
	rootCmd.Flags().StringP("audio", "a", "", "Audio track to select once playback begins, fuzzy matched by label")
	rootCmd.Flags().BoolP("recent", "r", false, "Open the list of recently played media")
	rootCmd.Flags().BoolP("pick", "p", false, "Pick a recently played media from a prompt")
}

var rootCmd = &cobra.Command{
	Use:   constant.App + " [media...]",
	Short: "A terminal media player driving mpv or ffmpeg",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - A terminal media player driving mpv or ffmpeg"),
	Example: "  " + constant.App + " movie.mkv --sub movie.en.srt\n  " + constant.App + " -e ffmpeg ~/music/*.flac\n  " + constant.App + " --recent",
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		recent := lo.Must(cmd.Flags().GetBool("recent"))
		if lo.Must(cmd.Flags().GetBool("pick")) {
			picked, err := pickRecent()
			handleErr(err)
			args = []string{picked}
		}

		if len(args) == 0 && !recent {
			handleErr(cmd.Help())
			return
		}

		CheckDependencies(viper.GetString(key.PlayingBackend))
		handleErr(play(&playOptions{
			paths:    args,
			subtitle: lo.Must(cmd.Flags().GetString("sub")),
			audio:    lo.Must(cmd.Flags().GetString("audio")),
			recent:   recent,
		}))
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
