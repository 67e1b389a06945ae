package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/vplayer/vplayer/constant"
	"github.com/vplayer/vplayer/icon"
	"github.com/vplayer/vplayer/key"
	"github.com/vplayer/vplayer/player"
	"github.com/vplayer/vplayer/style"
)

// requiredBinaries lists the executables an engine launches.
func requiredBinaries(engine string) []string {
	if engine == player.EngineFFmpeg {
		return []string{
			viper.GetString(key.PlayingFFmpegBinary),
			viper.GetString(key.PlayingFFprobeBinary),
		}
	}
	return []string{viper.GetString(key.PlayingMPVBinary)}
}

// CheckDependencies exits when an executable the engine needs is not in PATH.
func CheckDependencies(engine string) {
	missing := lo.Filter(requiredBinaries(engine), func(binary string, _ int) bool {
		_, err := exec.LookPath(binary)
		return err != nil
	})

	if len(missing) == 0 {
		return
	}

	for _, dep := range missing {
		printMissingDependencyError(dep)
	}
	os.Exit(1)
}

func installCommand(dep string) string {
	pkg := dep
	if dep == "ffprobe" {
		pkg = "ffmpeg"
	}

	switch runtime.GOOS {
	case constant.Darwin:
		return "brew install " + pkg
	case constant.Linux:
		return "sudo apt install " + pkg
	case constant.Windows:
		return "scoop install " + pkg
	}
	return ""
}

func printMissingDependencyError(dep string) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.HiRed).Render(fmt.Sprintf("%s Error: Missing Dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("The required dependency '%s' was not found in your PATH.", dep))

	suggestion := ""
	if cmd := installCommand(dep); cmd != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(cmd))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
