package cmd

import (
	"encoding/json"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vplayer/vplayer/color"
	"github.com/vplayer/vplayer/history"
	"github.com/vplayer/vplayer/style"
	"github.com/vplayer/vplayer/util"
)

func init() {
	rootCmd.AddCommand(recentCmd)
	recentCmd.Flags().IntP("limit", "n", 10, "Maximum number of entries to print")
	recentCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	recentCmd.Flags().Bool("forget", false, "Remove the matched entries from the history")

	recentCmd.SetOut(os.Stdout)
}

// recentCmd prints recently played media, optionally fuzzy filtered.
var recentCmd = &cobra.Command{
	Use:   "recent [query]",
	Short: "List recently played media",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var (
			limit  = lo.Must(cmd.Flags().GetInt("limit"))
			asJson = lo.Must(cmd.Flags().GetBool("json"))
			forget = lo.Must(cmd.Flags().GetBool("forget"))
		)

		var (
			entries []*history.Entry
			err     error
		)
		if len(args) == 1 {
			entries, err = history.Search(args[0])
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
		} else {
			entries, err = history.Recent(limit)
		}
		handleErr(err)

		if forget {
			for _, e := range entries {
				handleErr(history.Remove(e.Path))
			}
			cmd.Printf("forgot %s\n", util.Quantify(len(entries), "entry", "entries"))
			return
		}

		if asJson {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(entries))
			return
		}

		for _, e := range entries {
			cmd.Printf("%s %s\n", style.Fg(color.Yellow)(e.Name), style.Faint(e.PlayedAt.Format(time.DateTime)))
			cmd.Println("  " + e.Path)
		}
	},
}
