// Package main is the entry point for vplayer.
package main

import (
	"github.com/samber/lo"
	"github.com/vplayer/vplayer/cmd"
	"github.com/vplayer/vplayer/config"
	"github.com/vplayer/vplayer/internal/cache"
	"github.com/vplayer/vplayer/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	go cache.CollectGarbage()

	cmd.Execute()
}
