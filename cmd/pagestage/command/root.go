// Package command implements the pagestage command line interface.
//
// pagestage reads all of stdin into zero-copy staging buffers and
// relays it to stdout. With --exec the capture is handed to a command
// instead: "{}" arguments become a file path to the captured bytes,
// and without a "{}" the command reads them as stdin. Exit statuses
// are stable:
//
//	0  success
//	1  generic failure
//	2  staging-buffer allocation failed
//	3  zero-copy transfer failed
//	4  short capture: input ended before the size the probe promised
//
// A --exec child that exits non-zero passes its own status through.
package command

import (
	"errors"
	"fmt"
	"os"

	"github.com/pagestage/pagestage"
	"github.com/pagestage/pagestage/pkg/config"
	"github.com/pagestage/pagestage/pkg/logger"
	"github.com/pagestage/pagestage/pkg/version"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const name = "pagestage"

var (
	pagesPerBuffer int
	debug          bool
	execMode       bool
)

var RootCmd = &cobra.Command{
	Use:           name + " [--exec -- command [args ...]]",
	Short:         "Relay stdin to stdout through page-aligned zero-copy staging buffers",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if execMode && len(args) == 0 {
			return errors.New("--exec requires a command")
		}
		if !execMode && len(args) > 0 {
			return fmt.Errorf("unexpected argument %q (did you mean --exec?)", args[0])
		}
		return runCollect(args)
	},
}

func init() {
	RootCmd.Flags().IntVarP(&pagesPerBuffer, "pages-per-buffer", "p", 0,
		"staging buffer capacity in pages (overrides the config file)")
	RootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	RootCmd.Flags().BoolVar(&execMode, "exec", false,
		"hand the capture to the given command instead of stdout ({} becomes a file path)")
}

func runCollect(argv []string) error {
	logger.InitLogger(debug)

	settings := config.LoadConfig(config.Files(name))
	if debug {
		settings.Debug = true
	}
	logger.SetDebug(settings.Debug)
	if pagesPerBuffer > 0 {
		settings.PagesPerBuffer = pagesPerBuffer
	}

	log.Debug().
		Str("version", version.Version).
		Int("pages_per_buffer", settings.PagesPerBuffer).
		Msgf("Starting %s...", name)

	opts := pagestage.Options{PagesPerBuffer: settings.PagesPerBuffer}
	var (
		res pagestage.Result
		err error
	)
	if execMode {
		res, err = pagestage.CollectExec(os.Stdin, argv, opts)
	} else {
		res, err = pagestage.Collect(os.Stdin, os.Stdout, opts)
	}
	if err != nil {
		log.Error().Err(err).Msg("Collection failed.")
		return err
	}

	log.Debug().
		Int64("collected", res.Collected).
		Int64("drained", res.Drained).
		Int("buffers", res.Buffers).
		Bool("size_known", res.Hint.Known).
		Msg("Collection complete.")
	return nil
}
