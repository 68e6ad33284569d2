// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nextcloud/go_live_translation/internal/console"
	"github.com/nextcloud/go_live_translation/internal/service"
)

var (
	consoleLogFile string
	consoleAudio   string
	consoleSource  string
	consoleTarget  string
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run a session in the terminal",
	Long: `Run a single translation session in-process. Audio is read from --audio
(default: stdin) and streamed to the recognition service; the live view and
the detail table are shown in a terminal UI.

Examples:
  ffmpeg -f pulse -i default -f webm - | livetranslate console
  livetranslate console --audio meeting.webm --source en --target ja`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsole()
	},
}

func init() {
	consoleCmd.Flags().StringVar(&consoleLogFile, "log-file", "", "write logs to this file instead of discarding them")
	consoleCmd.Flags().StringVar(&consoleAudio, "audio", "", "audio file to stream (default: stdin)")
	consoleCmd.Flags().StringVar(&consoleSource, "source", "", "spoken language (default: LT_SOURCE_LANG)")
	consoleCmd.Flags().StringVar(&consoleTarget, "target", "", "translation language (default: LT_TARGET_LANG)")
}

func runConsole() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logOut := io.Discard
	if consoleLogFile != "" {
		f, err := os.OpenFile(consoleLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	setupLogging(logOut, cfg.LogLevel)

	var audio io.Reader = os.Stdin
	if consoleAudio != "" {
		f, err := os.Open(consoleAudio)
		if err != nil {
			return fmt.Errorf("opening audio: %w", err)
		}
		defer f.Close()
		audio = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	svc := service.NewApplication(cfg)
	defer svc.Shutdown()

	return console.Run(ctx, svc, audio, consoleSource, consoleTarget)
}
