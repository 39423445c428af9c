package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/handiism/httphelper/internal/config"
	"github.com/handiism/httphelper/internal/helper"
	"github.com/handiism/httphelper/internal/http"
	"github.com/handiism/httphelper/internal/log"
	"github.com/handiism/httphelper/internal/tui"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var configPath, logFile string

	cmd := &cobra.Command{
		Use:           "httphelper-tui",
		Short:         "Interactive origin switching and progress demo",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := config.DefaultSettings()
			if configPath != "" {
				var err error
				settings, err = config.Load(configPath)
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
			}

			// The alternate screen owns stderr, so logs go to a file or nowhere.
			logger := log.Discard()
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
				if err != nil {
					return err
				}
				defer f.Close()

				logCfg := log.FromEnv()
				logCfg.Output = f
				logger = log.New(logCfg)
			}

			h := helper.New(helper.WithLogger(log.WithComponent(logger, "helper")))
			if err := settings.Apply(h); err != nil {
				return err
			}

			hc, err := settings.Builder(h).
				Use(http.LogMiddleware(log.WithComponent(logger, "http"), settings.LogBodyLimit)).
				Build()
			if err != nil {
				return err
			}
			defer hc.CloseIdleConnections()

			return tui.Run(settings, h, http.NewClient(hc))
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (JSON or YAML)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file")

	return cmd
}
