package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/handiism/httphelper/internal/api"
	"github.com/handiism/httphelper/internal/endpoint"
)

func newDownloadCommand(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download [url]",
		Short: "Download a file with progress",
		Long: `Download the demo file, or the given URL, into the downloads
directory while printing progress reported by a response listener.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			ep := api.Download
			if len(args) == 1 {
				ep = &endpoint.Endpoint{
					Name:             "download",
					Path:             args[0],
					ResponseProgress: api.ResponseProgress1,
					Streaming:        true,
				}
			}

			dir := a.settings.DownloadsPath
			if output != "" {
				dir = output
			}

			out := a.out
			stop := make(chan struct{})
			done := make(chan struct{})
			ticker := time.NewTicker(500 * time.Millisecond)
			go func() {
				defer close(done)
				defer ticker.Stop()
				for {
					select {
					case <-stop:
						return
					case <-ticker.C:
						received, total, _, _ := a.manager.GetProgress()
						if total > 0 {
							fmt.Fprintf(out, "  %.2f / %.2f MB (%.0f%%)\n",
								float64(received)/1024/1024, float64(total)/1024/1024, float64(received)*100/float64(total))
						}
					}
				}
			}()

			path, err := a.manager.Download(cmd.Context(), ep, dir)
			close(stop)
			<-done
			if err != nil {
				return err
			}

			received, _, _, _ := a.manager.GetProgress()
			fmt.Fprintf(out, "Complete! %s (%.2f MB)\n", path, float64(received)/1024/1024)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (overrides config)")

	return cmd
}
