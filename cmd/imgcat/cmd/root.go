/*
Copyright © 2024 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/apex/log"
	clihander "github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"

	"github.com/termgfx/termimg"
	"github.com/termgfx/termimg/internal/config"
)

var (
	verbose     bool
	detect      bool
	protocol    string
	configPath  string
	timeout     time.Duration
	passthrough string
)

func init() {
	log.SetHandler(clihander.Default)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Enable verbose logging")
	rootCmd.Flags().StringVarP(&protocol, "protocol", "p", "", "Image protocol (auto, kitty, sixel, iterm2, halfblock)")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to a TOML config file")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 0, "HTTP download timeout (e.g. 10s)")
	rootCmd.Flags().StringVar(&passthrough, "tmux", "", "tmux passthrough (off, on, auto)")
	rootCmd.Flags().BoolVar(&detect, "detect", false, "Print the auto-detected protocol and exit")
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "imgcat [flags] <path-or-url>",
	Short:         "Display images in your terminal.",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}

		if detect {
			return printDetected(cmd.OutOrStdout(), termimg.OSEnvironment{})
		}
		if len(args) != 1 {
			return errors.New("requires an image path or URL")
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		applyFlags(cfg)

		r := termimg.NewRenderer()
		if err := cfg.Apply(r); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"protocol": cfg.Protocol,
			"timeout":  cfg.Timeout(),
			"tmux":     cfg.TmuxPassthrough,
		}).Debug("rendering")

		return r.Render(cmd.Context(), args[0], cfg.Protocol)
	},
}

// applyFlags lets explicitly set command-line flags override the config file.
func applyFlags(cfg *config.Config) {
	if protocol != "" {
		cfg.Protocol = protocol
	}
	if timeout > 0 {
		cfg.HTTPTimeout = max(int(timeout/time.Second), 1)
	}
	if passthrough != "" {
		cfg.TmuxPassthrough = passthrough
	}
}

func printDetected(w io.Writer, env termimg.Environment) error {
	_, err := fmt.Fprintf(w, "Best protocol: %s\n", termimg.DetectProtocol(env))
	return err
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
