// Root command for the kungfu CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/kungfu/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// app holds the global flag values and the configuration loaded for one
// invocation.
type app struct {
	flagConfigDir string
	flagDataDir   string
	flagURL       string
	flagTitle     string
	flagLogLevel  string

	cfg appConfig
}

// newRootCmd builds the command tree with fresh flag state.
func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "kungfu",
		Short:         "kungfu keeps notes, screenshots, transcriptions and summaries per web page",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			configDir, err := a.resolveConfigDir()
			if err != nil {
				return err
			}

			cfg, err := loadConfig(configDir)
			if err != nil {
				return err
			}
			a.cfg = cfg

			level := a.flagLogLevel
			if level == "" {
				level = cfg.LogLevel
			}
			return setupLogging(cmd.ErrOrStderr(), level)
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageErrorf("%v", err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flagDataDir, "data-dir", "", "data directory (default: platform data dir)")
	pf.StringVar(&a.flagURL, "url", "", "url of the current page")
	pf.StringVar(&a.flagTitle, "title", "", "title of the current page")
	pf.StringVar(&a.flagLogLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		a.versionCmd(),
		a.initCmd(),
		a.notesCmd(),
		a.screenshotsCmd(),
		a.transcribeCmd(),
		a.transcriptionsCmd(),
		a.summariesCmd(),
		a.settingsCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.clearCmd(),
	)
	return root
}

// resolveDataDir returns the data directory following the precedence:
// --data-dir flag > config.yaml data_dir > KUNGFU_DATA_DIR env > default.
func (a *app) resolveDataDir() (string, error) {
	return paths.ResolveDataDir(a.flagDataDir, a.cfg.DataDir)
}

// resolveConfigDir returns the configuration directory following the
// precedence: --config-dir flag > KUNGFU_CONFIG_DIR env > default.
func (a *app) resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(a.flagConfigDir)
}
