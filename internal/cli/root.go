// Package cli defines the sleuth command tree. The bare command starts the
// TUI; subcommands cover the same operations for scripts.
package cli

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/aitool/sleuth/internal/app"
	"github.com/aitool/sleuth/internal/config"
	"github.com/aitool/sleuth/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. SLEUTH_API_URL.
const EnvPrefix = "SLEUTH"

// Viper keys. Flags bind to the same keys as their environment variables.
const (
	keyConfig   = "config"
	keyAPIURL   = "api_url"
	keyStrategy = "strategy"
	keyLogLevel = "log_level"
	keyLogFile  = "log_file"
	keyPrefs    = "prefs"
)

type root struct {
	v      *viper.Viper
	cfg    config.Config
	closer io.Closer
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	r := &root{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "sleuth",
		Short: "Upload, parse and browse device logs",
		Long: `sleuth talks to a log upload and inspection backend.

Run without arguments to open the interactive viewer, or use the
subcommands below from scripts.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: r.setup,
		PersistentPostRun: func(*cobra.Command, []string) { r.teardown() },
		RunE:              r.runTUI,
	}

	flags := cmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default "+config.DefaultPath()+")")
	flags.String("api-url", "", "backend base URL")
	flags.String("strategy", "", "log loading strategy: bulk or incremental")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	cmd.Flags().String("prefs", "", "preferences file")

	for key, flag := range map[string]*pflag.Flag{
		keyConfig:   flags.Lookup("config"),
		keyAPIURL:   flags.Lookup("api-url"),
		keyStrategy: flags.Lookup("strategy"),
		keyLogLevel: flags.Lookup("log-level"),
		keyPrefs:    cmd.Flags().Lookup("prefs"),
	} {
		_ = r.v.BindPFlag(key, flag)
	}

	r.v.SetEnvPrefix(EnvPrefix)
	r.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	r.v.AutomaticEnv()

	cmd.AddCommand(
		newFilesCommand(r),
		newParseCommand(r),
		newDeleteCommand(r),
		newLogsCommand(r),
		newUploadCommand(r),
		newPingCommand(r),
		newChatCommand(r),
		newDebugLogCommand(r),
	)
	return cmd
}

// loadConfig reads the config file and applies flag and environment
// overrides on top of it.
func (r *root) loadConfig() (config.Config, error) {
	cfg, err := config.Load(r.v.GetString(keyConfig))
	if err != nil {
		return config.Config{}, err
	}
	if v := strings.TrimSpace(r.v.GetString(keyAPIURL)); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(r.v.GetString(keyStrategy)); v != "" {
		cfg.Viewer.Strategy = strings.ToLower(v)
	}
	if v := strings.TrimSpace(r.v.GetString(keyLogLevel)); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(r.v.GetString(keyLogFile)); v != "" {
		path, err := config.ExpandPath(v)
		if err != nil {
			return config.Config{}, fmt.Errorf("log file: %w", err)
		}
		cfg.LogFile = path
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (r *root) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := r.loadConfig()
	if err != nil {
		return err
	}
	r.cfg = cfg

	closer, err := logging.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	r.closer = closer

	// The TUI owns the terminal, so only subcommands echo warnings to stderr.
	hooks := make(log.LevelHooks)
	if cmd.Root() != cmd {
		hook := logging.NewStderrHook()
		hook.Out = cmd.ErrOrStderr()
		hooks.Add(hook)
	}
	log.StandardLogger().ReplaceHooks(hooks)

	log.WithFields(log.Fields{"command": cmd.Name(), "api_url": cfg.APIURL}).Debug("config loaded")
	return nil
}

func (r *root) teardown() {
	if r.closer != nil {
		_ = r.closer.Close()
		r.closer = nil
	}
}

func (r *root) services() (*app.Services, error) {
	return app.NewServices(r.cfg)
}

func (r *root) runTUI(cmd *cobra.Command, _ []string) error {
	svc, err := r.services()
	if err != nil {
		return err
	}
	return app.Run(cmd.Context(), svc, r.v.GetString(keyPrefs))
}
