package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// app is the state shared by the subcommands of one root command.
type app struct {
	v          *viper.Viper
	configFile string
	logger     *slog.Logger
	loaded     bool
}

// NewRootCmd builds the gallerykit command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: slog.Default()}
	setDefaults(a.v)

	root := &cobra.Command{
		Use:           "gallerykit",
		Short:         "Gallery block upload server and headless client",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), a.v.GetString("log.level"), a.v.GetString("log.format"))
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "Config file (default: ./gallerykit.yaml or $HOME/.gallerykit/gallerykit.yaml)")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")
	pf.String("log-format", "text", "Log format: text or json")
	_ = a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", pf.Lookup("log-format"))

	root.AddCommand(ServeCmd(a))
	root.AddCommand(UploadCmd(a))
	root.AddCommand(NormalizeCmd(a))
	root.AddCommand(I18nCmd(a))
	root.AddCommand(StorageCmd(a))
	return root
}

// load reads the config file once. A missing default config file is not an
// error; a missing explicit one is.
func (a *app) load() error {
	if a.loaded {
		return nil
	}
	a.loaded = true

	a.v.SetEnvPrefix("GALLERYKIT")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
	} else {
		a.v.SetConfigName("gallerykit")
		a.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(filepath.Join(home, ".gallerykit"))
		}
	}

	if err := a.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// bindFlags binds flags of the running command to config keys. It runs in
// PreRunE so commands sharing a key do not override each other's bindings.
func (a *app) bindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// newLogger returns a slog logger writing to w in the given format.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}
