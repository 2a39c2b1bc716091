package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vitalvas/inboxpost/config"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	envFile    string
	verbose    bool

	// overrides applied on top of the loaded config
	document string
	keyPath  string
	inbox    string
	host     string
	keyID    string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "inboxpost",
		Short:         "Deliver a signed ActivityPub document to an inbox",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDeliver(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to YAML config")
	flags.StringVar(&a.envFile, "env-file", ".env", "path to .env file with INBOXPOST_* variables")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging to the console")
	flags.StringVar(&a.document, "document", "", "document to deliver (overrides config)")
	flags.StringVar(&a.keyPath, "key", "", "PEM private key (overrides config)")
	flags.StringVar(&a.inbox, "inbox", "", "inbox URL (overrides config)")
	flags.StringVar(&a.host, "host", "", "Host header (overrides config)")
	flags.StringVar(&a.keyID, "key-id", "", "keyId URL (overrides config)")

	root.AddCommand(
		newDeliverCmd(a),
		newComposeCmd(a),
		newSignCmd(a),
	)

	return root
}

// setup builds the logger and loads configuration, applying flag
// overrides last.
func (a *app) setup(cmd *cobra.Command) error {
	logger, err := newLogger(a.verbose)
	if err != nil {
		return err
	}

	a.logger = logger

	if err := config.LoadEnvFile(a.envFile); err != nil {
		return fmt.Errorf("env file %s: %w", a.envFile, err)
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	override(&cfg.Document, a.document)
	override(&cfg.Actor.PrivateKey, a.keyPath)
	override(&cfg.Inbox.URL, a.inbox)
	override(&cfg.Inbox.Host, a.host)
	override(&cfg.Actor.KeyID, a.keyID)

	a.cfg = cfg

	a.logger.Debug("configuration loaded",
		zap.String("command", cmd.Name()),
		zap.String("inbox", cfg.Inbox.URL),
		zap.String("key_id", cfg.Actor.KeyID),
		zap.String("document", cfg.Document),
	)

	return nil
}

// newLogger builds a JSON production logger, or a console logger at debug
// level when verbose is set. Both write to stderr.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		zcfg := zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zcfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		zcfg.DisableStacktrace = true

		return zcfg.Build()
	}

	zcfg := zap.NewProductionConfig()
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zcfg.Build()
}
