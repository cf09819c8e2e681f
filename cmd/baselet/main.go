// Command baselet manages baselet databases from the shell.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lucmq/go-baselet/baselet"
)

var exitOnError = true

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		if exitOnError {
			os.Exit(1)
		}
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	a := &app{v: viper.New()}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

// app is the state shared by the commands of one invocation.
type app struct {
	v      *viper.Viper
	cfg    config
	logger *zap.Logger
	store  store
	opts   []baselet.Option
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "baselet",
		Short: "manage baselet databases",
		Long: `baselet manages count, hash and range databases kept as
bucket files in a store.`,
		SilenceErrors:      true,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.report,
	}
	addConfigFlags(root)
	_ = a.v.BindPFlags(root.PersistentFlags())

	root.AddCommand(
		newCreateCmd(a),
		newInfoCmd(a),
		newDumpCmd(a),
		newCountCmd(a),
		newHashCmd(a),
		newRangeCmd(a),
	)
	return root
}

// setup loads the configuration and opens the store before a command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.logger, err = newLogger(cfg.LogLevel, cmd.ErrOrStderr()); err != nil {
		return err
	}
	codec, err := getCodec(cfg.Codec)
	if err != nil {
		return fmt.Errorf("get codec: %w", err)
	}
	if a.store, err = openStore(cfg, a.logger); err != nil {
		return err
	}
	a.opts = []baselet.Option{
		baselet.WithCodec(codec),
		baselet.WithLogger(a.logger),
		baselet.WithFetchConcurrency(cfg.Concurrency),
	}
	a.logger.Debug("store opened",
		zap.String("backend", cfg.Backend), zap.String("path", cfg.Path))
	return nil
}

// report writes the store metrics, if requested and supported.
func (a *app) report(cmd *cobra.Command, _ []string) error {
	if !a.cfg.Metrics {
		return nil
	}
	m, ok := a.store.(interface{ WriteMetrics(w io.Writer) })
	if !ok {
		return fmt.Errorf("the %s backend has no metrics", a.cfg.Backend)
	}
	m.WriteMetrics(cmd.ErrOrStderr())
	return nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error("close store", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
