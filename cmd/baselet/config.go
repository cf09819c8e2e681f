package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lucmq/go-baselet/baselet"
	badgerd "github.com/lucmq/go-baselet/driver/db/badger"
	bboltd "github.com/lucmq/go-baselet/driver/db/bbolt"
	diskvd "github.com/lucmq/go-baselet/driver/db/diskv"
	pebbled "github.com/lucmq/go-baselet/driver/db/pebble"
	"github.com/lucmq/go-baselet/driver/encoding/msgpack"
	"github.com/lucmq/go-baselet/sdb"
)

// envPrefix is the prefix of the environment variables read by the CLI,
// e.g. BASELET_PATH or BASELET_CACHE_SIZE.
const envPrefix = "baselet"

// config holds the settings shared by every command. Each value is read
// from a flag, an environment variable, the config file or the default, in
// that order of precedence.
type config struct {
	Path        string
	Backend     string
	Codec       string
	Partition   string
	LogLevel    string
	CacheSize   int64
	SyncWrites  bool
	Concurrency int
	Metrics     bool
}

func addConfigFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (json, yaml or toml)")
	flags.String("path", ".baselet", "path to the store")
	flags.String("backend", "sdb", "storage backend: sdb, bbolt, pebble, badger or diskv")
	flags.String("codec", "json", "bucket serialization format: json, gob or msgpack")
	flags.StringP("partition", "p", "", "partition of the database")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.Int64("cache-size", -1, "sdb read cache size in bytes, -1 for unlimited and 0 to disable")
	flags.Bool("sync-writes", false, "sdb synchronous writes")
	flags.Int("concurrency", baselet.DefaultFetchConcurrency, "maximum concurrent bucket reads")
	flags.Bool("metrics", false, "print sdb metrics to stderr after the command")
}

// loadConfig reads the configuration from .env files, the environment, the
// optional config file and the flags bound to v.
func loadConfig(v *viper.Viper) (config, error) {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := config{
		Path:        v.GetString("path"),
		Backend:     v.GetString("backend"),
		Codec:       v.GetString("codec"),
		Partition:   v.GetString("partition"),
		LogLevel:    v.GetString("log-level"),
		CacheSize:   v.GetInt64("cache-size"),
		SyncWrites:  v.GetBool("sync-writes"),
		Concurrency: v.GetInt("concurrency"),
		Metrics:     v.GetBool("metrics"),
	}
	if cfg.Path == "" {
		return config{}, fmt.Errorf("path is required")
	}
	return cfg, nil
}

func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

func getCodec(name string) (baselet.Codec, error) {
	switch name {
	case "json":
		return baselet.JSONCodec(), nil
	case "gob":
		return baselet.GobCodec(), nil
	case "msgpack":
		return msgpack.NewDefault(), nil
	default:
		return nil, fmt.Errorf("unsupported codec: %s", name)
	}
}

// store is a baselet.Store that must be closed after use.
type store interface {
	baselet.Store
	io.Closer
}

func openStore(cfg config, logger *zap.Logger) (store, error) {
	var (
		s   store
		err error
	)
	switch cfg.Backend {
	case "sdb":
		s, err = sdb.Open(
			cfg.Path,
			sdb.WithCacheSize(cfg.CacheSize),
			sdb.WithSynchronousWrites(cfg.SyncWrites),
			sdb.WithLogger(logger),
		)
	case "bbolt":
		s, err = bboltd.NewDefault(cfg.Path)
	case "pebble":
		s, err = pebbled.NewDefault(cfg.Path)
	case "badger":
		s, err = badgerd.NewDefault(cfg.Path)
	case "diskv":
		s, err = diskvd.NewDefault(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	return s, nil
}
