// Package config defines the explicit configuration record threaded
// through every constructor in cmd/rosidctl, loaded via spf13/viper with
// spf13/cobra flag binding. There are no package-level config globals:
// Load returns a value that callers pass around.
package config

import (
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the fully resolved configuration for one rosidctl process.
type Config struct {
	Root        string        // filesystem root under which every partition's resources live
	Partition   string        // default partition name used when a command omits --partition
	Async       bool          // if true, cache regeneration runs off the write path and the stream topology maintains containment/inbound references; if false, the cache is regenerated inline and no containment/inbound maintenance runs
	LockTimeout time.Duration // how long Write/Purge wait to acquire a resource's lock before failing

	RedisURL         string        // backs both the lock store and the pub/sub transport
	WindowDelay      time.Duration // coalescing delay before a pending recache is flushed
	WindowCapacity   int           // maximum resources held pending in one coalescing window
	CacheBackend     string        // "bolt" is the only backend currently implemented

	LogLevel  string
	LogFormat string
}

// defaults mirrors the zero-config behavior: a local single-process
// deployment against ./data, synchronous writes, no Redis.
func defaults() Config {
	return Config{
		Root:           "./data",
		Partition:      "repository",
		Async:          false,
		LockTimeout:    10 * time.Second,
		WindowDelay:    5 * time.Second,
		WindowCapacity: 1000,
		CacheBackend:   "bolt",
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// BindFlags registers the persistent flags rosidctl's root command exposes
// and binds each to its viper key, so the precedence is flags > env > file
// > defaults without any command needing to know about viper directly.
func BindFlags(cmd *cobra.Command) {
	d := defaults()

	flags := cmd.PersistentFlags()
	flags.String("root", d.Root, "filesystem root for resource storage")
	flags.String("partition", d.Partition, "default partition name")
	flags.Bool("async", d.Async, "maintain containment/inbound references and cache regeneration off the write path")
	flags.Duration("lock-timeout", d.LockTimeout, "resource lock acquisition timeout")
	flags.String("redis-url", "", "redis connection URL backing locks and pub/sub")
	flags.Duration("window-delay", d.WindowDelay, "recache coalescing window delay")
	flags.Int("window-capacity", d.WindowCapacity, "recache coalescing window capacity")
	flags.String("cache-backend", d.CacheBackend, "materialized cache backend")
	flags.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	flags.String("log-format", d.LogFormat, "log format: text or json")

	viper.BindPFlag("root", flags.Lookup("root"))
	viper.BindPFlag("partition", flags.Lookup("partition"))
	viper.BindPFlag("async", flags.Lookup("async"))
	viper.BindPFlag("lock.timeout", flags.Lookup("lock-timeout"))
	viper.BindPFlag("redis.url", flags.Lookup("redis-url"))
	viper.BindPFlag("window.delay", flags.Lookup("window-delay"))
	viper.BindPFlag("window.capacity", flags.Lookup("window-capacity"))
	viper.BindPFlag("cache.backend", flags.Lookup("cache-backend"))
	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("log.format", flags.Lookup("log-format"))
}

// InitFile wires viper's config file search: an explicit --config path if
// given, otherwise $HOME/.rosid.yaml then ./.rosid.yaml. Safe to call as a
// cobra.OnInitialize hook; finding no file on the search path is not an
// error, but an explicit path that cannot be read is.
func InitFile(explicit string) error {
	if explicit != "" {
		viper.SetConfigFile(explicit)
	} else {
		home, err := homedir.Dir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".rosid")
	}

	viper.SetEnvPrefix("ROSID")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}
	return nil
}

// Load resolves a Config from viper's current state, which by the time
// this is called already reflects flags > env > file > defaults.
func Load() Config {
	d := defaults()
	return Config{
		Root:           viper.GetString("root"),
		Partition:      viper.GetString("partition"),
		Async:          viper.GetBool("async"),
		LockTimeout:    viperDurationOr("lock.timeout", d.LockTimeout),
		RedisURL:       viper.GetString("redis.url"),
		WindowDelay:    viperDurationOr("window.delay", d.WindowDelay),
		WindowCapacity: viperIntOr("window.capacity", d.WindowCapacity),
		CacheBackend:   viperStringOr("cache.backend", d.CacheBackend),
		LogLevel:       viperStringOr("log.level", d.LogLevel),
		LogFormat:      viperStringOr("log.format", d.LogFormat),
	}
}

func viperStringOr(key, fallback string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}

func viperIntOr(key string, fallback int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return fallback
}

func viperDurationOr(key string, fallback time.Duration) time.Duration {
	if viper.IsSet(key) {
		return viper.GetDuration(key)
	}
	return fallback
}
