package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/marmos91/fshare/internal/logger"
)

// Watcher follows a configuration file and hands every valid revision to a
// callback. Invalid revisions are logged and skipped.
type Watcher struct {
	v        *viper.Viper
	onChange func(*Config)
}

// Watch starts watching configPath (or the default location when empty).
// Only settings that are safe to change at runtime should be applied by
// onChange; the rest take effect on restart.
func Watch(configPath string, onChange func(*Config)) (*Watcher, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	w := &Watcher{v: v, onChange: onChange}
	if !found {
		logger.Debug("No configuration file to watch")
		return w, nil
	}

	v.OnConfigChange(w.handle)
	v.WatchConfig()
	logger.Debug("Watching configuration file", "path", v.ConfigFileUsed())
	return w, nil
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}
	cfg, err := decode(w.v)
	if err != nil {
		logger.Warn("Ignoring invalid configuration change", "path", ev.Name, "error", err)
		return
	}
	logger.Info("Configuration reloaded", "path", ev.Name)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

// ApplyLogLevel is an onChange callback that updates the log level.
func ApplyLogLevel(cfg *Config) {
	if logger.GetLevel().String() != cfg.Logging.Level {
		logger.SetLevel(cfg.Logging.Level)
		logger.Info("Log level changed", "level", cfg.Logging.Level)
	}
}
