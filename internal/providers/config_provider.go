package providers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"fbd/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "FBD_LOG_LEVEL")
	viper.BindEnv("baseline.refreshInterval", "FBD_REFRESH_INTERVAL")
	viper.BindEnv("baseline.saveInterval", "FBD_SAVE_INTERVAL")
	viper.BindEnv("ledger.url", "FBD_LEDGER_URL")
	viper.BindEnv("encryption.mode", "FBD_ENCRYPTION_MODE")
	viper.BindEnv("cache.enabled", "FBD_CACHE_ENABLED")
	viper.BindEnv("cache.size", "FBD_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	applyDefaults(&conf)

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "FollowerBaselineDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

func applyDefaults(conf *structures.Config) {
	if conf.Baseline.NotificationWindow == 0 {
		conf.Baseline.NotificationWindow = 7 * 24 * time.Hour
	}
	if conf.Baseline.BackdateOffset == 0 {
		conf.Baseline.BackdateOffset = 30 * 24 * time.Hour
	}
	if conf.Ledger.QueryTimeout == 0 {
		conf.Ledger.QueryTimeout = 5 * time.Second
	}
}
