package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type BaselineConfig struct {
	Namespace          string        `yaml:"namespace" validate:"required"`
	StorageDir         string        `yaml:"storageDir" validate:"required|unixPath"`
	NotificationWindow time.Duration `yaml:"notificationWindow"`
	BackdateOffset     time.Duration `yaml:"backdateOffset"`
	RefreshInterval    time.Duration `yaml:"refreshInterval" validate:"required|min:1"`
	SaveInterval       time.Duration `yaml:"saveInterval" validate:"required|min:1"`
}

type LedgerConfig struct {
	URL          string        `yaml:"url" validate:"required|fullUrl"`
	Tag          string        `yaml:"tag" validate:"required"`
	QueryTimeout time.Duration `yaml:"queryTimeout"`
}

type EncryptionConfig struct {
	Mode      string `yaml:"mode" validate:"required|in:local,delegated"`
	KeyFile   string `yaml:"keyFile"`
	SignerURL string `yaml:"signerURL"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName    string
	Debug      bool
	Path       string
	Baseline   BaselineConfig   `yaml:"baseline"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Encryption EncryptionConfig `yaml:"encryption"`
	WebServer  Server           `yaml:"webServer"`
	Logger     LoggerConfig     `yaml:"logger"`
	Cache      CacheConfig      `yaml:"cache"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}
