package config

import "time"

// IngestorConfig is the root configuration for the ingestion process.
type IngestorConfig struct {
	Database    DBConfig          `yaml:"database"`
	Bus         BusConfig         `yaml:"bus"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Bootstrap   BootstrapConfig   `yaml:"bootstrap"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// DBConfig holds the Postgres connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// BusConfig holds the NATS feed settings.
type BusConfig struct {
	URL              string        `yaml:"url"`
	User             string        `yaml:"user"`
	Password         string        `yaml:"password"`
	OrdersSubject    string        `yaml:"orders_subject"`
	HistoriesSubject string        `yaml:"histories_subject"`
	ReconnectWait    time.Duration `yaml:"reconnect_wait"`
	MaxReconnects    int           `yaml:"max_reconnects"`
}

// IngestConfig holds batch-processor settings. The order feed runs hot and
// flushes at a high threshold; the history feed is sparser and flushes low.
type IngestConfig struct {
	OrdersFlushThreshold    int           `yaml:"orders_flush_threshold"`
	HistoriesFlushThreshold int           `yaml:"histories_flush_threshold"`
	PollInterval            time.Duration `yaml:"poll_interval"`
}

// MaintenanceConfig holds scheduler settings.
type MaintenanceConfig struct {
	SweepInterval   time.Duration `yaml:"sweep_interval"`
	Retention       time.Duration `yaml:"retention"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// BootstrapConfig holds reference-data file paths. Empty paths skip the load.
type BootstrapConfig struct {
	LocationsPath     string `yaml:"locations_path"`
	LocalizationsPath string `yaml:"localizations_path"`
}

// MetricsConfig holds the health/metrics HTTP endpoint settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
