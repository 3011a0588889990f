package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultDBPort                  = 5432
	DefaultDBSSLMode               = "prefer"
	DefaultMaxConns                = 10
	DefaultMinConns                = 2
	DefaultBusName                 = "market-ingest"
	DefaultReconnectWait           = 2 * time.Second
	DefaultOrdersFlushThreshold    = 1000
	DefaultHistoriesFlushThreshold = 100
	DefaultPollInterval            = 100 * time.Millisecond
	DefaultSweepInterval           = 15 * time.Minute
	DefaultRetention               = 24 * time.Hour
	DefaultRefreshInterval         = 10 * time.Minute
	DefaultMetricsPort             = 9090
	DefaultMetricsPath             = "/metrics"
)

func (c *IngestorConfig) applyDefaults() {
	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Bus defaults
	if c.Bus.ReconnectWait == 0 {
		c.Bus.ReconnectWait = DefaultReconnectWait
	}
	if c.Bus.MaxReconnects == 0 {
		c.Bus.MaxReconnects = -1 // reconnect forever
	}

	// Ingest defaults
	if c.Ingest.OrdersFlushThreshold == 0 {
		c.Ingest.OrdersFlushThreshold = DefaultOrdersFlushThreshold
	}
	if c.Ingest.HistoriesFlushThreshold == 0 {
		c.Ingest.HistoriesFlushThreshold = DefaultHistoriesFlushThreshold
	}
	if c.Ingest.PollInterval == 0 {
		c.Ingest.PollInterval = DefaultPollInterval
	}

	// Maintenance defaults
	if c.Maintenance.SweepInterval == 0 {
		c.Maintenance.SweepInterval = DefaultSweepInterval
	}
	if c.Maintenance.Retention == 0 {
		c.Maintenance.Retention = DefaultRetention
	}
	if c.Maintenance.RefreshInterval == 0 {
		c.Maintenance.RefreshInterval = DefaultRefreshInterval
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
