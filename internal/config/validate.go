package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *IngestorConfig) Validate() error {
	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Bus.URL == "" {
		return errors.New("bus.url is required")
	}
	if c.Bus.OrdersSubject == "" && c.Bus.HistoriesSubject == "" {
		return errors.New("at least one of bus.orders_subject, bus.histories_subject is required")
	}

	if c.Ingest.OrdersFlushThreshold < 1 {
		return errors.New("ingest.orders_flush_threshold must be >= 1")
	}
	if c.Ingest.HistoriesFlushThreshold < 1 {
		return errors.New("ingest.histories_flush_threshold must be >= 1")
	}
	if c.Ingest.PollInterval <= 0 {
		return errors.New("ingest.poll_interval must be positive")
	}

	if c.Maintenance.SweepInterval <= 0 {
		return errors.New("maintenance.sweep_interval must be positive")
	}
	if c.Maintenance.Retention <= 0 {
		return errors.New("maintenance.retention must be positive")
	}
	if c.Maintenance.RefreshInterval <= 0 {
		return errors.New("maintenance.refresh_interval must be positive")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
