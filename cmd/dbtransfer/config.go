package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fzseyedi/DatabaseHelper/conn"
	"github.com/fzseyedi/DatabaseHelper/transfer"
)

// ConnConfig describes one server in the config file.
type ConnConfig struct {
	Driver         string `mapstructure:"driver"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Instance       string `mapstructure:"instance"`
	Database       string `mapstructure:"database"`
	IntegratedAuth bool   `mapstructure:"integrated_auth"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	TimeoutSec     int    `mapstructure:"timeout_sec"`
	TrustCert      bool   `mapstructure:"trust_cert"`
}

func (c ConnConfig) Settings() conn.Settings {
	return conn.Settings{
		Driver:          c.Driver,
		Host:            c.Host,
		Port:            c.Port,
		Instance:        c.Instance,
		Database:        c.Database,
		IntegratedAuth:  c.IntegratedAuth,
		User:            c.User,
		Password:        c.Password,
		DialTimeout:     time.Duration(c.TimeoutSec) * time.Second,
		TrustServerCert: c.TrustCert,
	}
}

// Config holds all application configuration.
type Config struct {
	Source ConnConfig `mapstructure:"source"`
	Dest   ConnConfig `mapstructure:"dest"`

	Transfer struct {
		Mode         string `mapstructure:"mode"`  // "table" or "query"
		Table        string `mapstructure:"table"` // table mode
		Query        string `mapstructure:"query"` // query mode
		DestTable    string `mapstructure:"dest_table"`
		Action       string `mapstructure:"action"` // "append" or "replace"
		KeepIdentity bool   `mapstructure:"keep_identity"`
		BatchSize    int    `mapstructure:"batch_size"`
	} `mapstructure:"transfer"`

	// NameStyle transforms destination table/column names: "", "snake"
	// or "lower".
	NameStyle string `mapstructure:"name_style"`

	// PGCopy switches PostgreSQL destinations to the pgx COPY writer.
	PGCopy bool `mapstructure:"pg_copy"`

	PreviewRows int `mapstructure:"preview_rows"`
}

// LoadConfig reads configuration from environment variables and an
// optional dbtransfer.yaml in the working directory.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("source.driver", "sqlserver")
	v.SetDefault("source.port", 1433)
	v.SetDefault("source.timeout_sec", 30)
	v.SetDefault("dest.driver", "sqlserver")
	v.SetDefault("dest.port", 1433)
	v.SetDefault("dest.timeout_sec", 30)
	v.SetDefault("transfer.mode", "table")
	v.SetDefault("transfer.action", "append")
	v.SetDefault("transfer.batch_size", transfer.DefaultBatchSize)
	v.SetDefault("preview_rows", 10)

	v.SetEnvPrefix("DBTRANSFER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("dbtransfer")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Config file is optional.
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

// Validate checks the parts every mode needs; the transfer request
// itself is validated by the engine.
func (c *Config) Validate() error {
	if c.Source.Host == "" {
		return fmt.Errorf("source host is required (set DBTRANSFER_SOURCE_HOST or source.host)")
	}
	if c.Source.Database == "" {
		return fmt.Errorf("source database is required")
	}
	return nil
}

// Request builds the engine request from the config. The destination
// table defaults to the (name-mapped) source table so a plain table copy
// needs no extra setting, but what lands in the request is explicit.
func (c *Config) Request(destTable string) transfer.Request {
	return transfer.Request{
		SourceDatabase: c.Source.Database,
		Mode:           transfer.Mode(c.Transfer.Mode),
		SourceTable:    c.Transfer.Table,
		SourceQuery:    c.Transfer.Query,
		DestDatabase:   c.Dest.Database,
		DestTable:      destTable,
		Action:         transfer.Action(c.Transfer.Action),
		KeepIdentity:   c.Transfer.KeepIdentity,
		BatchSize:      c.Transfer.BatchSize,
	}
}
