package config

import (
	"github.com/vietddude/chargedesk/internal/dashboard"
	"github.com/vietddude/chargedesk/internal/infra/chain/evm"
	redisclient "github.com/vietddude/chargedesk/internal/infra/redis"
	"github.com/vietddude/chargedesk/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig       `yaml:"server"`
	Redis     redisclient.Config `yaml:"redis"`
	Database  postgres.Config    `yaml:"database"`
	Chain     evm.Config         `yaml:"chain"`
	Dashboard dashboard.Config   `yaml:"dashboard"`
	Logging   LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	GRPCPort    int      `yaml:"grpc_port"` // 0 = gRPC health disabled
	CORSOrigins []string `yaml:"cors_origins"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
