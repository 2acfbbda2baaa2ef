package postgres

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, 10, cfg.MaxConns)
	assert.Equal(t, 2, cfg.MinConns)
	assert.Equal(t, time.Hour, cfg.MaxLifetime)

	cfg = Config{MaxConns: 1, MinConns: 5}.withDefaults()
	assert.Equal(t, 1, cfg.MinConns, "idle pool capped at max")
}

func TestPoolUsage(t *testing.T) {
	assert.Zero(t, poolUsage(sql.DBStats{InUse: 3}))
	assert.InDelta(t, 30.0, poolUsage(sql.DBStats{MaxOpenConnections: 10, InUse: 3}), 0.001)
}
