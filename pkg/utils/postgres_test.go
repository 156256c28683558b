package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresPoolDefaults(t *testing.T) {
	c := PostgresPoolConfig{}.withDefaults()
	assert.Equal(t, 8, c.MaxOpenConns)
	assert.Equal(t, 8, c.MaxIdleConns)
	assert.Positive(t, c.PingTimeout)

	c = PostgresPoolConfig{MaxOpenConns: 3}.withDefaults()
	assert.Equal(t, 3, c.MaxOpenConns)
	assert.Equal(t, 3, c.MaxIdleConns)
}

func TestOpenPostgres_RejectsBadDSN(t *testing.T) {
	_, err := OpenPostgres(context.Background(), "postgres://%zz", PostgresPoolConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse postgres dsn")
}
