package pgutil

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsafe/billing-bridge/pkg/config"
)

func TestConnectWithRetry_GivesUp(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := &config.DatabaseConfig{
		Host:     "127.0.0.1",
		Port:     port,
		User:     testDBUser,
		Password: testDBPassword,
		Database: testDBName,
		SSLMode:  "disable",
	}

	db, err := connectWithRetry(cfg, 3, time.Millisecond)
	assert.Nil(t, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gave up after 3 attempts")
	assert.Contains(t, err.Error(), testDBName)
}
