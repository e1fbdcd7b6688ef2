package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func Test_parseFile_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("loads from json", func(t *testing.T) {
		path := writeTemp(t, "cfg.json", `{
			"endpoint_addr_grpc": "www.example:9000",
			"database_dsn": "postgres://db",
			"gateway_timeout": "3s",
			"download_token_ttl": 3600000000000,
			"currency": "GBP",
			"redis_db": 2,
			"kafka_brokers": ["k:9092"]
		}`)
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseFile(cfg))

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, 3*time.Second, cfg.GatewayTimeout)
		assert.Equal(t, time.Hour, cfg.DownloadTokenTTL)
		assert.Equal(t, "gbp", cfg.Currency)
		assert.Equal(t, 2, cfg.RedisDB)
		assert.Equal(t, []string{"k:9092"}, cfg.KafkaBrokers)
		assert.Equal(t, ":8080", cfg.EndpointAddrHTTP, "absent keys keep defaults")
	})

	t.Run("loads from yaml", func(t *testing.T) {
		path := writeTemp(t, "cfg.yml", "s3_bucket: books\ns3_presign_ttl: 5m\nkafka_topic: aff\ngateway_simulated: true\n")
		os.Args = []string{"testbin", "-c", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseFile(cfg))

		assert.Equal(t, "books", cfg.S3Bucket)
		assert.Equal(t, 5*time.Minute, cfg.S3PresignTTL)
		assert.Equal(t, "aff", cfg.KafkaTopic)
		assert.True(t, cfg.GatewaySimulated)
	})

	t.Run("no config flag leaves values untouched", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddrGRPC: "defaults:1234", DownloadTokenTTL: 2 * time.Minute}
		require.NoError(t, parseFile(cfg))

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrGRPC)
		assert.Equal(t, 2*time.Minute, cfg.DownloadTokenTTL)
	})

	t.Run("invalid file is an error", func(t *testing.T) {
		path := writeTemp(t, "bad.json", `{ this is not valid json`)
		os.Args = []string{"testbin", "-config", path}

		require.Error(t, parseFile(&Config{}))
	})
}
