package config

import (
	"strings"

	"github.com/dmitrijs2005/gophstore/internal/flagx"
	"github.com/dmitrijs2005/gophstore/internal/timex"
)

// FileConfig is the on-disk shape of the configuration. Durations accept
// either strings such as "24h" or integer nanoseconds. Only fields present
// in the file override the current values.
type FileConfig struct {
	EndpointAddrGRPC *string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	EndpointAddrHTTP *string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	DatabaseDSN      *string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey        *string         `json:"secret_key" yaml:"secret_key"`
	LogLevel         *string         `json:"log_level" yaml:"log_level"`
	CatalogFile      *string         `json:"catalog_file" yaml:"catalog_file"`
	S3RootUser       *string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword   *string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket         *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region         *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint   *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3PresignTTL     *timex.Duration `json:"s3_presign_ttl" yaml:"s3_presign_ttl"`
	GatewayBaseURL   *string         `json:"gateway_base_url" yaml:"gateway_base_url"`
	GatewaySecretKey *string         `json:"gateway_secret_key" yaml:"gateway_secret_key"`
	GatewayTimeout   *timex.Duration `json:"gateway_timeout" yaml:"gateway_timeout"`
	GatewaySimulated *bool           `json:"gateway_simulated" yaml:"gateway_simulated"`
	Currency         *string         `json:"currency" yaml:"currency"`
	DownloadTokenTTL *timex.Duration `json:"download_token_ttl" yaml:"download_token_ttl"`
	RedisAddr        *string         `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword    *string         `json:"redis_password" yaml:"redis_password"`
	RedisDB          *int            `json:"redis_db" yaml:"redis_db"`
	KafkaBrokers     []string        `json:"kafka_brokers" yaml:"kafka_brokers"`
	KafkaTopic       *string         `json:"kafka_topic" yaml:"kafka_topic"`
}

// parseFile overlays values from the file named by -c/-config, if any.
func parseFile(config *Config) error {
	path := flagx.ConfigFileFromArgs()
	if path == "" {
		return nil
	}

	fc := &FileConfig{}
	if err := flagx.DecodeConfigFile(path, fc); err != nil {
		return err
	}

	fc.apply(config)
	return nil
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	setString(&c.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.SecretKey, fc.SecretKey)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.CatalogFile, fc.CatalogFile)
	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&c.GatewayBaseURL, fc.GatewayBaseURL)
	setString(&c.GatewaySecretKey, fc.GatewaySecretKey)
	setString(&c.RedisAddr, fc.RedisAddr)
	setString(&c.RedisPassword, fc.RedisPassword)
	setString(&c.KafkaTopic, fc.KafkaTopic)

	if fc.Currency != nil {
		c.Currency = strings.ToLower(*fc.Currency)
	}
	if fc.S3PresignTTL != nil {
		c.S3PresignTTL = fc.S3PresignTTL.Duration
	}
	if fc.GatewayTimeout != nil {
		c.GatewayTimeout = fc.GatewayTimeout.Duration
	}
	if fc.DownloadTokenTTL != nil {
		c.DownloadTokenTTL = fc.DownloadTokenTTL.Duration
	}
	if fc.GatewaySimulated != nil {
		c.GatewaySimulated = *fc.GatewaySimulated
	}
	if fc.RedisDB != nil {
		c.RedisDB = *fc.RedisDB
	}
	if fc.KafkaBrokers != nil {
		c.KafkaBrokers = fc.KafkaBrokers
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
