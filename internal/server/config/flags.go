package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-l string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN, empty for in-memory storage
//	-s string   JWT HMAC secret key
//	-v string   log level
//	-i string   catalog file (JSON or YAML) imported at startup
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-w string   payment gateway base URL
//	-m          use the in-process simulated gateway (development only)
//	-k string   payment gateway secret key
//	-o int      payment gateway timeout, seconds
//	-y string   settlement currency
//	-t int      download token validity, minutes
//	-r string   Redis address
//	-q string   Kafka brokers, comma separated
//	-n string   Kafka topic for payment notifications
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-l", "-d", "-s", "-v", "-i", "-u", "-p", "-b", "-g", "-e",
		"-w", "-k", "-o", "-m", "-y", "-t", "-r", "-q", "-n",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run the gRPC server")
	fs.StringVar(&config.EndpointAddrHTTP, "l", config.EndpointAddrHTTP, "address and port to run the HTTP server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")
	fs.StringVar(&config.CatalogFile, "i", config.CatalogFile, "catalog file to import at startup")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.GatewayBaseURL, "w", config.GatewayBaseURL, "payment gateway base URL")
	fs.StringVar(&config.GatewaySecretKey, "k", config.GatewaySecretKey, "payment gateway secret key")
	fs.BoolVar(&config.GatewaySimulated, "m", config.GatewaySimulated, "use the simulated payment gateway")
	gatewayTimeout := fs.Int("o", int(config.GatewayTimeout.Seconds()), "payment gateway timeout (in seconds)")
	fs.StringVar(&config.Currency, "y", config.Currency, "settlement currency")

	tokenTTL := fs.Int("t", int(config.DownloadTokenTTL.Minutes()), "download token validity (in minutes)")

	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "Redis address")
	brokers := fs.String("q", strings.Join(config.KafkaBrokers, ","), "Kafka brokers")
	fs.StringVar(&config.KafkaTopic, "n", config.KafkaTopic, "Kafka topic")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.GatewayTimeout = time.Duration(*gatewayTimeout) * time.Second
	config.DownloadTokenTTL = time.Duration(*tokenTTL) * time.Minute
	config.Currency = strings.ToLower(config.Currency)
	config.KafkaBrokers = splitList(*brokers)

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
