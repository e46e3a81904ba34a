// Package config loads gateway configuration from the environment,
// mirroring the option names and defaults of the AS2 reference
// implementation this gateway is modeled on.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every recognised configuration option (spec §6).
type Config struct {
	Host string
	Port int
	URI  string

	SSLCertificate string
	SSLPrivateKey  string

	MDNURL       string
	AsyncMDNWait time.Duration
	MaxRetries   int
	MaxArchDays  int

	LogLevel string
	Debug    bool

	DataDir string
	DBPath  string

	MetricsAddr string
}

// Load reads configuration from an optional .env file and the process
// environment. Env vars always win over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	c := &Config{
		Host:           getenv("AS2HOST", "0.0.0.0"),
		Port:           getenvInt("AS2PORT", 8080),
		URI:            getenv("AS2URI", "/as2/receive"),
		SSLCertificate: os.Getenv("SSLCERTIFICATE"),
		SSLPrivateKey:  os.Getenv("SSLPRIVATEKEY"),
		AsyncMDNWait:   time.Duration(getenvInt("ASYNCMDNWAIT", 30)) * time.Minute,
		MaxRetries:     getenvInt("MAXRETRIES", 30),
		MaxArchDays:    getenvInt("MAXARCHDAYS", 30),
		LogLevel:       getenv("LOGLEVEL", "info"),
		Debug:          os.Getenv("AS2_DEBUG") == "1",
		DataDir:        getenv("DATA_DIR", "./data"),
		DBPath:         getenv("DB_PATH", "./data/as2gw.db"),
		MetricsAddr:    getenv("METRICS_ADDR", "127.0.0.1:9191"),
	}

	protocol := "http"
	if c.SSLCertificate != "" && c.SSLPrivateKey != "" {
		protocol = "https"
	}

	c.MDNURL = getenv("MDNURL", fmt.Sprintf("%s://%s:%d%s", protocol, c.Host, c.Port, c.URI))

	return c, nil
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
