package config

import (
	"flag"
	"os"
	"time"

	"github.com/mindmaster/mindmapd/internal/flagx"
)

// parseFlags overlays Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-d string   PostgreSQL DSN
//	-s string   session token HMAC secret
//	-t int      session token validity, hours
//	-u string   bootstrap admin username
//	-p string   bootstrap admin password
//
// Arguments are filtered to the flags handled here first, so the config
// file flags (-c/-config) pass through untouched.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-u", "-p"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidityHours := fs.Int("t", int(config.TokenValidityDuration.Hours()), "token validity duration (in hours)")

	fs.StringVar(&config.AdminUsername, "u", config.AdminUsername, "bootstrap admin username")
	fs.StringVar(&config.AdminPassword, "p", config.AdminPassword, "bootstrap admin password")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidityHours) * time.Hour
}
