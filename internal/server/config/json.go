package config

import (
	"encoding/json"
	"os"

	"github.com/mindmaster/mindmapd/internal/flagx"
	"github.com/mindmaster/mindmapd/internal/timex"
)

// JsonConfig is the DTO for the optional JSON config file. It uses
// timex.Duration so the token validity can be written either as "168h" or as
// integer nanoseconds. Absent fields keep their current value.
type JsonConfig struct {
	EndpointAddr          *string         `json:"endpoint_addr"`
	DatabaseDSN           *string         `json:"database_dsn"`
	SecretKey             *string         `json:"secret_key"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	AdminUsername         *string         `json:"admin_username"`
	AdminPassword         *string         `json:"admin_password"`
}

// parseJson overlays configuration from the JSON file named by -c/-config.
// No flag, no file, no overlay. An unreadable or invalid file panics: a
// present-but-broken config is a deployment error worth failing loudly on.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != nil {
		config.EndpointAddr = *c.EndpointAddr
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.SecretKey != nil {
		config.SecretKey = *c.SecretKey
	}
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.AdminUsername != nil {
		config.AdminUsername = *c.AdminUsername
	}
	if c.AdminPassword != nil {
		config.AdminPassword = *c.AdminPassword
	}
}
