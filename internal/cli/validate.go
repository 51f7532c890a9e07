package cli

import (
	"fmt"
	"strings"

	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/config"
)

// validateConfig ensures all required configuration values are present
func validateConfig(cfg *config.Config) error {
	var missing []string

	if cfg.Server.Port == 0 {
		missing = append(missing, "server.port")
	}
	if cfg.Server.ShutdownTimeout == 0 {
		missing = append(missing, "server.shutdownTimeout")
	}
	if cfg.Database.Host == "" {
		missing = append(missing, "database.host (or UA_DB_HOST)")
	}
	if cfg.Database.Username == "" {
		missing = append(missing, "database.username (or UA_DB_USERNAME)")
	}
	if cfg.Database.Database == "" {
		missing = append(missing, "database.database (or UA_DB_NAME)")
	}
	if cfg.Database.QueryTimeout == 0 {
		missing = append(missing, "database.queryTimeout")
	}
	if cfg.Logger.Level == "" {
		missing = append(missing, "logger.level")
	}

	switch cfg.Environment {
	case config.Development, config.Production, config.Test:
	default:
		return fmt.Errorf("invalid environment value: %s, must be one of: %s, %s, or %s",
			cfg.Environment, config.Development, config.Production, config.Test)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configurations: %s", strings.Join(missing, ", "))
	}

	if _, err := allocationDefaults(cfg.Allocation); err != nil {
		return err
	}

	if cfg.Environment == config.Production {
		switch strings.ToLower(cfg.Database.SSLMode) {
		case "require", "verify-ca", "verify-full":
		default:
			return fmt.Errorf("database.sslMode must be require, verify-ca or verify-full in production")
		}
		if len(cfg.AdminIDs) == 0 {
			return fmt.Errorf("adminIds must name at least one administrator in production")
		}
	}
	return nil
}
