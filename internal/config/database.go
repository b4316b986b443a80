// internal/config/database.go
package config

import (
	"fmt"
)

// DSN builds the keyword/value connection string for the postgres driver.
// Timestamps are stored and compared in UTC so entitlement windows do not
// shift with the server's locale.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC application_name=recipe-market",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}
