package repository

// Driver names accepted by the database configuration.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)
