// Package provision bootstraps the database dependencies a manifest
// declares. Postgres and MySQL run as throwaway Docker containers; SQLite is
// a plain file. Provisioning is best-effort from the deploy pipeline's point
// of view: the caller logs failures and carries on.
package provision

import (
	"context"
	"fmt"

	"github.com/sparkdeploy/spark/app"
)

// Setup provisions the declared database dependency. Unsupported types are
// an error so the caller can log them.
func Setup(ctx context.Context, db *app.DatabaseSection, appDir string) error {
	switch db.Kind() {
	case app.DatabasePostgres:
		return setupPostgres(ctx, db, appDir)
	case app.DatabaseMySQL:
		return setupMySQL(ctx, db, appDir)
	case app.DatabaseSQLite:
		return setupSQLite(db, appDir)
	case app.DatabaseUnknown:
		return fmt.Errorf("unsupported database type: %s", db.Type)
	}
	return fmt.Errorf("unsupported database type: %s", db.Type)
}

// ContainerName is the fixed name of the database container for an app
// database. Redeploys with the same database name replace the container.
func ContainerName(dbName string) string {
	return "spark-" + dbName + "-db"
}
