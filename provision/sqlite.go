package provision

import (
	"database/sql"
	"os"
	"path"

	"github.com/sparkdeploy/spark/app"
	"github.com/sparkdeploy/spark/log"

	_ "modernc.org/sqlite"
)

// setupSQLite is file-based: create the database file if absent, then run
// the preseed script against it. No container involved.
func setupSQLite(db *app.DatabaseSection, appDir string) error {
	log.LogAccess.Info("setting up SQLite database")

	name := defaultString(db.Name, "app.db")
	dbPath := path.Join(appDir, name)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		f, err := os.Create(dbPath)
		if err != nil {
			return err
		}
		f.Close()
	}

	if db.Preseed != "" {
		sqlPath := path.Join(appDir, db.Preseed)
		script, err := os.ReadFile(sqlPath)
		if err != nil {
			if os.IsNotExist(err) {
				log.LogAccess.Infof("preseed file %s not found, skipping", db.Preseed)
				return nil
			}
			return err
		}

		conn, err := sql.Open("sqlite", dbPath)
		if err != nil {
			return err
		}
		defer conn.Close()

		if _, err := conn.Exec(string(script)); err != nil {
			return err
		}
	}

	log.LogAccess.Infof("SQLite database ready at %s", dbPath)
	return nil
}
