package provision

import (
	"context"
	"database/sql"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkdeploy/spark/app"
	"github.com/sparkdeploy/spark/log"
)

func TestMain(m *testing.M) {
	err := log.InitLog(log.DefaultConfig)
	if err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestContainerName(t *testing.T) {
	assert.Equal(t, "spark-sitedb-db", ContainerName("sitedb"))
}

func TestSetupUnsupportedType(t *testing.T) {
	db := &app.DatabaseSection{Type: "oracle"}
	err := Setup(context.Background(), db, t.TempDir())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestSetupSQLiteCreatesFile(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	dir := t.TempDir()
	db := &app.DatabaseSection{Type: "sqlite", Name: "site.db"}
	require.NoError(Setup(context.Background(), db, dir))

	_, err := os.Stat(path.Join(dir, "site.db"))
	assert.NoError(err)
}

func TestSetupSQLitePreseed(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	dir := t.TempDir()
	seed := "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);\nINSERT INTO users (name) VALUES ('alice');\n"
	require.NoError(os.WriteFile(path.Join(dir, "seed.sql"), []byte(seed), 0644))

	db := &app.DatabaseSection{Type: "sqlite", Name: "site.db", Preseed: "seed.sql"}
	require.NoError(Setup(context.Background(), db, dir))

	conn, err := sql.Open("sqlite", path.Join(dir, "site.db"))
	require.NoError(err)
	defer conn.Close()

	var count int
	require.NoError(conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	assert.Equal(1, count)
}

func TestSetupSQLitePreseedMissingFile(t *testing.T) {
	dir := t.TempDir()
	db := &app.DatabaseSection{Type: "sqlite", Preseed: "nope.sql"}
	assert.NoError(t, Setup(context.Background(), db, dir))
}
