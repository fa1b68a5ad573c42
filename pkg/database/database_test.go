package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unexca/student-docs-api/pkg/config"
)

func TestOpenSQLiteBootstrapsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "unexca.db")
	db, err := Open(config.DatabaseConfig{Driver: DriverSQLite, Name: path})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO ESTUDIANTES (cedula, nombre, apellido, carrera) VALUES ($1, $2, $3, $4)`,
		"123", "Ana", "Gomez", "Informática")
	require.NoError(t, err)

	var nombre string
	require.NoError(t, db.Get(&nombre, `SELECT nombre FROM ESTUDIANTES WHERE cedula = $1`, "123"))
	assert.Equal(t, "Ana", nombre)

	require.NoError(t, Migrate(db))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql"})
	require.Error(t, err)
}
