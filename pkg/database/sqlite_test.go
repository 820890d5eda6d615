package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite_ReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ibd_data.db")

	rw, err := OpenSQLite(path, time.Second, false)
	require.NoError(t, err)
	_, err = rw.DB.Exec(`CREATE TABLE t (v INTEGER); INSERT INTO t VALUES (1)`)
	require.NoError(t, err)
	require.NoError(t, rw.Close())

	ro, err := OpenSQLite(path, time.Second, true)
	require.NoError(t, err)
	defer ro.Close()

	var v int
	require.NoError(t, ro.DB.QueryRow(`SELECT v FROM t`).Scan(&v))
	assert.Equal(t, 1, v)

	_, err = ro.DB.Exec(`INSERT INTO t VALUES (2)`)
	assert.Error(t, err, "read-only handle must reject writes")

	status, err := ro.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
}
