package novalogic

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	log, _ := test.NewNullLogger()
	db, err := Open(EngineNovaSQL, Options{Logger: log})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Run("CREATE TABLE t (a INT)")
	require.NoError(t, err)
	out, err := db.Run("SELECT a FROM t")
	require.NoError(t, err)
	assert.False(t, out.Complete)
}

func TestRunFile(t *testing.T) {
	log, _ := test.NewNullLogger()
	for _, engine := range []string{EngineNovaSQL, EngineSQLite} {
		err := RunFile(engine, filepath.Join("internal", "slt", "testdata", "basic.slt"), Options{Logger: log})
		assert.NoError(t, err, engine)
	}
}
