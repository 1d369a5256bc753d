package configlibsql

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromLocation(t *testing.T) {
	testCases := []struct {
		location string
		expected Struct
	}{
		{location: "flights.db", expected: Struct{File: "flights.db"}},
		{location: ":memory:", expected: Struct{File: ":memory:"}},
		{location: "libsql://flyhigh.turso.io", expected: Struct{Url: "libsql://flyhigh.turso.io"}},
		{location: "http://127.0.0.1:8080", expected: Struct{Url: "http://127.0.0.1:8080"}},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, FromLocation(test.location), test.location)
	}
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "flights.db")
	db, err := Struct{File: path}.OpenDB()
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	require.Equal(t, "wal", mode)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestOpenWithoutPath(t *testing.T) {
	_, err := Struct{}.OpenDB()
	require.Error(t, err)
}
