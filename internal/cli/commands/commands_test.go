package commands

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/filterkit/internal/cli/config"
	"github.com/conduit-lang/filterkit/internal/orm/schema"
	"github.com/conduit-lang/filterkit/internal/web/cache"
)

const testConfig = `
logging:
  level: error
database:
  driver: sqlite3
  url: %DB%
resources:
  - name: Dummy
    fields:
      - name: id
        type: int!
        primary: true
      - name: name
        type: string!
      - name: price
        type: float?
      - name: quantity
        type: int?
    relationships:
      - name: relatedDummy
        kind: belongs_to
        resource: RelatedDummy
        nullable: true
  - name: RelatedDummy
    fields:
      - name: id
        type: int!
        primary: true
      - name: name
        type: string?
filters:
  - name: dummy.numeric
    kind: numeric
    resource: Dummy
  - name: dummy.order
    kind: order
    resource: Dummy
    properties:
      - name
      - price
      - property: relatedDummy.name
        nulls_comparison: nulls_always_last
  - name: dummy.range
    kind: range
    backend: odm
    resource: Dummy
`

func writeConfig(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "filterkit.db")
	path := filepath.Join(dir, "filterkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(testConfig, "%DB%", dbPath, 1)), 0644))
	return path, dbPath
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--no-color"))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "filterkit", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"version", "check", "resources", "describe", "explain", "query", "serve"} {
		assert.Contains(t, names, expected)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestVersionCommand(t *testing.T) {
	Version = "1.0.0-test"
	GitCommit = "abc123"
	GoVersion = "go1.23"

	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "filterkit version: 1.0.0-test")
	assert.Contains(t, stdout, "Git commit: abc123")
}

func TestCheckCommand(t *testing.T) {
	path, _ := writeConfig(t)

	stdout, _, err := run(t, "check", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "dummy.order")
	assert.Contains(t, stdout, "name, price, relatedDummy.name")
	assert.Contains(t, stdout, "orm, odm")
	assert.Contains(t, stdout, "✓ 2 resources, 3 filters")
}

func TestConfigError(t *testing.T) {
	_, stderr, err := run(t, "check", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, stderr, "CONFIGURATION ERROR")

	var reported *reportedError
	assert.ErrorAs(t, err, &reported)
}

func TestResourcesCommand(t *testing.T) {
	path, _ := writeConfig(t)

	stdout, _, err := run(t, "resources", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "related_dummies")

	stdout, _, err = run(t, "resources", "--config", path, "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"resources":["Dummy","RelatedDummy"]}`, stdout)
}

func TestDescribeCommand(t *testing.T) {
	path, _ := writeConfig(t)

	stdout, _, err := run(t, "describe", "Dummy", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "order[relatedDummy.name]")
	assert.Contains(t, stdout, "price[between]")
	assert.Contains(t, stdout, "quantity[]")

	_, stderr, err := run(t, "describe", "Dumy", "--config", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrResourceNotFound)
	assert.Contains(t, stderr, "Did you mean: Dummy?")
}

func TestExplainCommand(t *testing.T) {
	path, _ := writeConfig(t)

	stdout, _, err := run(t, "explain", "Dummy", "quantity=3", "order[name]=desc", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "SELECT o.* FROM dummies o WHERE o.quantity = $1 ORDER BY o.name DESC")
	assert.Contains(t, stdout, ":quantity_p1 = 3")

	stdout, _, err = run(t, "explain", "Dummy", "price[gte]=2&order[relatedDummy.name]=asc", "--config", path, "--json")
	require.NoError(t, err)

	var explanation map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &explanation))
	assert.Equal(t,
		"SELECT o.* FROM dummies o"+
			" LEFT JOIN related_dummies relatedDummy_a1 ON relatedDummy_a1.id = o.related_dummy_id"+
			" ORDER BY CASE WHEN relatedDummy_a1.name IS NULL THEN 0 ELSE 1 END DESC, relatedDummy_a1.name ASC",
		explanation["sql"])

	stdout, _, err = run(t, "explain", "Dummy", "price[gte]=2", "--config", path, "--odm")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Collection: dummies")
	assert.Contains(t, stdout, `{"$match":{"price":{"$gte":2}}}`)
}

func TestQueryCommand(t *testing.T) {
	path, dbPath := writeConfig(t)

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE dummies (id INTEGER PRIMARY KEY, name TEXT NOT NULL, price REAL, quantity INTEGER, related_dummy_id INTEGER);
		INSERT INTO dummies (id, name, price, quantity) VALUES (1, 'one', 1.5, 1), (2, 'two', 2.5, 2), (3, 'three', 3.5, 1);
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	stdout, _, err := run(t, "query", "Dummy", "quantity=1&order[price]=desc", "--config", path)
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "three", rows[0]["name"])
	assert.Equal(t, "one", rows[1]["name"])

	stdout, _, err = run(t, "query", "Dummy", "order[price]=asc", "--limit", "1", "--config", path)
	require.NoError(t, err)
	rows = nil
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "one", rows[0]["name"])

	stdout, _, err = run(t, "query", "Dummy", "quantity=1", "--count", "--config", path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":2}`, stdout)

	_, _, err = run(t, "query", "Dummy", "--limit", "0", "--config", path)
	assert.Error(t, err)

	_, _, err = run(t, "query", "Dummy", "--count", "--odm", "--config", path)
	assert.Error(t, err)
}

func TestServeRoutes(t *testing.T) {
	path, _ := writeConfig(t)

	stdout, _, err := run(t, "serve", "--routes", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "/resources/{resource}/explain")
	assert.Contains(t, stdout, "/health")
}

func TestServeReleasesConnectionsOnFailure(t *testing.T) {
	path, dbPath := writeConfig(t)

	taken, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer taken.Close()
	port := taken.Addr().(*net.TCPAddr).Port

	_, _, err = run(t, "serve", "--port", strconv.Itoa(port), "--config", path)
	require.Error(t, err)

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec("CREATE TABLE released (id INTEGER)")
	assert.NoError(t, err)
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()

	store, err := openCache(ctx, config.CacheConfig{Driver: config.CacheNone})
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = openCache(ctx, config.CacheConfig{Driver: config.CacheMemory, TTL: time.Minute, MaxEntries: 1})
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryCache{}, store)
	require.NoError(t, store.Set(ctx, "first", []byte("1"), 0))
	require.NoError(t, store.Set(ctx, "second", []byte("2"), 0))
	_, err = store.Get(ctx, "first")
	assert.True(t, cache.IsCacheMiss(err))
	store.Close()

	mr := miniredis.RunT(t)
	store, err = openCache(ctx, config.CacheConfig{Driver: config.CacheRedis, Addr: mr.Addr(), Prefix: "fk:", TTL: time.Minute})
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "key", []byte("value"), 0))
	assert.True(t, mr.Exists("fk:key"))
	store.Close()
}
