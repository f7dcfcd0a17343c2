package server

import (
	"database/sql"
	"net/http"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig(okHandler())

	if config.Address != ":8080" {
		t.Errorf("Expected address :8080, got %s", config.Address)
	}

	if config.Timeout != 15*time.Second {
		t.Errorf("Expected Timeout 15s, got %v", config.Timeout)
	}

	if config.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected ShutdownTimeout 30s, got %v", config.ShutdownTimeout)
	}
}

func TestNewServerNilConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestNewServerNilHandler(t *testing.T) {
	if _, err := New(DefaultConfig(nil)); err == nil {
		t.Error("Expected error for nil handler")
	}
}

func TestServerWithDatabase(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	config := DefaultConfig(okHandler())
	config.DB = db

	if _, err := New(config); err != nil {
		t.Fatalf("Failed to create server with database: %v", err)
	}

	if stats := db.Stats(); stats.MaxOpenConnections != maxOpenConns {
		t.Errorf("Expected MaxOpenConnections %d, got %d", maxOpenConns, stats.MaxOpenConnections)
	}
}

func TestServerWithClosedDatabase(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	db.Close()

	config := DefaultConfig(okHandler())
	config.DB = db

	if _, err := New(config); err == nil {
		t.Error("Expected error for unreachable database")
	}
}
