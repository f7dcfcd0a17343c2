// Package server runs the filter explain API over HTTP.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// SQL pool settings applied to Config.DB
const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = time.Hour
	pingTimeout     = 5 * time.Second
)

// Server serves the API handler and drains it on shutdown
type Server struct {
	httpServer *http.Server
	config     *Config
	listener   net.Listener
	logger     *zap.Logger
}

// Config holds server configuration
type Config struct {
	// Address is the server listen address (e.g., ":8080")
	Address string

	Handler http.Handler

	// Timeout bounds reading a request and writing its response
	Timeout time.Duration

	// ShutdownTimeout bounds draining in-flight requests
	ShutdownTimeout time.Duration

	// DB is pooled and pinged before the server starts when set
	DB *sql.DB

	Logger *zap.Logger
}

// DefaultConfig returns the configuration used by the serve command
func DefaultConfig(handler http.Handler) *Config {
	return &Config{
		Address:         ":8080",
		Handler:         handler,
		Timeout:         15 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// New creates a new server instance
func New(config *Config) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("server config cannot be nil")
	}
	if config.Handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	if config.DB != nil {
		if err := configurePool(config.DB); err != nil {
			return nil, fmt.Errorf("failed to configure database pool: %w", err)
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              config.Address,
			Handler:           config.Handler,
			ReadTimeout:       config.Timeout,
			ReadHeaderTimeout: config.Timeout,
			WriteTimeout:      config.Timeout,
		},
		config: config,
		logger: logger,
	}, nil
}

// Listen binds the configured address without serving yet
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, or the configured one before Listen
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Address
}

func configurePool(db *sql.DB) error {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
