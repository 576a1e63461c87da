package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"docsummarizer/internal/config"
)

// ErrUnavailable is returned by Connector.Acquire once the retry budget is spent.
// The returned error also wraps the last driver error.
var ErrUnavailable = errors.New("database unavailable")

const (
	defaultConnectAttempts       = 30
	defaultConnectRetryDelay     = time.Second
	defaultConnectAttemptTimeout = 5 * time.Second
)

// ConnectFunc opens one connection. The context carries the per-attempt timeout.
type ConnectFunc func(ctx context.Context) (*sql.Conn, error)

// Connector hands out request-scoped connections, retrying until the server is
// reachable or the attempt budget is exhausted.
// It is safe for concurrent use by multiple goroutines.
type Connector struct {
	connect        ConnectFunc
	attempts       int
	delay          time.Duration
	attemptTimeout time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
	log            *logrus.Logger
}

// NewConnector builds a Connector drawing connections from db.
func NewConnector(db *sql.DB, c config.DatabaseConfig, log *logrus.Logger) *Connector {
	return newConnector(poolConnect(db), c, log)
}

func newConnector(connect ConnectFunc, c config.DatabaseConfig, log *logrus.Logger) *Connector {
	cn := &Connector{
		connect:        connect,
		attempts:       c.ConnectAttempts,
		delay:          c.ConnectRetryDelay,
		attemptTimeout: c.ConnectAttemptTimeout,
		sleep:          sleepCtx,
		log:            log,
	}
	if cn.attempts <= 0 {
		cn.attempts = defaultConnectAttempts
	}
	if cn.delay <= 0 {
		cn.delay = defaultConnectRetryDelay
	}
	if cn.attemptTimeout <= 0 {
		cn.attemptTimeout = defaultConnectAttemptTimeout
	}
	if cn.log == nil {
		cn.log = logrus.StandardLogger()
	}
	return cn
}

// poolConnect takes a dedicated connection from the pool and verifies it with a ping.
func poolConnect(db *sql.DB) ConnectFunc {
	return func(ctx context.Context) (*sql.Conn, error) {
		conn, err := db.Conn(ctx)
		if err != nil {
			return nil, err
		}
		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}
}

// Acquire returns a working connection. The caller owns it and must hand it to Release.
func (c *Connector) Acquire(ctx context.Context) (*sql.Conn, error) {
	var lastErr error
	attempt := 0
	for attempt < c.attempts {
		attempt++

		attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
		conn, err := c.connect(attemptCtx)
		cancel()
		if err == nil {
			if attempt > 1 {
				c.log.WithFields(logrus.Fields{
					"component": "database",
					"attempt":   attempt,
				}).Info("db_connect_recovered")
			}
			return conn, nil
		}
		lastErr = err

		if attempt == c.attempts {
			break
		}
		if err := c.sleep(ctx, c.delay); err != nil {
			lastErr = errors.Join(lastErr, err)
			break
		}
	}

	c.log.WithFields(logrus.Fields{
		"component": "database",
		"attempts":  attempt,
		"error":     lastErr.Error(),
	}).Error("db_unreachable")
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrUnavailable, attempt, lastErr)
}

// Release closes a connection obtained from Acquire. Close errors are logged,
// never returned, so they cannot hide the caller's own error.
func Release(conn *sql.Conn, log *logrus.Logger) {
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		if log == nil {
			log = logrus.StandardLogger()
		}
		log.WithFields(logrus.Fields{
			"component": "database",
			"error":     err.Error(),
		}).Warn("db_release_failed")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
