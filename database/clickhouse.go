// Package database connects the launcher to ClickHouse for log telemetry.
package database

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Options describes the ClickHouse server receiving telemetry.
type Options struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

// SetupClickhouse opens a connection and checks it with a ping.
func SetupClickhouse(ctx context.Context, o Options) (driver.Conn, error) {
	if o.Port <= 0 || o.Port > 65535 {
		return nil, fmt.Errorf("invalid clickhouse port %d", o.Port)
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{net.JoinHostPort(o.Host, strconv.Itoa(o.Port))},
		Auth: clickhouse.Auth{
			Database: o.Database,
			Username: o.Username,
			Password: o.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout:      time.Duration(10) * time.Second,
		MaxOpenConns:     2,
		MaxIdleConns:     2,
		ConnMaxLifetime:  time.Duration(60) * time.Second,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
		BlockBufferSize:  10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err = conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}
