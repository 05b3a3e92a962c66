package influxdb

import (
	"errors"
	"testing"
	"time"

	"github.com/fieldsense/fieldsense-core/internal/infrastructure/config"
)

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnectUnreachable(t *testing.T) {
	cfg := config.InfluxDBConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:19086",
		Token:   "test-token",
		Org:     "test",
		Bucket:  "test",
	}

	_, err := Connect(cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestCloseNil(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v, want nil", err)
	}
}

func TestFlushDisconnected(t *testing.T) {
	c := &Client{}
	// Must not panic on a client that never connected.
	c.Flush()
}

func TestIsConnectedInitial(t *testing.T) {
	c := &Client{}
	if c.IsConnected() {
		t.Error("IsConnected() = true for zero client, want false")
	}
}

func TestWriteSensorReadingDisconnected(t *testing.T) {
	c := &Client{}
	// Disconnected writes are silently dropped, never a panic.
	c.WriteSensorReading("tenant-1", "device-1", "Temperature1", 24.5, "normal", time.Now())
}
