package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRequiresBroker(t *testing.T) {
	cfg := &Config{LogLevel: "info", LogFormat: "json"}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := &Config{Broker: "localhost:9092", LogLevel: "verbose", LogFormat: "json"}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadLogFormat(t *testing.T) {
	cfg := &Config{Broker: "localhost:9092", LogLevel: "info", LogFormat: "xml"}
	assert.Error(t, cfg.Validate())
}

func TestValidateAccepts(t *testing.T) {
	cfg := &Config{Broker: "localhost:9092", LogLevel: "info", LogFormat: "json"}
	assert.NoError(t, cfg.Validate())
}

func TestBrokersSplitsAndTrims(t *testing.T) {
	cfg := &Config{Broker: "host1:9092, host2:9092 ,host3:9092"}
	assert.Equal(t, []string{"host1:9092", "host2:9092", "host3:9092"}, cfg.Brokers())
}

func TestBrokersEmpty(t *testing.T) {
	cfg := &Config{Broker: ""}
	assert.Empty(t, cfg.Brokers())
}
