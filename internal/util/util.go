package util

import (
	"solix2prom/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Upstream: config.UpstreamConfig{
			Username: "user@example.com",
			Password: "secret",
			Country:  "EU",
		},
		Poll: config.PollConfig{
			IntervalSeconds:     30,
			FetchTimeoutSeconds: 5,
			BackoffCapSeconds:   300,
			GraceCycles:         3,
		},
		MQTT: config.MQTTConfig{
			Enable:    false,
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "solix2prom",
		},
		Port: 9123,
	}
}
