package config

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel zapcore.Level
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Poll     PollConfig     `mapstructure:"poll"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Port     uint           `mapstructure:"port"`
	HttpLog  bool           `mapstructure:"http_log"`
}

type UpstreamConfig struct {
	Username string
	Password string
	Country  string
}

type PollConfig struct {
	IntervalSeconds     uint32 `mapstructure:"interval_seconds"`
	FetchTimeoutSeconds uint32 `mapstructure:"fetch_timeout_seconds"`
	BackoffCapSeconds   uint32 `mapstructure:"backoff_cap_seconds"`
	GraceCycles         uint   `mapstructure:"grace_cycles"`
}

func (c PollConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

func (c PollConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c PollConfig) BackoffCap() time.Duration {
	return time.Duration(c.BackoffCapSeconds) * time.Second
}

type MQTTConfig struct {
	Enable    bool `mapstructure:"enable"`
	Host      string
	Port      int
	Username  string
	Password  string
	BaseTopic string `mapstructure:"base_topic"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
