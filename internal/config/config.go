package config

import "github.com/spf13/viper"

type Config struct {
	ServerPort         string `mapstructure:"SERVER_PORT"`
	CSVEnabled         bool   `mapstructure:"CSV_ENABLED"`
	CSVDir             string `mapstructure:"CSV_DIR"`
	TickIntervalMs     int    `mapstructure:"TICK_INTERVAL_MS"`
	SinkTimeoutMs      int    `mapstructure:"SINK_TIMEOUT_MS"`
	TrackingServiceURL string `mapstructure:"TRACKING_SERVICE_URL"`
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	MQTTBroker         string `mapstructure:"MQTT_BROKER"`
	MQTTClientID       string `mapstructure:"MQTT_CLIENT_ID"`
	RabbitMQURL        string `mapstructure:"RABBITMQ_URL"`
}

func Load() Config {
	viper.AutomaticEnv()
	viper.SetDefault("SERVER_PORT", ":8081")
	viper.SetDefault("CSV_ENABLED", true)
	viper.SetDefault("CSV_DIR", "./data")
	viper.SetDefault("TICK_INTERVAL_MS", 1000)
	viper.SetDefault("SINK_TIMEOUT_MS", 3000)
	viper.SetDefault("TRACKING_SERVICE_URL", "http://localhost:8082")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("MQTT_BROKER", "")
	viper.SetDefault("MQTT_CLIENT_ID", "dtg-simulator")
	viper.SetDefault("RABBITMQ_URL", "")

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}
