// api/config/config.go
package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Configuration stores all the configurations
type Configuration struct {
	Server        ServerConfiguration
	Neo4j         DatabaseConfiguration
	Redis         RedisConfiguration
	Elasticsearch ElasticsearchConfiguration
	Engine        EngineConfiguration
	Trust         TrustConfiguration
}

// ServerConfiguration stores the port and other web server settings
type ServerConfiguration struct {
	Port string
}

// DatabaseConfiguration stores data for database connection
type DatabaseConfiguration struct {
	URI string
}

// RedisConfiguration stores data for Redis connection
type RedisConfiguration struct {
	Addr            string
	DefaultCacheTTL string
}

// ElasticsearchConfiguration stores data for Elasticsearch connection
type ElasticsearchConfiguration struct {
	URL string
}

// EngineConfiguration stores decision pipeline tunables
type EngineConfiguration struct {
	EvaluationTimeout       string
	ConditionMatchThreshold float64
	MediumRiskThreshold     float64
	HighRiskThreshold       float64
	CriticalRiskThreshold   float64
	DecisionCacheTTL        string
	DecisionCacheSize       int64
}

// TrustConfiguration stores trust scorer tunables
type TrustConfiguration struct {
	RefreshInterval string
	SignalWindow    string
}

var config *Configuration

func InitConfig() error {
	viper.AddConfigPath("config") // path to look for the config file in
	viper.SetConfigName("config") // name of the config file (without extension)
	viper.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name

	viper.AutomaticEnv() // read in environment variables that match

	// Set default configurations
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("neo4j.uri", "bolt://localhost:7687")
	viper.SetDefault("neo4j.poolSize", 50)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("elasticsearch.url", "http://localhost:9200")
	viper.SetDefault("redis.defaultCacheTTL", "10m")
	viper.SetDefault("log.dir", "logs")
	viper.SetDefault("auth.jwtSecret", "")
	viper.SetDefault("rateLimit.requests", 100)
	viper.SetDefault("rateLimit.window", "1m")

	viper.SetDefault("engine.evaluationTimeout", "500ms")
	viper.SetDefault("engine.conditionMatchThreshold", 0.5)
	viper.SetDefault("engine.mediumRiskThreshold", 25.0)
	viper.SetDefault("engine.highRiskThreshold", 50.0)
	viper.SetDefault("engine.criticalRiskThreshold", 75.0)
	viper.SetDefault("engine.decisionCacheTTL", "30s")
	viper.SetDefault("engine.decisionCacheSize", 10000)
	viper.SetDefault("engine.expiry.low", "480m")
	viper.SetDefault("engine.expiry.medium", "240m")
	viper.SetDefault("engine.expiry.high", "60m")
	viper.SetDefault("engine.expiry.default", "30m")
	viper.SetDefault("engine.stepUpTimeout", "300s")

	viper.SetDefault("trust.refreshInterval", "30s")
	viper.SetDefault("trust.signalWindow", "24h")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return err
		}
	}

	// Unmarshal the configuration into the Configuration struct
	err := viper.Unmarshal(&config)
	if err != nil {
		return err
	}

	return nil
}

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// GetString retrieves a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from the configuration
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat64 retrieves a float64 value from the configuration
func GetFloat64(key string) float64 {
	return viper.GetFloat64(key)
}

// GetDuration retrieves a duration value from the configuration
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
