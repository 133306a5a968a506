package configloader

import (
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Structure to bind application parameters
type Config struct {
	LogLevel       string        `mapstructure:"LOG_LEVEL"`       // logrus library log level to be assigned
	DataPath       string        `mapstructure:"DATA_PATH"`       // base folder holding the launcher database and service sessions
	CachePath      string        `mapstructure:"CACHE_PATH"`      // base folder holding downloaded service media
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"` // timeout applied to every outgoing HTTP request
	MetricsAddress string        `mapstructure:"METRICS_ADDRESS"` // listen address of the Prometheus endpoint, empty to disable it
}

// Initialize default parameters values
func initDefaultConfiguration() {
	viper.SetDefault("LOG_LEVEL", "debug")
	viper.SetDefault("DATA_PATH", ".")
	viper.SetDefault("CACHE_PATH", "cache")
	viper.SetDefault("REQUEST_TIMEOUT", "30s")
	viper.SetDefault("METRICS_ADDRESS", "")
}

// Load configuration from env file
func LoadConfiguration(applicationName string, configurationFilePath string) (config Config, err error) {
	initDefaultConfiguration()

	if configurationFilePath == "" {
		// Read the volume root path
		root := filepath.VolumeName(".")
		if root == "" {
			root = string(filepath.Separator)
		}

		// Set configuration named config from etc/*appName*, $HOME/.*appName* or current folders
		viper.AddConfigPath(filepath.Join(root, "etc", applicationName))
		viper.AddConfigPath(filepath.Join("$HOME", "."+applicationName))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	} else {
		// Set the configuration file path
		viper.SetConfigFile(configurationFilePath)
	}

	// Get configuration from environment variables, if set
	viper.AutomaticEnv()

	// Get configuration from configuration file, if set
	if configError := viper.ReadInConfig(); configError != nil {
		logrus.Warn(configError.Error())
	}
	err = viper.Unmarshal(&config)

	return
}
