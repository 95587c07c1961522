package config

import (
	"os"

	"gopkg.in/yaml.v2"

	"github.com/sparkdeploy/spark/log"
)

// Config is the daemon config structure.
type Config struct {
	Core      SectionCore      `yaml:"core"`
	Gateway   SectionGateway   `yaml:"gateway"`
	Discovery SectionDiscovery `yaml:"discovery"`
	Log       log.Config       `yaml:"log"`
}

// SectionCore is sub section of config.
type SectionCore struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
	AppsDir string `yaml:"apps_dir"`
}

// SectionGateway is sub section of config.
type SectionGateway struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// SectionDiscovery is sub section of config.
type SectionDiscovery struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// BuildDefaultConf is default config setting.
func BuildDefaultConf() Config {
	var conf Config

	// Core
	conf.Core.Address = ""
	conf.Core.Port = 7530
	conf.Core.AppsDir = ""

	// Gateway
	conf.Gateway.Enabled = true
	conf.Gateway.Address = ""
	conf.Gateway.Port = 80

	// Discovery
	conf.Discovery.Enabled = true
	conf.Discovery.Port = 7001

	// Log
	conf.Log = *log.DefaultConfig

	return conf
}

// LoadConfig load config from file. A missing path yields the defaults.
func LoadConfig(confPath string) (Config, error) {
	conf := BuildDefaultConf()

	if confPath == "" {
		return conf, nil
	}

	configFile, err := os.ReadFile(confPath)
	if err != nil {
		return conf, err
	}

	err = yaml.Unmarshal(configFile, &conf)
	if err != nil {
		return conf, err
	}

	return conf, nil
}
