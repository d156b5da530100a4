package config

import (
	"time"

	"github.com/lanmesh/lanchat/internal/discovery"
)

// Config holds session, network and persistence settings.
type Config struct {
	Name             string        `mapstructure:"name" yaml:"name"`
	ChatPort         int           `mapstructure:"chat_port" yaml:"chat_port"`
	DiscoveryPort    int           `mapstructure:"discovery_port" yaml:"discovery_port"`
	MulticastGroup   string        `mapstructure:"multicast_group" yaml:"multicast_group"`
	DiscoveryTimeout time.Duration `mapstructure:"discovery_timeout" yaml:"discovery_timeout"`
	MaxConns         int           `mapstructure:"max_conns" yaml:"max_conns"`
	DataDir          string        `mapstructure:"data_dir" yaml:"data_dir"`
	BotName          string        `mapstructure:"bot_name" yaml:"bot_name"`
	BotCommand       string        `mapstructure:"bot_command" yaml:"bot_command"`
	BotBanner        bool          `mapstructure:"bot_banner" yaml:"bot_banner"`
	LogLevel         string        `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults. The bot is
// disabled until a command is configured.
func Default() Config {
	return Config{
		Name:             "Anonymous",
		ChatPort:         8888,
		DiscoveryPort:    discovery.DefaultPort,
		MulticastGroup:   discovery.DefaultGroup,
		DiscoveryTimeout: 2 * time.Second,
		MaxConns:         64,
		DataDir:          "data",
		BotName:          "ChatBot",
		BotBanner:        true,
		LogLevel:         "info",
	}
}
