// Package config holds runtime configuration for the chat server.
package config

import "os"

// SocketConfig holds WebSocket tuning parameters.
type SocketConfig struct {
	MaxConnections  int `json:"max_connections"`
	ReadBufferSize  int `json:"read_buffer_size"`
	WriteBufferSize int `json:"write_buffer_size"`
}

// Config holds the server configuration.
type Config struct {
	Port      string       // listen port, default "8080"
	UsersFile string       // credential store path, default "users.json"
	PublicDir string       // static asset directory, default "public"
	Socket    SocketConfig `json:"socket"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Port:      "8080",
		UsersFile: "users.json",
		PublicDir: "public",
		Socket: SocketConfig{
			MaxConnections:  1000,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// FromEnv loads configuration from environment variables, falling back to
// defaults for any missing values.
func FromEnv() *Config {
	cfg := Default()

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if path := os.Getenv("ANONCHAT_USERS_FILE"); path != "" {
		cfg.UsersFile = path
	}
	if dir := os.Getenv("ANONCHAT_PUBLIC_DIR"); dir != "" {
		cfg.PublicDir = dir
	}
	return cfg
}
