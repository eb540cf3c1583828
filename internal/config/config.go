package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	GeneratorCounter = "counter"
	GeneratorUUID    = "uuid"
	GeneratorRedis   = "redis"
)

var (
	ErrInvalidLogLevel  = errors.New("unknown log level")
	ErrInvalidBoard     = errors.New("invalid game board settings")
	ErrInvalidGenerator = errors.New("unknown room id generator")
	ErrInvalidSocket    = errors.New("invalid socket settings")
)

type Config struct {
	LogLevel   string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	LogFile    LogFile `yaml:"log-file"`
	HTTPPort   string  `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string  `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Game       Game    `yaml:"game"`
	RoomIDs    RoomIDs `yaml:"room-ids"`
	Redis      Redis   `yaml:"redis"`
	Socket     Socket  `yaml:"socket"`
}

// LogFile enables a rotated log file next to stdout when Path is set.
type LogFile struct {
	Path       string `yaml:"path" env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max-size-mb" env-default:"10"`
	MaxBackups int    `yaml:"max-backups" env-default:"3"`
	MaxAgeDays int    `yaml:"max-age-days" env-default:"7"`
}

type Game struct {
	BoardSize int `yaml:"board-size" env:"GAME_BOARD_SIZE" env-default:"20"`
	WinLength int `yaml:"win-length" env:"GAME_WIN_LENGTH" env-default:"5"`
	// PermissiveTurns lets any member place the mark whose turn it is.
	// No env-default here: cleanenv would overwrite an explicit false.
	PermissiveTurns bool `yaml:"permissive-turns" env:"GAME_PERMISSIVE_TURNS"`
}

type RoomIDs struct {
	Generator string `yaml:"generator" env:"ROOM_ID_GENERATOR" env-default:"counter"`
	RedisKey  string `yaml:"redis-key" env-default:"room:sequence"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Socket struct {
	SendBuffer     int           `yaml:"send-buffer" env-default:"64"`
	WriteTimeout   time.Duration `yaml:"write-timeout" env-default:"10s"`
	PongTimeout    time.Duration `yaml:"pong-timeout" env-default:"60s"`
	ReadLimit      int64         `yaml:"read-limit" env-default:"4096"`
	AllowedOrigins []string      `yaml:"allowed-origins"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

// Load - reads the file, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) Validate() error {
	switch that.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, that.LogLevel)
	}

	if that.Game.BoardSize <= 0 || that.Game.WinLength <= 0 || that.Game.WinLength > that.Game.BoardSize {
		return fmt.Errorf("%w: board-size %d, win-length %d", ErrInvalidBoard, that.Game.BoardSize, that.Game.WinLength)
	}

	switch that.RoomIDs.Generator {
	case GeneratorCounter, GeneratorUUID, GeneratorRedis:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidGenerator, that.RoomIDs.Generator)
	}

	if that.Socket.SendBuffer <= 0 || that.Socket.ReadLimit <= 0 {
		return fmt.Errorf("%w: send-buffer and read-limit must be positive", ErrInvalidSocket)
	}

	// pings go out at 9/10 of the pong timeout
	if that.Socket.PongTimeout < 10*time.Millisecond || that.Socket.WriteTimeout <= 0 {
		return fmt.Errorf("%w: timeouts are too short", ErrInvalidSocket)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
