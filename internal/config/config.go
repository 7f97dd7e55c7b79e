package config

import (
	"errors"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Worker   WorkerConfig
	FFmpeg   FFmpegConfig
	JobStore JobStoreConfig
	Postgres DBConfig
	Redis    RedisConfig
	S3       S3Config
	Logger   Logger
}

type ServerConfig struct {
	AppVersion     string
	Port           string
	Mode           string
	MaxRequestBody string
}

type StorageConfig struct {
	StagingDir string
	OutputDir  string
}

type WorkerConfig struct {
	PoolSize       int
	DefaultFormats string
	MaxCPUUsage    float64
}

type FFmpegConfig struct {
	FFmpegPath  string
	FFprobePath string
}

// JobStoreConfig selects the job registry backend. "memory" is the default;
// "redis" and "postgres" require the matching connection section.
type JobStoreConfig struct {
	Driver string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	PgDriver string
}

type RedisConfig struct {
	RedisAddr     string
	RedisPassword string
	DB            int
	MinIdleConns  int
	PoolSize      int
	PoolTimeout   int
}

type S3Config struct {
	Enabled      bool
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	OutputBucket string
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if c.Worker.PoolSize <= 0 {
		c.Worker.PoolSize = 5
	}
	if c.Worker.DefaultFormats == "" {
		c.Worker.DefaultFormats = "1080p,720p,480p,360p"
	}
	if c.FFmpeg.FFmpegPath == "" {
		c.FFmpeg.FFmpegPath = "ffmpeg"
	}
	if c.FFmpeg.FFprobePath == "" {
		c.FFmpeg.FFprobePath = "ffprobe"
	}
	if c.JobStore.Driver == "" {
		c.JobStore.Driver = "memory"
	}
	return &c, nil
}
