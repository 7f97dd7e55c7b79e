package main

import (
	"log"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/streamforge/transcoder/internal/config"
	"github.com/streamforge/transcoder/internal/server"
	"github.com/streamforge/transcoder/pkg/db/aws"
	"github.com/streamforge/transcoder/pkg/db/postgres"
	redisDB "github.com/streamforge/transcoder/pkg/db/redis"
	"github.com/streamforge/transcoder/pkg/logger"
)

func main() {
	log.Println("Starting transcoder server")
	configFile := "config.yml"
	cfgFile, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}

	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

	var psqlDB *sqlx.DB
	if cfg.JobStore.Driver == "postgres" {
		psqlDB, err = postgres.NewPsqlDB(cfg)
		if err != nil {
			appLogger.Fatalf("could not connect to db: %s", err)
		}
		appLogger.Infof("db connected, status: %#v", psqlDB.Stats())
		defer psqlDB.Close()
	}

	var redisClient *redis.Client
	if cfg.JobStore.Driver == "redis" {
		redisClient, err = redisDB.NewRedisClient(cfg)
		if err != nil {
			appLogger.Fatalf("could not connect to redis: %s", err)
		}
		appLogger.Infof("redis connected")
		defer redisClient.Close()
	}

	var s3Client *s3.Client
	if cfg.S3.Enabled {
		s3Client, err = aws.NewAWSClient(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
		if err != nil {
			appLogger.Fatalf("could not connect to s3: %s", err)
		}
		appLogger.Infof("s3 client ready")
	}

	s := server.NewServer(cfg, psqlDB, redisClient, s3Client, appLogger)
	if err = s.Run(); err != nil {
		appLogger.Infof("could not start server: %s", err)
	}
}
