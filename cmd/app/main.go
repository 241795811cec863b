package main

import (
	"feastline/config"
	"feastline/di"
	"feastline/helper"
	"feastline/shared/logger"

	"github.com/rs/zerolog/log"
)

// @title feastline API
// @version 1.0
// @description Voice booking sessions and availability for the catering calendar.
// @BasePath /
// @securityDefinitions.apikey AccessToken
// @in header
// @name X-Access-Token
func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	if cfg.DB.Postgres.AutoMigrate {
		if err := helper.Up(cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	http := di.InitializeService()
	http.Serve()
}
