package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"documind-bot/api/internal/logger"
)

func main() {
	// config is not loaded yet, startup errors still need a readable log
	_ = logger.Setup(logger.DefaultConfig())
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg(".env not loaded, using process environment")
	}
	Execute()
}
