// Command shareride serves the RideShare Rwanda dashboard.
package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/shareride/internal/app"
	"github.com/patric-chuzhbe/shareride/internal/config"
	"github.com/patric-chuzhbe/shareride/internal/logger"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Unable to load configuration: %v", err)
	}

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		logger.Log.Fatalw("startup failed", zap.Error(err))
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Log.Errorln("shutdown cleanup failed:", zap.Error(err))
		}
	}()

	if err := application.Run(); err != nil {
		logger.Log.Errorln(err)
	}
}
