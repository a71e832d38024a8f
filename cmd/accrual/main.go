package main

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"hrms/internal/app"
	"hrms/internal/shared/apperror"
)

func main() {
	_ = godotenv.Load()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()

	if err := app.RunAccrual(os.Args[1:]); err != nil {
		logger.Fatal("accrual run failed", zap.Error(err))
	}
}
