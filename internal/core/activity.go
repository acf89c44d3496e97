package core

import (
	"edgeguard/internal/activity"
	"edgeguard/internal/models"

	"go.uber.org/zap"
)

func NewActivityLogger(config models.ActivityConfiguration) activity.IActivityLogger {
	if config.Type != "filesystem" {
		return activity.NoopLogger{}
	}

	logger, err := activity.NewBleveLogger(config.Filesystem.Directory)
	if err != nil {
		zap.L().Fatal("Failed to open activity index", zap.Error(err))
	}
	return logger
}
