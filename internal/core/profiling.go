package core

import (
	"context"

	"edgeguard/internal/configuration"
	"edgeguard/internal/models"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// NewProfiler starts continuous profiling to a Pyroscope server when enabled.
func NewProfiler(config models.ProfilingConfiguration, profile string) (ShutdownFunc, error) {
	if !config.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: configuration.AppName,
		ServerAddress:   config.ServerURL,
		Tags:            map[string]string{"profile": profile},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Profiling enabled", zap.String("server", config.ServerURL))
	return func(context.Context) error { return profiler.Stop() }, nil
}
