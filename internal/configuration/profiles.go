package configuration

import (
	"fmt"
	"slices"
	"strings"

	"edgeguard/internal/models"
)

const (
	ProfileDefault = "default"
	ProfileAPI     = "api"
	ProfileWorker  = "worker"
)

// The sweeper is a singleton wherever it runs; an api-only fleet leaves it to a worker deployment.
func sweeperOnly(name string, httpServer bool) models.Profile {
	return models.Profile{
		Name:       name,
		HTTPServer: httpServer,
		Workers:    models.WorkerConfig{PendingSweeper: models.WorkerModeSingleton},
	}
}

var profiles = map[string]models.Profile{
	ProfileDefault: sweeperOnly(ProfileDefault, true),
	ProfileWorker:  sweeperOnly(ProfileWorker, false),
	ProfileAPI: {
		Name:       ProfileAPI,
		HTTPServer: true,
		Workers:    models.WorkerConfig{PendingSweeper: models.WorkerModeDisabled},
	},
}

// ProfileNames lists the known profiles in a stable order.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// GetProfile resolves a profile name. Empty means default.
func GetProfile(name string) (models.Profile, error) {
	if name == "" {
		name = ProfileDefault
	}
	profile, ok := profiles[name]
	if !ok {
		return models.Profile{}, fmt.Errorf("unknown profile %q, expected one of %s",
			name, strings.Join(ProfileNames(), ", "))
	}
	return profile, nil
}
