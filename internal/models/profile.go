package models

// WorkerMode says where a background worker runs.
type WorkerMode string

const (
	WorkerModeDisabled WorkerMode = "disabled"
	// WorkerModeSingleton runs on whichever instance holds the worker lease.
	WorkerModeSingleton WorkerMode = "singleton"
	// WorkerModeAll runs on every instance.
	WorkerModeAll WorkerMode = "all"
)

func (m WorkerMode) Runs() bool {
	return m == WorkerModeSingleton || m == WorkerModeAll
}

// Profile is the set of components one deployment role starts.
type Profile struct {
	Name       string
	HTTPServer bool
	Workers    WorkerConfig
}

type WorkerConfig struct {
	PendingSweeper WorkerMode
}

func (w WorkerConfig) AnyEnabled() bool {
	return w.PendingSweeper.Runs()
}
