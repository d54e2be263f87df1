package telemetry

import (
	"fmt"
	"runtime"

	"github.com/grafana/pyroscope-go"
)

// ProfilingConfig configures Pyroscope continuous profiling of the server.
type ProfilingConfig struct {
	// Enabled starts the profiler. Off by default.
	Enabled bool

	// ServiceName is the application name profiles are filed under.
	ServiceName string

	// ServiceVersion is attached to every profile as the "version" tag.
	ServiceVersion string

	// Endpoint is the Pyroscope server URL (e.g., "http://localhost:4040").
	Endpoint string

	// ProfileTypes lists the profiles to collect by name. See profileTypes
	// for the accepted names. Empty means DefaultProfileTypes.
	ProfileTypes []string
}

// DefaultProfileTypes is used when profiling is enabled without an explicit list.
var DefaultProfileTypes = []string{"cpu", "alloc_space", "inuse_space", "goroutines"}

// profileTypes maps configuration names to Pyroscope profile types.
var profileTypes = map[string]pyroscope.ProfileType{
	"cpu":            pyroscope.ProfileCPU,
	"alloc_objects":  pyroscope.ProfileAllocObjects,
	"alloc_space":    pyroscope.ProfileAllocSpace,
	"inuse_objects":  pyroscope.ProfileInuseObjects,
	"inuse_space":    pyroscope.ProfileInuseSpace,
	"goroutines":     pyroscope.ProfileGoroutines,
	"mutex_count":    pyroscope.ProfileMutexCount,
	"mutex_duration": pyroscope.ProfileMutexDuration,
	"block_count":    pyroscope.ProfileBlockCount,
	"block_duration": pyroscope.ProfileBlockDuration,
}

// runtimeSampleRate is handed to the runtime when mutex or block profiles are
// requested; the runtime collects neither by default.
const runtimeSampleRate = 5

var (
	profiler         *pyroscope.Profiler
	profilingEnabled bool
)

// InitProfiling starts pushing profiles to Pyroscope. The returned function
// stops the profiler. Unknown profile names fail before anything starts.
func InitProfiling(cfg ProfilingConfig) (shutdown func() error, err error) {
	profilingEnabled = false
	if !cfg.Enabled {
		return func() error { return nil }, nil
	}

	names := cfg.ProfileTypes
	if len(names) == 0 {
		names = DefaultProfileTypes
	}

	types := make([]pyroscope.ProfileType, 0, len(names))
	for _, name := range names {
		pt, err := parseProfileType(name)
		if err != nil {
			return nil, fmt.Errorf("invalid profile type %q: %w", name, err)
		}
		types = append(types, pt)
	}
	enableRuntimeProfiles(names)

	profiler, err = pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ServiceName,
		ServerAddress:   cfg.Endpoint,
		Tags:            map[string]string{"version": cfg.ServiceVersion},
		ProfileTypes:    types,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Pyroscope profiler: %w", err)
	}
	profilingEnabled = true

	p := profiler
	return p.Stop, nil
}

// enableRuntimeProfiles turns on the runtime sampling that mutex and block
// profiles depend on.
func enableRuntimeProfiles(names []string) {
	for _, name := range names {
		switch name {
		case "mutex_count", "mutex_duration":
			runtime.SetMutexProfileFraction(runtimeSampleRate)
		case "block_count", "block_duration":
			runtime.SetBlockProfileRate(runtimeSampleRate)
		}
	}
}

// IsProfilingEnabled reports whether the profiler is running.
func IsProfilingEnabled() bool {
	return profilingEnabled
}

func parseProfileType(name string) (pyroscope.ProfileType, error) {
	pt, ok := profileTypes[name]
	if !ok {
		return pyroscope.ProfileCPU, fmt.Errorf("unknown profile type: %s", name)
	}
	return pt, nil
}
