package middleware

import (
	"github.com/grafana/pyroscope-go"

	"github.com/duynhne/callerid-service/config"
)

var profiler *pyroscope.Profiler

// InitProfiling starts Pyroscope continuous profiling
func InitProfiling(cfg config.ProfilingConfig) error {
	serviceName, namespace := detectServiceInfo(cfg.ServiceName)

	var err error
	profiler, err = pyroscope.Start(pyroscope.Config{
		ApplicationName: serviceName,
		ServerAddress:   cfg.Endpoint,
		Tags: map[string]string{
			"service":   serviceName,
			"namespace": namespace,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileMutexCount,
			pyroscope.ProfileMutexDuration,
		},
		Logger: pyroscope.StandardLogger,
	})
	return err
}

// StopProfiling stops Pyroscope profiling
func StopProfiling() {
	if profiler != nil {
		_ = profiler.Stop()
	}
}
