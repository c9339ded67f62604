// Command nvrd is the NVR core daemon: it loads the Configuration Store,
// builds a Camera Supervisor per enabled camera, wires the Recording
// Coordinator and Host Adapter against the supervision tree, and serves a
// health endpoint until told to shut down.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/YawnsDuzin/nvr-gstreamer-sub001/internal/config"
	"github.com/YawnsDuzin/nvr-gstreamer-sub001/internal/health"
	"github.com/YawnsDuzin/nvr-gstreamer-sub001/internal/hostadapter"
	"github.com/YawnsDuzin/nvr-gstreamer-sub001/internal/logging"
	"github.com/YawnsDuzin/nvr-gstreamer-sub001/internal/pipeline"
	"github.com/YawnsDuzin/nvr-gstreamer-sub001/internal/recording"
	"github.com/YawnsDuzin/nvr-gstreamer-sub001/internal/supervisor"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file (YAML or JSON)")
	healthAddr := flag.String("health-addr", ":8090", "address for the /healthz and /metrics endpoints")
	flag.Parse()

	if err := run(*configPath, *healthAddr); err != nil {
		fmt.Fprintln(os.Stderr, "nvrd:", err)
		os.Exit(1)
	}
}

func run(configPath, healthAddr string) error {
	log := logging.Init("info", os.Stderr)

	store := config.New(logging.Component(log, "config"))
	if err := store.Load(configPath); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := store.WatchFile(configPath); err != nil {
		log.Warn().Err(err).Msg("could not watch config file for changes")
	}
	defer store.Close()

	app := store.AppConfig()
	recordingRoot := app.RecordingPath
	if recordingRoot == "" {
		recordingRoot = "./recordings"
	}

	root := supervisor.NewRoot(logging.Component(log, "supervisor"))
	root.LoadFromConfig(store, recordingRoot)

	pipelineLookup := func(cameraID string) (*pipeline.Pipeline, bool) {
		cs, ok := root.Get(cameraID)
		if !ok {
			return nil, false
		}
		pipe := cs.Pipeline()
		return pipe, pipe != nil
	}
	coordinator := recording.New(recordingRoot, pipelineLookup, logging.Component(log, "recording"))

	supervisorLookup := func(cameraID string) (*supervisor.CameraSupervisor, bool) {
		return root.Get(cameraID)
	}
	adapter := hostadapter.New(supervisorLookup, logging.Component(log, "hostadapter"))
	_ = adapter // exercised by the host surface binding protocol, no HTTP surface of its own per spec.md §1 scope

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthHandler := health.NewHandler(daemonStatus{root: root}).WithDiskInfo(daemonDisk{coordinator: coordinator})
	httpHandler := logging.RequestID(logging.Component(log, "http"), healthHandler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return health.ListenAndServe(gctx, healthAddr, httpHandler)
	})
	g.Go(func() error {
		return root.Run(gctx)
	})
	g.Go(func() error {
		return runRetentionLoop(gctx, coordinator)
	})

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := coordinator.StopAll(stopCtx); err != nil {
		log.Error().Err(err).Msg("stop_all reported failures")
	}

	return g.Wait()
}

// runRetentionLoop sweeps the recording root daily, per spec.md §6 "30-day
// retention" default carried into the recording filesystem as well.
func runRetentionLoop(ctx context.Context, coordinator *recording.Coordinator) error {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := coordinator.RetentionSweep(30, coordinator.ActivePaths()); err != nil {
				return err
			}
		}
	}
}

// daemonStatus adapts the supervision tree to health.StatusProvider.
type daemonStatus struct {
	root *supervisor.Root
}

func (d daemonStatus) Cameras() []health.CameraInfo {
	all := d.root.All()
	out := make([]health.CameraInfo, 0, len(all))
	for _, cs := range all {
		stats := cs.Stats()
		info := health.CameraInfo{
			CameraID:       stats.CameraID,
			PipelineState:  stats.PipelineState.String(),
			Healthy:        cs.CheckHealth(10 * time.Second),
			FramesReceived: stats.FramesReceived,
			UptimeSeconds:  stats.UptimeSeconds,
		}
		if stats.LastError != nil {
			info.LastError = stats.LastError.Error()
		}
		out = append(out, info)
	}
	return out
}

// daemonDisk adapts the Recording Coordinator to health.DiskInfoProvider.
type daemonDisk struct {
	coordinator *recording.Coordinator
}

func (d daemonDisk) DiskUsage() health.DiskInfo {
	total, _, err := d.coordinator.DiskUsage()
	if err != nil {
		return health.DiskInfo{}
	}
	return health.DiskInfo{TotalBytes: total.TotalBytes, FileCount: total.FileCount}
}
