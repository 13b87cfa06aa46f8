package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/camtools/camrec/cmd"
	"github.com/camtools/camrec/internal/config"
	"github.com/camtools/camrec/internal/events"
	"github.com/camtools/camrec/internal/ffmpeg"
	"github.com/camtools/camrec/internal/logging"
	"github.com/camtools/camrec/internal/metrics"
	"github.com/camtools/camrec/internal/recorder"
	"github.com/camtools/camrec/internal/segments"
	"github.com/camtools/camrec/internal/systemd"
	"github.com/camtools/camrec/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Recording settings
	Cameras      string `help:"Camera definitions file" default:"cameras.toml" toml:"recording.cameras_file" env:"CAMERAS"`
	GraceTimeout int    `help:"Seconds a capture process gets to finalise its segment on stop" default:"3" toml:"recording.grace_timeout_seconds" env:"GRACE_TIMEOUT"`

	// Metrics settings
	MetricsAddr string `help:"Prometheus metrics listen address (empty = disabled)" default:"" toml:"metrics.addr" env:"METRICS_ADDR"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingRecorder string `help:"Recorder logging level" default:"info" toml:"logging.recorder" env:"LOGGING_RECORDER"`
	LoggingSegments string `help:"Segment watcher logging level" default:"info" toml:"logging.segments" env:"LOGGING_SEGMENTS"`
	LoggingFfmpeg   string `help:"Capture process output logging level" default:"info" toml:"logging.ffmpeg" env:"LOGGING_FFMPEG"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"recorder": opts.LoggingRecorder,
				"segments": opts.LoggingSegments,
				"ffmpeg":   opts.LoggingFfmpeg,
			},
		})

		logger := logging.GetLogger("main")
		logger.Info("Starting camrec", "version", version.String())

		camerasConfig, err := config.LoadCameras(opts.Cameras)
		if err != nil {
			logger.Error("Invalid cameras configuration", "error", err)
			os.Exit(1)
		}
		if err = camerasConfig.EnsureDirs(); err != nil {
			logger.Error("Failed to prepare directories", "error", err)
			os.Exit(1)
		}
		targets, err := camerasConfig.Targets()
		if err != nil {
			logger.Error("Invalid cameras configuration", "error", err)
			os.Exit(1)
		}

		bus := events.New()
		unbindMetrics := metrics.Bind(bus)

		// Each camera gets its own launcher so ffmpeg output lands in that
		// camera's log file with that camera's context attributes.
		factory := func(target recorder.Target) (recorder.Launcher, error) {
			launcherLogger := logging.GetLogger("recorder").With("camera", target.Name)
			launcher := recorder.NewExecLauncher(launcherLogger)
			launcher.SetLogParser(logging.GetLogger("ffmpeg").With("camera", target.Name), ffmpeg.ParseLogLevel)

			if target.LogPath != "" {
				sink, sinkErr := recorder.NewFileSink(target.LogPath)
				if sinkErr != nil {
					return nil, sinkErr
				}
				sink.WriteBanner(fmt.Sprintf("camrec %s recording %s started %s",
					version.String(), target.Name, time.Now().Format(time.RFC3339)))
				launcher.SetOutputHandler(sink)
			}
			return launcher, nil
		}

		coordinator := recorder.NewCoordinator(targets, factory, logging.GetLogger("recorder"),
			recorder.WithCoordinatorGraceTimeout(time.Duration(opts.GraceTimeout)*time.Second),
			recorder.WithCoordinatorTransitionFunc(func(target string, from, to recorder.State, reason recorder.StopReason) {
				bus.Publish(events.SupervisorStateEvent{
					Camera: target, From: string(from), To: string(to), Timestamp: time.Now(),
				})
				if to == recorder.StateTerminal {
					bus.Publish(events.RecordingStoppedEvent{
						Camera: target, Reason: reason.String(), Timestamp: time.Now(),
					})
				}
			}),
			recorder.WithCoordinatorExitFunc(func(target string, pid int, status recorder.ExitStatus, launches int) {
				bus.Publish(events.ProcessExitedEvent{
					Camera: target, PID: pid, ExitCode: status.Code, Signaled: status.Signaled,
					Launches: launches, Timestamp: time.Now(),
				})
			}))

		outputDirs := make(map[string]string, len(targets))
		for _, target := range targets {
			outputDirs[target.OutputDir] = target.Name
		}
		segmentWatcher := segments.NewWatcher(outputDirs, bus, logging.GetLogger("segments"))

		var metricsServer *metrics.Server
		if opts.MetricsAddr != "" {
			metricsServer = metrics.NewServer(opts.MetricsAddr, logging.GetLogger("metrics"))
		}

		done := make(chan struct{})

		hooks.OnStart(func() {
			// Missing segment events cost observability, not recordings.
			if watchErr := segmentWatcher.Start(); watchErr != nil {
				logger.Warn("Segment watcher disabled", "error", watchErr)
			}
			if metricsServer != nil {
				metricsServer.Start()
			}
			systemd.NotifyReady(logger)

			results, runErr := coordinator.Run()
			close(done)
			if runErr != nil {
				logger.Error("Recording ended with failures", "error", runErr)
			}

			_ = segmentWatcher.Stop()
			if metricsServer != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				_ = metricsServer.Shutdown(ctx)
				cancel()
			}
			unbindMetrics()

			os.Exit(recorder.ExitCode(results))
		})

		hooks.OnStop(func() {
			systemd.NotifyStopping(logger)
			coordinator.Stop()
			// Block until every supervisor has finished its graceful stop so
			// the process does not exit with segments still being finalised.
			<-done
		})
	})

	root := cli.Root()
	root.Use = "camrec"
	root.Version = version.String()
	root.AddCommand(cmd.CreateRecordCmd())
	root.AddCommand(cmd.CreateValidateCmd())

	cli.Run()
}
