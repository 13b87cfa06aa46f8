// Package cmd holds the camrec subcommands.
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/camtools/camrec/internal/ffmpeg"
	"github.com/camtools/camrec/internal/logging"
	"github.com/camtools/camrec/internal/recorder"
)

// CreateRecordCmd creates the record command: supervise a single camera
// without a config file, everything on flags.
func CreateRecordCmd() *cobra.Command {
	var (
		rtspURL      string
		outputDir    string
		prefix       string
		segment      int
		tcp          bool
		restartDelay int
		maxRestarts  int
		maxDuration  int
		graceTimeout int
		logPath      string
		logJSON      bool
		extraArgs    []string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record one RTSP camera to segmented MKV files",
		Long: `Launches ffmpeg to copy an RTSP stream into timestamped MKV segment files ` +
			`and supervises it: crashes are relaunched after a delay, SIGINT/SIGTERM ` +
			`stop the capture gracefully so the current segment stays playable.`,
		Run: func(_ *cobra.Command, _ []string) {
			loggingConfig := logging.Config{Level: "info", Format: "text"}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)

			name := prefix
			if name == "" {
				name = "camera"
			}
			logger := logging.GetLogger("recorder").With("camera", name)

			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				logger.Error("Failed to create output directory", "error", err)
				os.Exit(1)
			}

			command := ffmpeg.BuildCommand(&ffmpeg.Params{
				RTSPURL:        rtspURL,
				TCP:            tcp,
				OutputDir:      outputDir,
				FilePrefix:     name,
				SegmentSeconds: segment,
				ExtraArgs:      extraArgs,
			})

			target := recorder.Target{
				Name:         name,
				Command:      command,
				OutputDir:    outputDir,
				RestartDelay: time.Duration(restartDelay) * time.Second,
				MaxRestarts:  maxRestarts,
				MaxDuration:  time.Duration(maxDuration) * time.Second,
				LogPath:      logPath,
			}
			if err := target.Validate(); err != nil {
				logger.Error("Invalid recording settings", "error", err)
				os.Exit(1)
			}

			launcher := recorder.NewExecLauncher(logger)
			launcher.SetLogParser(logging.GetLogger("ffmpeg").With("camera", name), ffmpeg.ParseLogLevel)

			if logPath != "" {
				sink, err := recorder.NewFileSink(logPath)
				if err != nil {
					logger.Error("Failed to open capture log file", "error", err)
					os.Exit(1)
				}
				defer sink.Close()
				sink.WriteBanner(fmt.Sprintf("recording %s started %s", name, time.Now().Format(time.RFC3339)))
				launcher.SetOutputHandler(sink)
			}

			// One shutdown request is enough; later signals are acknowledged
			// but never escalate, so the grace timeout stays intact.
			stop := make(chan struct{})
			var stopOnce sync.Once
			sigCh := make(chan os.Signal, 2)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				for sig := range sigCh {
					delivered := false
					stopOnce.Do(func() {
						logger.Info("Received signal, stopping", "signal", sig.String())
						close(stop)
						delivered = true
					})
					if !delivered {
						logger.Info("Shutdown already in progress, ignoring signal", "signal", sig.String())
					}
				}
			}()

			sup := recorder.New(target, launcher, stop, logger,
				recorder.WithGraceTimeout(time.Duration(graceTimeout)*time.Second))
			result := sup.Run()

			os.Exit(result.Reason.ExitCode())
		},
	}

	cmd.Flags().StringVar(&rtspURL, "rtsp", "", "RTSP URL of the camera (required)")
	cmd.Flags().StringVar(&outputDir, "out", "", "Directory for MKV segment files (required)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Segment filename prefix (default: camera)")
	cmd.Flags().IntVar(&segment, "segment", ffmpeg.DefaultSegmentSeconds, "Seconds of video per segment file")
	cmd.Flags().BoolVar(&tcp, "tcp", false, "Tunnel RTP over TCP instead of UDP")
	cmd.Flags().IntVar(&restartDelay, "restart-delay", 5, "Seconds to wait before relaunching after a crash")
	cmd.Flags().IntVar(&maxRestarts, "max-restarts", 0, "Stop for good after this many restarts (0 = unlimited)")
	cmd.Flags().IntVar(&maxDuration, "max-duration", 14400, "Total recording time cap in seconds (0 = unlimited)")
	cmd.Flags().IntVar(&graceTimeout, "grace-timeout", 3, "Seconds ffmpeg gets to finalise the current segment on stop")
	cmd.Flags().StringVar(&logPath, "log", "", "Append ffmpeg output to this file")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Use JSON log format")
	cmd.Flags().StringSliceVar(&extraArgs, "extra-ffmpeg-args", nil, "Extra ffmpeg output arguments")

	_ = cmd.MarkFlagRequired("rtsp")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
