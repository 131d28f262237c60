// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Kelpie Robotics

package cmd

import (
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kelpie-robotics/uplink/pkg/messages"
	"github.com/kelpie-robotics/uplink/pkg/robot"
	"github.com/kelpie-robotics/uplink/pkg/wire"
)

var (
	robotName     string
	filesManifest string
	updatePeriod  time.Duration
	simulate      bool
	askPermission bool
	withTUI       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the controlled robot engine",
	Long: `Runs the robot-side engine: answers controller requests, supervises the
heartbeat and pushes telemetry.

With --simulate the robot integrates received twist commands into a pose
and publishes it, which makes the daemon usable as a controller test
peer without hardware.`,
	RunE: runServe,
}

// fileManifest is the YAML schema of the --files manifest.
type fileManifest struct {
	Files []struct {
		Identifier string `yaml:"identifier"`
		Path       string `yaml:"path"`
		Folder     bool   `yaml:"folder"`
	} `yaml:"files"`
}

func init() {
	serveCmd.Flags().StringVarP(&robotName, "name", "n", "uplink-robot", "Robot name announced to the controller")
	serveCmd.Flags().StringVar(&filesManifest, "files", "", "YAML manifest of requestable files/folders")
	serveCmd.Flags().DurationVar(&updatePeriod, "update-period", 10*time.Millisecond, "Command dispatch period")
	serveCmd.Flags().BoolVar(&simulate, "simulate", false, "Integrate twist commands into a simulated pose")
	serveCmd.Flags().BoolVar(&askPermission, "ask-permission", false, "Request controller permission at start and report the answer as robot state")
	serveCmd.Flags().BoolVar(&withTUI, "tui", false, "Show a live status dashboard")
	rootCmd.AddCommand(serveCmd)
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	return cfg.Build()
}

func loadFileManifest(path string) (*messages.FileDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	var manifest fileManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	def := &messages.FileDefinition{}
	for _, entry := range manifest.Files {
		def.Files = append(def.Files, messages.FileDef{
			Identifier: entry.Identifier,
			Path:       entry.Path,
			IsFolder:   entry.Folder,
		})
	}
	return def, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	commandTransport, telemetryTransport, desc, err := OpenTransports()
	if err != nil {
		return err
	}
	defer commandTransport.Close()
	if telemetryTransport != nil {
		defer telemetryTransport.Close()
	}
	logger.Info("transports open", zap.String("connection", desc))

	controlled := robot.New(commandTransport, telemetryTransport,
		robot.WithLogger(logger.Named("engine")))

	controlled.SetupHeartbeatCallback(100*time.Millisecond, func(elapsed time.Duration) {
		logger.Warn("controller connection lost", zap.Duration("elapsed", elapsed))
	})
	controlled.AddCommandReceivedCallback(func(kind uint16) {
		logger.Debug("command received", zap.Stringer("kind", wire.ControlType(kind)))
	})

	if filesManifest != "" {
		def, err := loadFileManifest(filesManifest)
		if err != nil {
			return err
		}
		controlled.InitFiles(def)
		logger.Info("file definitions loaded", zap.Int("count", len(def.Files)))
	}

	controlled.InitRobotName(&messages.RobotName{Value: robotName})
	controlled.SetRobotState("IDLE")

	if err := controlled.StartUpdateLoop(updatePeriod); err != nil {
		return err
	}
	defer controlled.Stop()

	if askPermission {
		go awaitStartPermission(controlled, logger)
	}

	stopSim := make(chan struct{})
	defer close(stopSim)
	if simulate {
		go simulateRobot(controlled, stopSim)
	}

	if withTUI {
		return runStatusTUI(controlled)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")
	return nil
}

// awaitStartPermission asks the controller to approve operation and parks
// until the answer arrives.
func awaitStartPermission(controlled *robot.ControlledRobot, logger *zap.Logger) {
	req := &messages.PermissionRequest{
		Description: "start autonomous operation",
		RequestUID:  uuid.NewString(),
	}
	future := controlled.RequestPermission(req)
	logger.Info("permission requested", zap.String("requestuid", req.RequestUID))
	<-future.Done()
	if future.Granted() {
		controlled.SetRobotState("RUNNING")
		logger.Info("permission granted")
	} else {
		controlled.SetRobotState("HELD")
		logger.Warn("permission denied")
	}
}

// simulateRobot integrates twist commands into a planar pose and publishes
// pose + odometry at a fixed rate.
func simulateRobot(controlled *robot.ControlledRobot, stop <-chan struct{}) {
	const dt = 50 * time.Millisecond
	var x, y, yaw float64
	var twist messages.Twist

	ticker := time.NewTicker(dt)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		controlled.GetTwistCommand(&twist)
		step := dt.Seconds()
		yaw += twist.Angular.Z * step
		x += twist.Linear.X * math.Cos(yaw) * step
		y += twist.Linear.X * math.Sin(yaw) * step

		pose := messages.Pose{
			Position:    messages.Vector3{X: x, Y: y},
			Orientation: messages.Quaternion{Z: math.Sin(yaw / 2), W: math.Cos(yaw / 2)},
			Frame:       "odom",
			Timestamp:   robot.GetTime(),
		}
		controlled.SetCurrentPose(&pose)
		controlled.SetOdometry(&messages.Odometry{
			Pose:      pose,
			Twist:     twist,
			Timestamp: pose.Timestamp,
		})
	}
}
