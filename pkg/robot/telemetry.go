// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Kelpie Robotics

package robot

import (
	"go.uber.org/zap"

	"github.com/kelpie-robotics/uplink/pkg/messages"
	"github.com/kelpie-robotics/uplink/pkg/wire"
)

// sendTelemetry serializes a value, stores it in the pull buffer for future
// telemetry requests and, unless requestOnly, pushes the framed blob on the
// telemetry transport. It returns the payload bytes sent (framed size when
// requestOnly), 0 on any failure.
func (r *ControlledRobot) sendTelemetry(v any, kind wire.TelemetryType, requestOnly bool) int {
	if r.telemetryTransport == nil {
		r.logger.Error("no telemetry transport configured",
			zap.Stringer("kind", kind))
		return 0
	}
	data, err := r.codec.Encode(v)
	if err != nil {
		r.logger.Error("telemetry encode failed",
			zap.Stringer("kind", kind), zap.Error(err))
		return 0
	}
	// Store latest data for future requests.
	r.buffers.Store(kind, data)
	frame := wire.Frame(uint16(kind), data)
	if requestOnly {
		return len(frame)
	}
	n, err := r.telemetryTransport.Send(frame)
	if err != nil {
		r.logger.Warn("telemetry send failed",
			zap.Stringer("kind", kind), zap.Error(err))
		return 0
	}
	if n == 0 {
		return 0
	}
	r.stats.addBytesSent(kind, uint64(n))
	return n - wire.TypeSize
}

// Init helpers announce static robot capabilities to the controller.

// InitRobotName provides the robot's name.
func (r *ControlledRobot) InitRobotName(telemetry *messages.RobotName) int {
	return r.sendTelemetry(telemetry, wire.RobotName, false)
}

// InitControllableJoints provides the set of joints a controller may command.
func (r *ControlledRobot) InitControllableJoints(telemetry *messages.JointState) int {
	return r.sendTelemetry(telemetry, wire.ControllableJoints, false)
}

// InitSimpleActions provides the robot's set of simple actions. The State
// field of each action should carry its maximum value.
func (r *ControlledRobot) InitSimpleActions(telemetry *messages.SimpleActions) int {
	return r.sendTelemetry(telemetry, wire.SimpleActions, false)
}

// InitComplexActions provides the robot's set of complex actions.
func (r *ControlledRobot) InitComplexActions(telemetry *messages.ComplexActions) int {
	return r.sendTelemetry(telemetry, wire.ComplexActions, false)
}

// InitSimpleSensors announces the robot's sensors. Only names and ids are
// mandatory here; SetSimpleSensor may then identify values by id alone.
func (r *ControlledRobot) InitSimpleSensors(telemetry *messages.SimpleSensors) int {
	return r.sendTelemetry(telemetry, wire.SimpleSensorDefinition, false)
}

// InitMapsDefinition announces the robot's requestable maps. The definition
// is only buffered for pull; maps travel on the command channel on request.
func (r *ControlledRobot) InitMapsDefinition(telemetry *messages.MapsDefinition) int {
	return r.sendTelemetry(telemetry, wire.MapsDefinition, true)
}

// InitVideoStreams provides the robot's video stream URLs and camera poses.
func (r *ControlledRobot) InitVideoStreams(telemetry *messages.VideoStreams) int {
	return r.sendTelemetry(telemetry, wire.VideoStreams, false)
}

// InitControllableFrames provides the frames that accept direct commands.
func (r *ControlledRobot) InitControllableFrames(telemetry *messages.ControllableFrames) int {
	return r.sendTelemetry(telemetry, wire.ControllableFrames, false)
}

// Telemetry setters push current state. Each returns the payload bytes
// sent, 0 on failure.

// SetCurrentPose pushes the robot's current pose.
func (r *ControlledRobot) SetCurrentPose(telemetry *messages.Pose) int {
	return r.sendTelemetry(telemetry, wire.CurrentPose, false)
}

// SetCurrentTwist pushes the robot's current velocities.
func (r *ControlledRobot) SetCurrentTwist(telemetry *messages.Twist) int {
	return r.sendTelemetry(telemetry, wire.CurrentTwist, false)
}

// SetCurrentAcceleration pushes the robot's current acceleration.
func (r *ControlledRobot) SetCurrentAcceleration(telemetry *messages.Acceleration) int {
	return r.sendTelemetry(telemetry, wire.CurrentAcceleration, false)
}

// SetCurrentIMUValues pushes raw IMU readings.
func (r *ControlledRobot) SetCurrentIMUValues(imu *messages.IMU) int {
	return r.sendTelemetry(imu, wire.IMUValues, false)
}

// SetCurrentContactPoints pushes the current ground/object contacts.
func (r *ControlledRobot) SetCurrentContactPoints(points *messages.ContactPoints) int {
	return r.sendTelemetry(points, wire.ContactPoints, false)
}

// SetPoses pushes a repeated field of poses.
func (r *ControlledRobot) SetPoses(telemetry *messages.Poses) int {
	return r.sendTelemetry(telemetry, wire.Poses, false)
}

// SetJointState pushes the current joint state.
func (r *ControlledRobot) SetJointState(telemetry *messages.JointState) int {
	return r.sendTelemetry(telemetry, wire.JointState, false)
}

// SetWrenchState pushes the current wrench state.
func (r *ControlledRobot) SetWrenchState(telemetry *messages.WrenchState) int {
	return r.sendTelemetry(telemetry, wire.WrenchState, false)
}

// SetSimpleSensor pushes a single sensor value. The name may be omitted
// when it was announced via InitSimpleSensors.
func (r *ControlledRobot) SetSimpleSensor(telemetry *messages.SimpleSensor) int {
	return r.sendTelemetry(telemetry, wire.SimpleSensorValue, false)
}

// SetCurrentTransforms pushes the current frame transforms.
func (r *ControlledRobot) SetCurrentTransforms(telemetry *messages.Transforms) int {
	return r.sendTelemetry(telemetry, wire.Transforms, false)
}

// SetPointCloud pushes a point cloud over telemetry.
func (r *ControlledRobot) SetPointCloud(pointcloud *messages.PointCloud) int {
	return r.sendTelemetry(pointcloud, wire.PointCloud, false)
}

// SetOdometry pushes fused odometry.
func (r *ControlledRobot) SetOdometry(telemetry *messages.Odometry) int {
	return r.sendTelemetry(telemetry, wire.Odometry, false)
}

// SetCameraInformation pushes camera intrinsics.
func (r *ControlledRobot) SetCameraInformation(telemetry *messages.CameraInformation) int {
	return r.sendTelemetry(telemetry, wire.CameraInformation, false)
}

// SetImage pushes a camera frame.
func (r *ControlledRobot) SetImage(telemetry *messages.Image) int {
	return r.sendTelemetry(telemetry, wire.Image, false)
}

// SetImageLayers pushes a group of related camera frames.
func (r *ControlledRobot) SetImageLayers(telemetry *messages.ImageLayers) int {
	return r.sendTelemetry(telemetry, wire.ImageLayers, false)
}

// SetRobotState pushes a single state string.
func (r *ControlledRobot) SetRobotState(state string) int {
	return r.sendTelemetry(&messages.RobotState{State: []string{state}}, wire.RobotState, false)
}

// SetRobotStates pushes one state string per aspect.
func (r *ControlledRobot) SetRobotStates(state []string) int {
	return r.sendTelemetry(&messages.RobotState{State: state}, wire.RobotState, false)
}

// SetRobotStateValue pushes a prepared RobotState.
func (r *ControlledRobot) SetRobotStateValue(state *messages.RobotState) int {
	return r.sendTelemetry(state, wire.RobotState, false)
}

// SetLogMessage sends a log line to the controller, gated by the log level
// the controller selected: emitted iff level <= selected or
// level >= LevelCustom. Returns -1 when gated off.
func (r *ControlledRobot) SetLogMessage(level uint16, message string) int {
	return r.SetLogMessageValue(&messages.LogMessage{
		Level:     level,
		Message:   message,
		Timestamp: GetTime(),
	})
}

// SetLogMessageValue sends a prepared LogMessage under the same gating.
func (r *ControlledRobot) SetLogMessageValue(msg *messages.LogMessage) int {
	if uint32(msg.Level) <= r.logLevel.Load() || msg.Level >= wire.LevelCustom {
		return r.sendTelemetry(msg, wire.LogMessage, false)
	}
	return -1
}

// SetMap stores a serialized map payload for a map slot. Maps are not
// pushed; they are sent on the command channel when requested.
func (r *ControlledRobot) SetMap(data []byte, mapID uint32) {
	r.mapStore.Set(mapID, data)
}

// SetMapValue stores a typed Map payload for a map slot.
func (r *ControlledRobot) SetMapValue(m *messages.Map, mapID uint32) error {
	data, err := r.codec.Encode(m)
	if err != nil {
		return err
	}
	r.SetMap(data, mapID)
	return nil
}

// SetPointCloudMap stores a point cloud in the well-known point cloud map
// slot.
func (r *ControlledRobot) SetPointCloudMap(pointcloud *messages.PointCloud) error {
	data, err := r.codec.Encode(pointcloud)
	if err != nil {
		return err
	}
	return r.SetMapValue(&messages.Map{ID: wire.PointCloudMap, Data: data}, wire.PointCloudMap)
}

// SetGridMap stores a serialized grid map in the well-known grid map slot.
func (r *ControlledRobot) SetGridMap(data []byte) error {
	return r.SetMapValue(&messages.Map{ID: wire.GridMap, Data: data}, wire.GridMap)
}
