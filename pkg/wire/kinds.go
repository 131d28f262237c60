// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Kelpie Robotics

package wire

// ControlType identifies command and pull-request messages on the command
// transport. IDs are stable on the wire.
type ControlType uint16

// Control message kinds (controller -> robot)
const (
	NoData ControlType = iota
	TargetPoseCommand
	TwistCommand
	GoToCommand
	JointsCommand
	SimpleActionsCommand
	ComplexActionCommand
	RobotTrajectoryCommand
	Heartbeat
	Permission
	LogLevelSelect
	MapRequest
	TelemetryRequest
	FileRequest
)

// TelemetryType identifies pushable state messages on the telemetry
// transport. IDs are stable on the wire.
type TelemetryType uint16

// Telemetry message kinds (robot -> controller)
const (
	NoTelemetryData TelemetryType = iota
	CurrentPose
	CurrentTwist
	CurrentAcceleration
	JointState
	ControllableJoints
	SimpleActions
	ComplexActions
	RobotName
	RobotState
	LogMessage
	VideoStreams
	SimpleSensorDefinition
	SimpleSensorValue
	WrenchState
	MapsDefinition
	MapData
	Poses
	Transforms
	PermissionRequest
	PointCloud
	IMUValues
	ContactPoints
	CameraInformation
	Image
	ImageLayers
	Odometry
	ControllableFrames
	FileDefinition
)

// Log levels carried in LogMessage telemetry. A message is emitted iff
// level <= selected level OR level >= LevelCustom.
const (
	LevelNone uint16 = iota
	LevelFatal
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug

	LevelCustom uint16 = 20
)

// Well-known map slot IDs for MapRequest
const (
	PointCloudMap uint32 = iota
	GridMap
)

var controlNames = map[ControlType]string{
	NoData:                 "NO_DATA",
	TargetPoseCommand:      "TARGET_POSE_COMMAND",
	TwistCommand:           "TWIST_COMMAND",
	GoToCommand:            "GOTO_COMMAND",
	JointsCommand:          "JOINTS_COMMAND",
	SimpleActionsCommand:   "SIMPLE_ACTIONS_COMMAND",
	ComplexActionCommand:   "COMPLEX_ACTION_COMMAND",
	RobotTrajectoryCommand: "ROBOT_TRAJECTORY_COMMAND",
	Heartbeat:              "HEARTBEAT",
	Permission:             "PERMISSION",
	LogLevelSelect:         "LOG_LEVEL_SELECT",
	MapRequest:             "MAP_REQUEST",
	TelemetryRequest:       "TELEMETRY_REQUEST",
	FileRequest:            "FILE_REQUEST",
}

var telemetryNames = map[TelemetryType]string{
	NoTelemetryData:        "NO_TELEMETRY_DATA",
	CurrentPose:            "CURRENT_POSE",
	CurrentTwist:           "CURRENT_TWIST",
	CurrentAcceleration:    "CURRENT_ACCELERATION",
	JointState:             "JOINT_STATE",
	ControllableJoints:     "CONTROLLABLE_JOINTS",
	SimpleActions:          "SIMPLE_ACTIONS",
	ComplexActions:         "COMPLEX_ACTIONS",
	RobotName:              "ROBOT_NAME",
	RobotState:             "ROBOT_STATE",
	LogMessage:             "LOG_MESSAGE",
	VideoStreams:           "VIDEO_STREAMS",
	SimpleSensorDefinition: "SIMPLE_SENSOR_DEFINITION",
	SimpleSensorValue:      "SIMPLE_SENSOR_VALUE",
	WrenchState:            "WRENCH_STATE",
	MapsDefinition:         "MAPS_DEFINITION",
	MapData:                "MAP",
	Poses:                  "POSES",
	Transforms:             "TRANSFORMS",
	PermissionRequest:      "PERMISSION_REQUEST",
	PointCloud:             "POINTCLOUD",
	IMUValues:              "IMU_VALUES",
	ContactPoints:          "CONTACT_POINTS",
	CameraInformation:      "CAMERA_INFORMATION",
	Image:                  "IMAGE",
	ImageLayers:            "IMAGE_LAYERS",
	Odometry:               "ODOMETRY",
	ControllableFrames:     "CONTROLLABLE_FRAMES",
	FileDefinition:         "FILE_DEFINITION",
}

// String returns the wire name of a control kind, or "UNKNOWN".
func (t ControlType) String() string {
	if name, ok := controlNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// String returns the wire name of a telemetry kind, or "UNKNOWN".
func (t TelemetryType) String() string {
	if name, ok := telemetryNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}
