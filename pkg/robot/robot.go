// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Kelpie Robotics

// Package robot implements the controlled-side core of the uplink remote
// control protocol: a request evaluator and dispatch loop over a command
// transport, latest-value telemetry buffering over a telemetry transport,
// heartbeat supervision and permission round-trips.
//
// A single driver goroutine calls Update (or StartUpdateLoop does so on a
// ticker); the public setters and getters may be called from any goroutine
// concurrently with it.
package robot

import (
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kelpie-robotics/uplink/pkg/buffer"
	"github.com/kelpie-robotics/uplink/pkg/messages"
	"github.com/kelpie-robotics/uplink/pkg/transport"
	"github.com/kelpie-robotics/uplink/pkg/wire"
)

const defaultCommandQueueSize = 10

// ControlledRobot is the robot-side protocol engine. It receives commands
// and pull requests on the command transport, answers every one of them,
// and pushes telemetry on the telemetry transport.
type ControlledRobot struct {
	commandTransport   transport.Transport
	telemetryTransport transport.Transport

	codec  messages.Codec
	logger *zap.Logger

	queueSize   int
	compression bool

	// command buffers
	poseCommand            *latestCommand[messages.Pose]
	twistCommand           *latestCommand[messages.Twist]
	goToCommand            *latestCommand[messages.GoTo]
	jointsCommand          *latestCommand[messages.JointCommand]
	simpleActionCommand    *ringCommand[messages.SimpleAction]
	complexActionCommand   *ringCommand[messages.ComplexAction]
	robotTrajectoryCommand *latestCommand[messages.Poses]
	heartbeatCommand       *latestCommand[messages.HeartBeat]

	commandBuffers map[wire.ControlType]commandSlot

	callbackMu       sync.Mutex
	commandCallbacks []func(kind uint16)

	// buffer of sent telemetry (used for telemetry requests)
	buffers  *buffer.Telemetry
	mapStore *buffer.MapStore

	heartbeatMu              sync.Mutex
	heartbeatValues          messages.HeartBeat
	heartbeatAllowedLatency  time.Duration
	heartbeatExpiredCallback func(elapsed time.Duration)
	heartbeatTimer           expiryTimer
	connected                atomic.Bool

	logLevel atomic.Uint32

	permMu             sync.Mutex
	pendingPermissions map[string]*PermissionFuture

	filesMu      sync.Mutex
	files        []messages.FileDef
	compressWarn sync.Once

	stats *Statistics

	loopMu   sync.Mutex
	loopStop chan struct{}
	loopDone chan struct{}
}

// Option configures a ControlledRobot at construction.
type Option func(*ControlledRobot)

// WithLogger sets the engine's structured logger. Default is a no-op
// logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *ControlledRobot) { r.logger = logger }
}

// WithCodec replaces the payload codec. Default is CBOR.
func WithCodec(codec messages.Codec) Option {
	return func(r *ControlledRobot) { r.codec = codec }
}

// WithCommandQueueSize sets the capacity of the simple/complex action
// command queues.
func WithCommandQueueSize(n int) Option {
	return func(r *ControlledRobot) { r.queueSize = n }
}

// WithCompression enables or disables gzip compression of file replies.
// With compression off, requests for compressed files are served
// uncompressed and a warning is logged once.
func WithCompression(enabled bool) Option {
	return func(r *ControlledRobot) { r.compression = enabled }
}

// New creates an engine speaking on the given transports. The command
// transport carries requests and their replies; the telemetry transport
// carries pushes. Either may be nil when that direction is unused.
func New(commandTransport, telemetryTransport transport.Transport, opts ...Option) *ControlledRobot {
	r := &ControlledRobot{
		commandTransport:        commandTransport,
		telemetryTransport:      telemetryTransport,
		codec:                   messages.CBORCodec{},
		logger:                  zap.NewNop(),
		queueSize:               defaultCommandQueueSize,
		compression:             true,
		heartbeatAllowedLatency: 100 * time.Millisecond,
		buffers:                 buffer.NewTelemetry(),
		mapStore:                buffer.NewMapStore(),
		commandBuffers:          make(map[wire.ControlType]commandSlot),
		pendingPermissions:      make(map[string]*PermissionFuture),
		stats:                   newStatistics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logLevel.Store(uint32(wire.LevelCustom) - 1)

	r.poseCommand = newLatestCommand[messages.Pose](r.codec)
	r.twistCommand = newLatestCommand[messages.Twist](r.codec)
	r.goToCommand = newLatestCommand[messages.GoTo](r.codec)
	r.jointsCommand = newLatestCommand[messages.JointCommand](r.codec)
	r.simpleActionCommand = newRingCommand[messages.SimpleAction](r.codec, r.queueSize)
	r.complexActionCommand = newRingCommand[messages.ComplexAction](r.codec, r.queueSize)
	r.robotTrajectoryCommand = newLatestCommand[messages.Poses](r.codec)
	r.heartbeatCommand = newLatestCommand[messages.HeartBeat](r.codec)

	r.registerCommandType(wire.TargetPoseCommand, r.poseCommand)
	r.registerCommandType(wire.TwistCommand, r.twistCommand)
	r.registerCommandType(wire.GoToCommand, r.goToCommand)
	r.registerCommandType(wire.JointsCommand, r.jointsCommand)
	r.registerCommandType(wire.SimpleActionsCommand, r.simpleActionCommand)
	r.registerCommandType(wire.ComplexActionCommand, r.complexActionCommand)
	r.registerCommandType(wire.RobotTrajectoryCommand, r.robotTrajectoryCommand)
	r.registerCommandType(wire.Heartbeat, r.heartbeatCommand)

	r.registerTelemetryType(wire.CurrentPose, messages.Pose{})
	r.registerTelemetryType(wire.CurrentTwist, messages.Twist{})
	r.registerTelemetryType(wire.CurrentAcceleration, messages.Acceleration{})
	r.registerTelemetryType(wire.JointState, messages.JointState{})
	r.registerTelemetryType(wire.ControllableJoints, messages.JointState{})
	r.registerTelemetryType(wire.SimpleActions, messages.SimpleActions{})
	r.registerTelemetryType(wire.ComplexActions, messages.ComplexActions{})
	r.registerTelemetryType(wire.RobotName, messages.RobotName{})
	r.registerTelemetryType(wire.RobotState, messages.RobotState{})
	r.registerTelemetryType(wire.LogMessage, messages.LogMessage{})
	r.registerTelemetryType(wire.VideoStreams, messages.VideoStreams{})
	r.registerTelemetryType(wire.SimpleSensorDefinition, messages.SimpleSensors{})
	r.registerTelemetryType(wire.SimpleSensorValue, messages.SimpleSensor{})
	r.registerTelemetryType(wire.WrenchState, messages.WrenchState{})
	r.registerTelemetryType(wire.MapsDefinition, messages.MapsDefinition{})
	r.registerTelemetryType(wire.MapData, messages.Map{})
	r.registerTelemetryType(wire.Poses, messages.Poses{})
	r.registerTelemetryType(wire.Transforms, messages.Transforms{})
	// buffered like the rest; the answer arrives as a PERMISSION command and
	// fills the pending future
	r.registerTelemetryType(wire.PermissionRequest, messages.PermissionRequest{})
	r.registerTelemetryType(wire.PointCloud, messages.PointCloud{})
	r.registerTelemetryType(wire.IMUValues, messages.IMU{})
	r.registerTelemetryType(wire.ContactPoints, messages.ContactPoints{})
	r.registerTelemetryType(wire.CameraInformation, messages.CameraInformation{})
	r.registerTelemetryType(wire.Image, messages.Image{})
	r.registerTelemetryType(wire.ImageLayers, messages.ImageLayers{})
	r.registerTelemetryType(wire.Odometry, messages.Odometry{})
	r.registerTelemetryType(wire.ControllableFrames, messages.ControllableFrames{})
	r.registerTelemetryType(wire.FileDefinition, messages.FileDefinition{})

	return r
}

func (r *ControlledRobot) registerCommandType(kind wire.ControlType, slot commandSlot) {
	r.commandBuffers[kind] = slot
}

func (r *ControlledRobot) registerTelemetryType(kind wire.TelemetryType, prototype any) {
	r.buffers.Register(kind)
	r.stats.setName(kind, messages.TypeName(prototype))
}

// SetupHeartbeatCallback configures the local latency allowance added to
// the controller's announced heartbeat period, and the callback invoked
// once per expiry with the elapsed time since the last heartbeat.
func (r *ControlledRobot) SetupHeartbeatCallback(allowedLatency time.Duration, callback func(elapsed time.Duration)) {
	r.heartbeatMu.Lock()
	r.heartbeatAllowedLatency = allowedLatency
	r.heartbeatExpiredCallback = callback
	r.heartbeatMu.Unlock()
}

// IsConnected reports whether a controller is alive: true after any inbound
// command message, false initially and after heartbeat expiry.
func (r *ControlledRobot) IsConnected() bool {
	return r.connected.Load()
}

// LastHeartbeat returns the parameters of the most recent heartbeat.
func (r *ControlledRobot) LastHeartbeat() messages.HeartBeat {
	r.heartbeatMu.Lock()
	defer r.heartbeatMu.Unlock()
	return r.heartbeatValues
}

// AddCommandReceivedCallback registers a callback invoked with the numeric
// kind of every successfully dispatched command.
func (r *ControlledRobot) AddCommandReceivedCallback(callback func(kind uint16)) {
	r.callbackMu.Lock()
	r.commandCallbacks = append(r.commandCallbacks, callback)
	r.callbackMu.Unlock()
}

// AddCommandCallback registers a callback invoked whenever a command of the
// given kind is received. It returns an error for kinds without a command
// buffer.
func (r *ControlledRobot) AddCommandCallback(kind wire.ControlType, callback func()) error {
	slot, ok := r.commandBuffers[kind]
	if !ok {
		return errors.New("no command buffer for kind " + kind.String())
	}
	slot.addCallback(callback)
	return nil
}

// Statistics returns the per-engine telemetry send counters.
func (r *ControlledRobot) Statistics() *Statistics {
	return r.stats
}

// LogLevel returns the log level currently selected by the controller.
func (r *ControlledRobot) LogLevel() uint16 {
	return uint16(r.logLevel.Load())
}

// Command getters. Each returns true iff the command was not read before.

// GetTargetPoseCommand gets the pose the robot should move to.
func (r *ControlledRobot) GetTargetPoseCommand(command *messages.Pose) bool {
	return r.poseCommand.read(command)
}

// GetTwistCommand gets the velocities the robot should move at.
func (r *ControlledRobot) GetTwistCommand(command *messages.Twist) bool {
	return r.twistCommand.read(command)
}

// GetGoToCommand gets the waypoint command the robot should execute.
func (r *ControlledRobot) GetGoToCommand(command *messages.GoTo) bool {
	return r.goToCommand.read(command)
}

// GetJointsCommand gets the joint command the robot should execute.
func (r *ControlledRobot) GetJointsCommand(command *messages.JointCommand) bool {
	return r.jointsCommand.read(command)
}

// GetSimpleActionCommand pops the oldest queued simple action command.
func (r *ControlledRobot) GetSimpleActionCommand(command *messages.SimpleAction) bool {
	return r.simpleActionCommand.read(command)
}

// GetComplexActionCommand pops the oldest queued complex action command.
func (r *ControlledRobot) GetComplexActionCommand(command *messages.ComplexAction) bool {
	return r.complexActionCommand.read(command)
}

// GetRobotTrajectoryCommand gets the trajectory the robot should follow.
func (r *ControlledRobot) GetRobotTrajectoryCommand(command *messages.Poses) bool {
	return r.robotTrajectoryCommand.read(command)
}

// Update drains the command transport without blocking, answering every
// request, then runs the heartbeat bookkeeping. It is the engine's whole
// duty cycle; call it periodically from a single driver goroutine.
func (r *ControlledRobot) Update() {
	for r.receiveRequest() {
		r.connected.Store(true)
	}

	var hb messages.HeartBeat
	if r.heartbeatCommand.read(&hb) {
		r.connected.Store(true)
		r.heartbeatMu.Lock()
		r.heartbeatValues = hb
		latency := r.heartbeatAllowedLatency
		r.heartbeatMu.Unlock()
		r.heartbeatTimer.Start(time.Duration(hb.Duration*float64(time.Second)) + latency)
	}
	if r.heartbeatTimer.Expired() {
		r.connected.Store(false)
		elapsed := r.heartbeatTimer.Elapsed()
		r.heartbeatMu.Lock()
		callback := r.heartbeatExpiredCallback
		r.heartbeatMu.Unlock()
		if callback != nil {
			callback(elapsed)
		}
	}
}

// StartUpdateLoop runs Update on a ticker in a new goroutine until Stop.
func (r *ControlledRobot) StartUpdateLoop(period time.Duration) error {
	r.loopMu.Lock()
	defer r.loopMu.Unlock()
	if r.loopStop != nil {
		return errors.New("update loop already running")
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	r.loopStop = stop
	r.loopDone = done
	go func() {
		defer close(done)
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				r.Update()
			}
		}
	}()
	return nil
}

// Stop halts the update loop and waits for the driver goroutine to exit.
func (r *ControlledRobot) Stop() {
	r.loopMu.Lock()
	stop, done := r.loopStop, r.loopDone
	r.loopStop, r.loopDone = nil, nil
	r.loopMu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// receiveRequest pulls one message off the command transport. It returns
// false when nothing was pending.
func (r *ControlledRobot) receiveRequest() bool {
	if r.commandTransport == nil {
		return false
	}
	msg, ok, err := r.commandTransport.Receive(transport.NoBlock)
	if err != nil {
		r.logger.Warn("command receive failed", zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	r.evaluateRequest(msg)
	return true
}

// evaluateRequest dispatches one framed request and emits exactly one reply
// on the command transport before returning, so the controller's
// request/response pairing is never left dangling.
func (r *ControlledRobot) evaluateRequest(request []byte) wire.ControlType {
	kind, payload, err := wire.Split(request)
	if err != nil {
		r.logger.Warn("malformed frame", zap.Int("len", len(request)))
		r.replyControl(wire.NoData)
		return wire.NoData
	}
	msgtype := wire.ControlType(kind)

	switch msgtype {
	case wire.TelemetryRequest:
		if len(payload) < wire.TypeSize {
			r.logger.Warn("telemetry request without sub-kind")
			r.replyControl(wire.NoData)
			return wire.NoData
		}
		requested := wire.TelemetryType(binary.LittleEndian.Uint16(payload))
		r.sendCommandReply(r.buffers.PeekSerialized(requested))
		return wire.TelemetryRequest

	case wire.MapRequest:
		if len(payload) < wire.TypeSize {
			r.logger.Warn("map request without map id")
			r.replyControl(wire.NoData)
			return wire.NoData
		}
		mapID := uint32(binary.LittleEndian.Uint16(payload))
		r.sendCommandReply(r.mapStore.Peek(mapID))
		return wire.MapRequest

	case wire.LogLevelSelect:
		if len(payload) < wire.TypeSize {
			r.logger.Warn("log level select without level")
			r.replyControl(wire.NoData)
			return wire.NoData
		}
		r.logLevel.Store(uint32(binary.LittleEndian.Uint16(payload)))
		r.replyControl(wire.LogLevelSelect)
		return wire.LogLevelSelect

	case wire.Permission:
		var perm messages.Permission
		if err := r.codec.Decode(payload, &perm); err != nil {
			r.logger.Warn("malformed permission reply", zap.Error(err))
			r.replyControl(wire.NoData)
			return wire.NoData
		}
		r.fulfilPermission(&perm)
		r.replyControl(wire.Permission)
		return wire.Permission

	case wire.FileRequest:
		r.answerFileRequest(payload)
		return wire.FileRequest

	default:
		slot, ok := r.commandBuffers[msgtype]
		if !ok {
			r.logger.Warn("unknown command kind", zap.Uint16("kind", kind))
			r.replyControl(wire.NoData)
			return msgtype
		}
		if err := slot.write(payload); err != nil {
			r.logger.Warn("unable to parse command",
				zap.Stringer("kind", msgtype), zap.Error(err))
			r.replyControl(wire.NoData)
			return wire.NoData
		}
		r.replyControl(msgtype)
		r.notifyCommandCallbacks(kind)
		return msgtype
	}
}

func (r *ControlledRobot) notifyCommandCallbacks(kind uint16) {
	r.callbackMu.Lock()
	callbacks := make([]func(uint16), len(r.commandCallbacks))
	copy(callbacks, r.commandCallbacks)
	r.callbackMu.Unlock()
	for _, callback := range callbacks {
		callback(kind)
	}
}

// replyControl sends a bare kind tag as acknowledgement.
func (r *ControlledRobot) replyControl(kind wire.ControlType) {
	r.sendCommandReply(wire.AppendType(nil, uint16(kind)))
}

func (r *ControlledRobot) sendCommandReply(reply []byte) {
	if _, err := r.commandTransport.Send(reply); err != nil {
		r.logger.Warn("command reply send failed", zap.Error(err))
	}
}

// GetTime returns a TimeStamp for the current wall clock.
func GetTime() messages.TimeStamp {
	now := time.Now()
	return messages.TimeStamp{
		Secs:  now.Unix(),
		NSecs: int32(now.Nanosecond()),
	}
}
