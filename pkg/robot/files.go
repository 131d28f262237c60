// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Kelpie Robotics

package robot

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/kelpie-robotics/uplink/pkg/messages"
	"github.com/kelpie-robotics/uplink/pkg/wire"
)

// InitFiles declares the files and folders a controller may request and
// announces them over telemetry. Later calls replace the whole definition.
func (r *ControlledRobot) InitFiles(def *messages.FileDefinition) int {
	files := make([]messages.FileDef, len(def.Files))
	copy(files, def.Files)
	r.filesMu.Lock()
	r.files = files
	r.filesMu.Unlock()
	return r.sendTelemetry(def, wire.FileDefinition, false)
}

// lookupFile scans the definitions for an identifier. Definitions are few,
// a linear scan is fine.
func (r *ControlledRobot) lookupFile(identifier string) (messages.FileDef, bool) {
	r.filesMu.Lock()
	defer r.filesMu.Unlock()
	for _, def := range r.files {
		if def.Identifier == identifier {
			return def, true
		}
	}
	return messages.FileDef{}, false
}

// answerFileRequest builds and sends the Folder reply for a FileRequest
// payload. Every request gets a reply; misses and filesystem errors turn
// into an empty folder whose identifier carries the diagnostic.
func (r *ControlledRobot) answerFileRequest(payload []byte) {
	var folder messages.Folder

	var req messages.FileRequest
	if err := r.codec.Decode(payload, &req); err != nil {
		r.logger.Warn("malformed file request", zap.Error(err))
		folder.Identifier = "malformed file request"
		r.replyFolder(&folder)
		return
	}

	if req.Compressed && !r.compression {
		r.compressWarn.Do(func() {
			r.logger.Warn("compression disabled, sending uncompressed files")
		})
		req.Compressed = false
	}

	def, ok := r.lookupFile(req.Identifier)
	if !ok {
		r.logger.Warn("requested file undefined, sending empty folder",
			zap.String("identifier", req.Identifier))
		folder.Identifier = "file/folder :" + req.Identifier + " undefined"
		r.replyFolder(&folder)
		return
	}

	if def.IsFolder {
		if err := loadFolder(&folder, def.Path, req.Compressed); err != nil {
			r.logger.Warn("folder load failed", zap.String("path", def.Path), zap.Error(err))
			folder = messages.Folder{Identifier: err.Error()}
		}
	} else {
		file, err := loadFile(def.Path, req.Compressed)
		if err != nil {
			r.logger.Warn("file load failed", zap.String("path", def.Path), zap.Error(err))
			folder = messages.Folder{Identifier: err.Error()}
		} else {
			folder.Files = append(folder.Files, file)
			folder.Compressed = req.Compressed
		}
	}
	r.replyFolder(&folder)
}

func (r *ControlledRobot) replyFolder(folder *messages.Folder) {
	buf, err := r.codec.Encode(folder)
	if err != nil {
		r.logger.Error("folder reply encode failed", zap.Error(err))
		buf = nil
	}
	r.sendCommandReply(wire.Frame(uint16(wire.FileRequest), buf))
}

// loadFile reads one regular file, optionally gzip-compressing its bytes.
func loadFile(path string, compressed bool) (messages.File, error) {
	file := messages.File{Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		return file, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if compressed {
		data, err = gzipBytes(data)
		if err != nil {
			return file, fmt.Errorf("failed to compress %s: %w", path, err)
		}
	}
	file.Data = data
	return file, nil
}

// loadFolder recursively reads all regular files under path. Files that
// vanish or turn unreadable mid-walk are included with their path only.
func loadFolder(folder *messages.Folder, path string, compressed bool) error {
	err := filepath.WalkDir(path, func(entry string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		file, err := loadFile(entry, compressed)
		if err != nil {
			file = messages.File{Path: entry}
		}
		folder.Files = append(folder.Files, file)
		return nil
	})
	if err != nil {
		folder.Files = nil
		return err
	}
	folder.Compressed = compressed
	return nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
