package main

import (
	"log/slog"

	framesync "github.com/jonoton/go-framesync"
)

// logSurface stands in for a GPU surface: it records what would be uploaded
// and drawn, logging uploads at debug level.
type logSurface struct {
	logger  *slog.Logger
	frame   int
	uploads int
	draws   int
}

func (s *logSurface) UploadFrame(f framesync.Frame) {
	s.frame = f.Index
	s.uploads++
	s.logger.Debug("surface: frame uploaded", "frame", f.Index, "bytes", len(f.Data), "uploads", s.uploads)
}

func (s *logSurface) UploadOverlay(m *framesync.OverlayMask) {
	s.logger.Debug("surface: overlay uploaded", "side", m.Side, "visible", m.Visible.String())
}

func (s *logSurface) DrawScaled(layer framesync.Layer, g framesync.Geometry) {
	s.draws++
}

// logAudio stands in for a sound device.
type logAudio struct {
	logger *slog.Logger
}

func (a *logAudio) PlayTrack(track []byte) {
	a.logger.Info("audio: soundtrack started", "samples", len(track))
}

func (a *logAudio) Stop() {
	a.logger.Info("audio: soundtrack stopped")
}
