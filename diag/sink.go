// Package diag stores diagnostic captures of the booking page on disk and
// inspects saved snapshots for the landmarks the booking flow relies on.
package diag

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"cult-booker/booking"
)

// FileSink writes <name>.png and <name>.html into a directory. Each HTML
// snapshot is inspected and the landmark counts are logged next to it.
type FileSink struct {
	dir    string
	log    *zap.Logger
	lm     booking.Landmarks
	target string
}

var (
	_ booking.Sink         = (*FileSink)(nil)
	_ booking.SnapshotSink = (*FileSink)(nil)
)

// NewFileSink creates dir if needed. target is the requested class time,
// used when inspecting snapshots.
func NewFileSink(dir string, lm booking.Landmarks, target string, log *zap.Logger) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("diagnostics dir: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FileSink{dir: dir, log: log, lm: lm, target: target}, nil
}

// Path returns where a capture called name with extension ext is stored.
func (s *FileSink) Path(name, ext string) string {
	return filepath.Join(s.dir, name+ext)
}

// Capture stores a screenshot. A later capture of the same name replaces it.
func (s *FileSink) Capture(name string, png []byte) error {
	path := s.Path(name, ".png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("write screenshot %s: %w", name, err)
	}
	s.log.Info("screenshot saved", zap.String("path", path))
	return nil
}

// Snapshot stores the page HTML and logs which landmarks it contains.
func (s *FileSink) Snapshot(name, html string) error {
	path := s.Path(name, ".html")
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", name, err)
	}

	in, err := InspectLandmarks(strings.NewReader(html), s.lm, s.target)
	if err != nil {
		s.log.Warn("inspect snapshot", zap.String("path", path), zap.Error(err))
		return nil
	}
	fields := append([]zap.Field{zap.String("path", path)}, in.Fields()...)
	if missing := in.Missing(); len(missing) > 0 {
		fields = append(fields, zap.Strings("missing", missing))
	}
	s.log.Info("snapshot landmarks", fields...)
	return nil
}
