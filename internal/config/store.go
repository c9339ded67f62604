package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// fileDoc is the on-disk shape described in spec.md §6.
type fileDoc struct {
	App     AppConfig      `yaml:"app" json:"app"`
	Cameras []cameraDoc    `yaml:"cameras" json:"cameras"`
}

// cameraDoc is a raw, order-preserving view of one camera entry, kept
// alongside the typed CameraRecord so Save can round-trip fields this
// version of the store doesn't know about (spec.md §12 "config preservation").
type cameraDoc map[string]any

// snapshot is the immutable, atomically-swapped in-memory view of the
// configuration. Readers always see either the old or the new snapshot,
// never a torn mix (spec.md §4.4).
type snapshot struct {
	app       AppConfig
	streaming StreamingConfig
	cameras   map[string]CameraRecord
	raw       map[string]cameraDoc
	order     []string // camera_id insertion order, for stable Save output
}

func (s *snapshot) clone() *snapshot {
	cp := &snapshot{
		app:       s.app,
		streaming: s.streaming,
		cameras:   make(map[string]CameraRecord, len(s.cameras)),
		raw:       make(map[string]cameraDoc, len(s.raw)),
		order:     append([]string(nil), s.order...),
	}
	for k, v := range s.cameras {
		cp.cameras[k] = v
	}
	for k, v := range s.raw {
		cp.raw[k] = v
	}
	return cp
}

// Store is the process-scoped Configuration Store (spec.md §4.4, §9:
// "explicit lifecycle" rather than a package-level global). Callers create
// one per process (or one per test) and pass it to the components that
// need it.
type Store struct {
	path      string
	streaming StreamingConfig // process-wide defaults; the file format has no section that overrides them

	mu       sync.Mutex // serializes writers; readers never take it
	snap     atomic.Pointer[snapshot]
	watcher  *fsnotify.Watcher
	watchLog zerolog.Logger
	stopWatch chan struct{}
}

// New creates an empty Store with default streaming parameters. Call Load
// to populate it from disk, or AddCamera directly for tests.
func New(logger zerolog.Logger) *Store {
	s := &Store{streaming: DefaultStreamingConfig(), watchLog: logger}
	s.snap.Store(&snapshot{
		cameras: make(map[string]CameraRecord),
		raw:     make(map[string]cameraDoc),
	})
	return s
}

func codecForPath(path string) (marshal func(any) ([]byte, error), unmarshal func([]byte, any) error, err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Marshal, yaml.Unmarshal, nil
	case ".json":
		return func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") }, json.Unmarshal, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// Load reads path (YAML or JSON per its extension) and atomically replaces
// the in-memory snapshot. A second Load on the same Store is safe to call
// concurrently with readers: they observe either the old or new snapshot,
// never a torn one (spec.md §4.4).
func (s *Store) Load(path string) error {
	_, unmarshal, err := codecForPath(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var doc fileDoc
	if err := unmarshal(data, &doc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	next := &snapshot{
		app:       doc.App,
		streaming: s.streaming,
		cameras:   make(map[string]CameraRecord, len(doc.Cameras)),
		raw:       make(map[string]cameraDoc, len(doc.Cameras)),
	}

	for _, raw := range doc.Cameras {
		rec, err := cameraFromDoc(raw)
		if err != nil {
			s.watchLog.Warn().Err(err).Msg("config: skipping malformed camera entry")
			continue
		}
		if _, dup := next.cameras[rec.CameraID]; dup {
			s.watchLog.Warn().Str("camera_id", rec.CameraID).Msg("config: duplicate camera_id in file, keeping first")
			continue
		}
		next.cameras[rec.CameraID] = rec
		next.raw[rec.CameraID] = raw
		next.order = append(next.order, rec.CameraID)
	}

	s.mu.Lock()
	s.path = path
	s.mu.Unlock()
	s.snap.Store(next)
	return nil
}

// cameraFromDoc decodes one raw map entry into a typed CameraRecord while
// keeping the original map for round-tripping unknown fields on Save.
func cameraFromDoc(raw cameraDoc) (CameraRecord, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return CameraRecord{}, err
	}
	var rec CameraRecord
	rec.Enabled = true // spec.md §6: missing enabled defaults to true
	if err := json.Unmarshal(b, &rec); err != nil {
		return CameraRecord{}, err
	}
	if err := validateCameraID(rec.CameraID); err != nil {
		return CameraRecord{}, err
	}
	return rec, nil
}

// Save writes the current snapshot to path (YAML or JSON per its
// extension). Unknown fields from the last Load are preserved.
func (s *Store) Save(path string) error {
	marshal, _, err := codecForPath(path)
	if err != nil {
		return err
	}

	snap := s.snap.Load()
	doc := fileDoc{App: snap.app}
	for _, id := range snap.order {
		rec := snap.cameras[id]
		raw := cloneDoc(snap.raw[id])
		mergeCameraIntoDoc(raw, rec)
		doc.Cameras = append(doc.Cameras, raw)
	}
	// Cameras added after Load are already in order (with no raw doc yet,
	// so they start from an empty map above); only a camera missing from
	// order still needs an entry here.
	inOrder := make(map[string]struct{}, len(snap.order))
	for _, id := range snap.order {
		inOrder[id] = struct{}{}
	}
	for id, rec := range snap.cameras {
		if _, ok := inOrder[id]; !ok {
			raw := cameraDoc{}
			mergeCameraIntoDoc(raw, rec)
			doc.Cameras = append(doc.Cameras, raw)
		}
	}

	data, err := marshal(doc)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func cloneDoc(d cameraDoc) cameraDoc {
	cp := make(cameraDoc, len(d))
	for k, v := range d {
		cp[k] = v
	}
	return cp
}

func mergeCameraIntoDoc(raw cameraDoc, rec CameraRecord) {
	b, _ := json.Marshal(rec)
	var fields map[string]any
	_ = json.Unmarshal(b, &fields)
	for k, v := range fields {
		raw[k] = v
	}
}

// AddCamera rejects a duplicate camera_id without mutating the store
// (spec.md §8 "duplicate-id rejection").
func (s *Store) AddCamera(rec CameraRecord) error {
	if err := validateCameraID(rec.CameraID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snap.Load()
	if _, exists := cur.cameras[rec.CameraID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCameraID, rec.CameraID)
	}

	next := cur.clone()
	next.cameras[rec.CameraID] = rec
	next.order = append(next.order, rec.CameraID)
	s.snap.Store(next)
	return nil
}

// RemoveCamera deletes a camera_id. Removing an unknown id is an error.
func (s *Store) RemoveCamera(cameraID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snap.Load()
	if _, exists := cur.cameras[cameraID]; !exists {
		return fmt.Errorf("%w: %s", ErrCameraNotFound, cameraID)
	}

	next := cur.clone()
	delete(next.cameras, cameraID)
	delete(next.raw, cameraID)
	for i, id := range next.order {
		if id == cameraID {
			next.order = append(next.order[:i], next.order[i+1:]...)
			break
		}
	}
	s.snap.Store(next)
	return nil
}

// UpdateCamera applies patch to the named camera's record.
func (s *Store) UpdateCamera(cameraID string, patch CameraPatch) (CameraRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snap.Load()
	rec, exists := cur.cameras[cameraID]
	if !exists {
		return CameraRecord{}, fmt.Errorf("%w: %s", ErrCameraNotFound, cameraID)
	}
	rec = patch.apply(rec)

	next := cur.clone()
	next.cameras[cameraID] = rec
	s.snap.Store(next)
	return rec, nil
}

// GetCamera returns the current record for cameraID, if present.
func (s *Store) GetCamera(cameraID string) (CameraRecord, bool) {
	snap := s.snap.Load()
	rec, ok := snap.cameras[cameraID]
	return rec, ok
}

// GetEnabledCameras returns every camera with Enabled == true, in load/add order.
func (s *Store) GetEnabledCameras() []CameraRecord {
	snap := s.snap.Load()
	out := make([]CameraRecord, 0, len(snap.order))
	for _, id := range snap.order {
		if rec, ok := snap.cameras[id]; ok && rec.Enabled {
			out = append(out, rec)
		}
	}
	// Any enabled camera missing from `order` is still included.
	seen := make(map[string]struct{}, len(out))
	for _, rec := range out {
		seen[rec.CameraID] = struct{}{}
	}
	for id, rec := range snap.cameras {
		if _, ok := seen[id]; !ok && rec.Enabled {
			out = append(out, rec)
		}
	}
	return out
}

// GetStreamingConfig returns the process-wide streaming parameters.
func (s *Store) GetStreamingConfig() StreamingConfig {
	return s.snap.Load().streaming
}

// AppConfig returns the current "app" section.
func (s *Store) AppConfig() AppConfig {
	return s.snap.Load().app
}

// WatchFile starts an fsnotify watch on the store's file, logging (not
// reloading — see SPEC_FULL.md §13(c)) whenever the file changes on disk.
// The caller must still call Load to pick up the new contents.
func (s *Store) WatchFile(path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return fmt.Errorf("config: watch dir: %w", err)
	}
	s.watcher = w
	s.stopWatch = make(chan struct{})
	base := filepath.Base(path)

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					s.watchLog.Info().Str("path", path).Msg("config: file changed on disk, call Load to apply")
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.watchLog.Warn().Err(err).Msg("config: watch error")
			case <-s.stopWatch:
				return
			}
		}
	}()
	return nil
}

// Close stops the file watcher, if any.
func (s *Store) Close() error {
	if s.stopWatch != nil {
		close(s.stopWatch)
	}
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
