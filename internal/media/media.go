// Package media is the Media Abstraction Layer: a thin adapter over go-gst
// naming every element by role, verifying the capability set a pipeline
// needs before it is started, and translating bus messages into typed
// events the rest of the system understands.
package media

import (
	"fmt"
	"sync"

	"github.com/go-gst/go-gst/gst"
)

var initOnce sync.Once

// Init initializes the underlying multimedia framework. Safe to call from
// multiple goroutines; the framework is initialized exactly once per process.
func Init() {
	initOnce.Do(func() {
		gst.Init(nil)
	})
}

// Role names every element the Unified Pipeline can reference, per
// spec.md §9 "capability set" design note.
type Role string

const (
	RoleSource       Role = "source"
	RoleDepay        Role = "depay"
	RoleParse        Role = "parse"
	RoleTee          Role = "tee"
	RoleDisplayQueue Role = "display_queue"
	RoleDisplayValve Role = "display_valve"
	RoleDecoder      Role = "decoder"
	RoleConvert      Role = "convert"
	RoleOverlay      Role = "overlay"
	RoleScale        Role = "scale"
	RoleCapsFilter   Role = "capsfilter"
	RolePresentQueue Role = "present_queue"
	RoleVideoSink    Role = "videosink"
	RoleRecordQueue  Role = "record_queue"
	RoleRecordValve  Role = "record_valve"
	RoleMuxer        Role = "muxer"
	RoleFileSink     Role = "filesink"
)

// ElementSpec names the factory and element name to use for one role.
type ElementSpec struct {
	Role    Role
	Factory string
	Name    string
}

// NewElement creates a named element from a factory, wrapping the
// underlying framework's error with the role that failed to build so
// PipelineBuildError can report it (spec.md §4.1.1).
func NewElement(factory, name string) (*gst.Element, error) {
	Init()
	elem, err := gst.NewElementWithName(factory, name)
	if err != nil {
		return nil, fmt.Errorf("media: create element %q (factory %q): %w", name, factory, err)
	}
	return elem, nil
}

// FactoryExists reports whether a named element factory is registered,
// used for decoder probing (spec.md §4.1.3).
func FactoryExists(factory string) bool {
	Init()
	return gst.Find(factory) != nil
}

// VerifyCapabilitySet builds every spec in order and returns the built
// elements keyed by role, or a MissingElements error naming every role
// that could not be built (spec.md §4.1.1, §9).
func VerifyCapabilitySet(specs []ElementSpec) (map[Role]*gst.Element, error) {
	built := make(map[Role]*gst.Element, len(specs))
	var missing []string
	for _, spec := range specs {
		elem, err := NewElement(spec.Factory, spec.Name)
		if err != nil {
			missing = append(missing, string(spec.Role))
			continue
		}
		built[spec.Role] = elem
	}
	if len(missing) > 0 {
		return nil, &MissingElementsError{Roles: missing}
	}
	return built, nil
}
