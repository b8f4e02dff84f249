package hook

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/wegman-software/odr2lanelet-go/internal/lanelet"
	"github.com/wegman-software/odr2lanelet-go/internal/odr"
)

func newRuntime(t *testing.T, script string) *Runtime {
	t.Helper()
	r := NewRuntime()
	t.Cleanup(r.Close)
	if err := r.LoadString(script); err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	return r
}

func baseAttrs() lanelet.Attributes {
	return lanelet.Attributes{
		{Key: "type", Value: "lanelet"},
		{Key: "subtype", Value: "road"},
		{Key: "speed_limit", Value: "30"},
	}
}

func TestLoadStringRequiresCallback(t *testing.T) {
	r := NewRuntime()
	defer r.Close()
	if err := r.LoadString(`x = 1`); err == nil {
		t.Error("scripts without process_lanelet must be rejected")
	}
}

func TestLoadFileMissing(t *testing.T) {
	r := NewRuntime()
	defer r.Close()
	if err := r.LoadFile(filepath.Join(t.TempDir(), "missing.lua")); err == nil {
		t.Error("expected an error for a missing script")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hook.lua")
	script := `function process_lanelet(segment, attrs) attrs.speed_limit = "60" end`
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r := NewRuntime()
	defer r.Close()
	if err := r.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	attrs := baseAttrs()
	if err := r.Apply(odr.SegmentID{Road: 1, Lane: -1}, &attrs); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got, _ := attrs.Get("speed_limit"); got != "60" {
		t.Errorf("speed_limit = %q, want 60", got)
	}
}

func TestApplyModifiesInPlace(t *testing.T) {
	r := newRuntime(t, `
function process_lanelet(segment, attrs)
  attrs.speed_limit = "50"
  attrs.zebra = "no"
  attrs.alpha = "yes"
end`)

	attrs := baseAttrs()
	if err := r.Apply(odr.SegmentID{Road: 1, Lane: -1}, &attrs); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Existing keys keep their position, added keys follow alphabetically.
	want := lanelet.Attributes{
		{Key: "type", Value: "lanelet"},
		{Key: "subtype", Value: "road"},
		{Key: "speed_limit", Value: "50"},
		{Key: "alpha", Value: "yes"},
		{Key: "zebra", Value: "no"},
	}
	if !reflect.DeepEqual(attrs, want) {
		t.Errorf("attrs = %v, want %v", attrs, want)
	}
}

func TestApplyDropsRemovedKeys(t *testing.T) {
	r := newRuntime(t, `
function process_lanelet(segment, attrs)
  attrs.subtype = nil
end`)

	attrs := baseAttrs()
	if err := r.Apply(odr.SegmentID{Road: 1, Lane: -1}, &attrs); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, ok := attrs.Get("subtype"); ok {
		t.Error("keys set to nil must be dropped")
	}
	if len(attrs) != 2 {
		t.Errorf("attrs = %v, want 2 remaining tags", attrs)
	}
}

func TestApplyReplacementTable(t *testing.T) {
	r := newRuntime(t, `
function process_lanelet(segment, attrs)
  return { type = "lanelet", subtype = "highway" }
end`)

	attrs := baseAttrs()
	if err := r.Apply(odr.SegmentID{Road: 1, Lane: -1}, &attrs); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := lanelet.Attributes{
		{Key: "type", Value: "lanelet"},
		{Key: "subtype", Value: "highway"},
	}
	if !reflect.DeepEqual(attrs, want) {
		t.Errorf("attrs = %v, want %v", attrs, want)
	}
}

func TestApplySeesSegmentFields(t *testing.T) {
	r := newRuntime(t, `
function process_lanelet(segment, attrs)
  attrs.name = string.format("%d/%d/%d", segment.road, segment.section, segment.lane)
end`)

	attrs := baseAttrs()
	if err := r.Apply(odr.SegmentID{Road: 4, Section: 2, Lane: -1}, &attrs); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got, _ := attrs.Get("name"); got != "4/2/-1" {
		t.Errorf("name = %q, want 4/2/-1", got)
	}
}

func TestApplyErrors(t *testing.T) {
	t.Run("runtime error", func(t *testing.T) {
		r := newRuntime(t, `function process_lanelet(segment, attrs) error("boom") end`)
		attrs := baseAttrs()
		if err := r.Apply(odr.SegmentID{Road: 1, Lane: -1}, &attrs); err == nil {
			t.Error("expected the script error to propagate")
		}
	})

	t.Run("bad return type", func(t *testing.T) {
		r := newRuntime(t, `function process_lanelet(segment, attrs) return 42 end`)
		attrs := baseAttrs()
		if err := r.Apply(odr.SegmentID{Road: 1, Lane: -1}, &attrs); err == nil {
			t.Error("non-table returns must be rejected")
		}
	})
}

func TestApplyWithoutScriptIsNoop(t *testing.T) {
	r := NewRuntime()
	defer r.Close()

	attrs := baseAttrs()
	if err := r.Apply(odr.SegmentID{Road: 1, Lane: -1}, &attrs); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !reflect.DeepEqual(attrs, baseAttrs()) {
		t.Errorf("attrs changed without a script: %v", attrs)
	}
}
