package hook

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/wegman-software/odr2lanelet-go/internal/lanelet"
	"github.com/wegman-software/odr2lanelet-go/internal/odr"
)

// Runtime hosts a user-supplied Lua script that can adjust the attribute
// map of each road lanelet before it is finalized. The script defines
//
//	function process_lanelet(segment, attrs)
//
// where segment carries road/section/lane fields and attrs is the
// attribute table. The function may modify attrs in place or return a
// replacement table; returning nil keeps the in-place modifications.
type Runtime struct {
	L       *lua.LState
	process lua.LValue
}

// NewRuntime creates an empty Lua runtime with the odr2lanelet API table.
func NewRuntime() *Runtime {
	L := lua.NewState()

	api := L.NewTable()
	api.RawSetString("version", lua.LString("1.0.0"))
	L.SetGlobal("odr2lanelet", api)

	return &Runtime{L: L, process: lua.LNil}
}

// Close releases the Lua state.
func (r *Runtime) Close() {
	r.L.Close()
}

// LoadFile loads and executes a Lua hook script.
func (r *Runtime) LoadFile(path string) error {
	if err := r.L.DoFile(path); err != nil {
		return fmt.Errorf("failed to load hook script: %w", err)
	}
	return r.extractCallback()
}

// LoadString loads and executes Lua code from a string (for testing).
func (r *Runtime) LoadString(code string) error {
	if err := r.L.DoString(code); err != nil {
		return fmt.Errorf("failed to load hook code: %w", err)
	}
	return r.extractCallback()
}

func (r *Runtime) extractCallback() error {
	fn := r.L.GetGlobal("process_lanelet")
	if fn.Type() != lua.LTFunction {
		return fmt.Errorf("hook script must define process_lanelet(segment, attrs)")
	}
	r.process = fn
	return nil
}

// Apply runs the hook for one segment. Existing attribute keys keep their
// position and take the script's values; keys the script removes are
// dropped; keys it adds are appended in alphabetical order so the result
// stays deterministic despite Lua's unordered tables.
func (r *Runtime) Apply(seg odr.SegmentID, attrs *lanelet.Attributes) error {
	if r.process.Type() != lua.LTFunction {
		return nil
	}

	segTable := r.L.NewTable()
	segTable.RawSetString("road", lua.LNumber(seg.Road))
	segTable.RawSetString("section", lua.LNumber(seg.Section))
	segTable.RawSetString("lane", lua.LNumber(seg.Lane))

	attrTable := r.L.NewTable()
	for _, tag := range *attrs {
		attrTable.RawSetString(tag.Key, lua.LString(tag.Value))
	}

	if err := r.L.CallByParam(lua.P{Fn: r.process, NRet: 1, Protect: true}, segTable, attrTable); err != nil {
		return fmt.Errorf("process_lanelet failed: %w", err)
	}
	ret := r.L.Get(-1)
	r.L.Pop(1)

	result := attrTable
	switch v := ret.(type) {
	case *lua.LTable:
		result = v
	case *lua.LNilType:
		// keep in-place modifications
	default:
		return fmt.Errorf("process_lanelet must return a table or nil, got %s", ret.Type())
	}

	seen := make(map[string]bool)
	out := make(lanelet.Attributes, 0, len(*attrs))
	for _, tag := range *attrs {
		seen[tag.Key] = true
		value := result.RawGetString(tag.Key)
		if value == lua.LNil {
			continue
		}
		out = append(out, lanelet.Tag{Key: tag.Key, Value: lua.LVAsString(value)})
	}

	var added []string
	result.ForEach(func(key, _ lua.LValue) {
		if name := key.String(); !seen[name] {
			added = append(added, name)
		}
	})
	sort.Strings(added)
	for _, name := range added {
		out = append(out, lanelet.Tag{Key: name, Value: lua.LVAsString(result.RawGetString(name))})
	}

	*attrs = out
	return nil
}
