package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// globalNamespace is the reserved key for shared hook scripts loaded via
// LoadGlobal. CallHook falls back to this VM when a dialogue namespace has
// no VM of its own.
const globalNamespace = "__global__"

// Manager owns one sandboxed LState per dialogue namespace and exposes hook
// dispatch for the "script" condition and effect plugins.
//
// Manager is safe for concurrent CallHook after all Load calls complete.
// Each namespace's LState is single-threaded; the read lock serializes
// concurrent calls to the same namespace while allowing different
// namespaces to run concurrently.
type Manager struct {
	mu      sync.RWMutex
	states  map[string]*lua.LState
	cancels map[string]func()
	logger  *zap.Logger

	// Injected after construction. nil = no-op in dialog.* modules.
	GetFlag   func(owner, key string) string
	SetFlag   func(owner, key, value string)
	CountItem func(owner, name string) int
	Say       func(text string)
}

// NewManager creates a Manager.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager with an empty namespace map.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		states:  make(map[string]*lua.LState),
		cancels: make(map[string]func()),
		logger:  logger,
	}
}

// LoadNamespace creates a sandboxed VM for the dialogue namespace, registers
// the dialog.* module, then executes every *.lua file in scriptDir in
// lexicographic order.
//
// Precondition: namespace must be non-empty; scriptDir must be a readable directory.
// Postcondition: Namespace VM is registered; returns error on Lua load failure.
func (m *Manager) LoadNamespace(namespace, scriptDir string, instLimit int) error {
	return m.loadInto(namespace, scriptDir, instLimit)
}

// LoadGlobal creates the "__global__" VM for hooks shared by every dialogue,
// used as a CallHook fallback from any namespace.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalNamespace, scriptDir, instLimit)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.states[key]; ok {
		if oldCancel := m.cancels[key]; oldCancel != nil {
			oldCancel()
		}
		old.Close()
	}
	m.states[key] = L
	m.cancels[key] = cancel
	m.mu.Unlock()
	return nil
}

// CallHook calls the named Lua global function in the namespace's VM. If the
// namespace has no VM, the __global__ VM is tried as a fallback. Returns
// (LNil, nil) if the hook is not defined or no VM exists. Lua runtime errors
// are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(namespace, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	L, ok := m.states[namespace]
	if !ok {
		L = m.states[globalNamespace]
	}
	m.mu.RUnlock()

	if L == nil {
		m.logger.Info("scripting: no VM for namespace",
			zap.String("namespace", namespace),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("namespace", namespace),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// HasHook reports whether the named hook is defined for the namespace,
// consulting the __global__ fallback VM like CallHook does.
func (m *Manager) HasHook(namespace, hook string) bool {
	m.mu.RLock()
	L, ok := m.states[namespace]
	if !ok {
		L = m.states[globalNamespace]
	}
	m.mu.RUnlock()
	if L == nil {
		return false
	}
	return L.GetGlobal(hook) != lua.LNil
}
