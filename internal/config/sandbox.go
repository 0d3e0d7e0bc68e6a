package config

import (
	lua "github.com/yuin/gopher-lua"
)

// Globals stripped from the config VM. A config file is evaluated before
// anything runs with elevated privileges, so it gets no process control
// (os), no filesystem access (io), no code loading, and no debug
// introspection that could reach the removed globals. string, table, and
// math stay available.
var blockedGlobals = []string{
	"os",
	"io",
	"require",
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"debug",
}

// newSandboxedVM creates the restricted Lua state config files run in.
func newSandboxedVM() *lua.LState {
	L := lua.NewState()
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}
