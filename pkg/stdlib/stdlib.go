// Package stdlib provides the builtins namespace and the host-backed
// native modules (json, math, fs, http) that scripts can import.
package stdlib

import (
	"fmt"
	"io"
	"os"

	"github.com/agenthands/pyworker/pkg/bridge"
)

// Options selects where print output goes and which sandboxed modules are
// installed. A nil sandbox leaves its module unregistered.
type Options struct {
	Stdout io.Writer
	// Print receives each printed line without its trailing newline. It
	// takes precedence over Stdout.
	Print func(line string)
	FS    *FSSandbox
	HTTP  *HTTPSandbox
}

func (o Options) printer() func(string) {
	if o.Print != nil {
		return o.Print
	}
	w := o.Stdout
	if w == nil {
		w = os.Stdout
	}
	return func(line string) { fmt.Fprintln(w, line) }
}

// Install registers the builtins and every enabled module into reg.
func Install(reg *bridge.Registry, opts Options) {
	for name, fn := range Builtins(opts.printer()) {
		reg.SetBuiltin(name, fn)
	}
	reg.RegisterModule("json", JSONModule())
	reg.RegisterModule("math", MathModule())
	if opts.FS != nil {
		reg.RegisterModule("fs", opts.FS.Members())
	}
	if opts.HTTP != nil {
		reg.RegisterModule("http", opts.HTTP.Members())
	}
}
