// Package clicmd implements the loomc command-line tool: it turns an AST
// fixture (see lang/ast/fixture.go) into bytecode, or into a disassembly
// listing of that bytecode. There is no parser in this module, so
// fixtures stand in for source files the same way they do in tests.
package clicmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "loomc"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> [<path>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> [<path>...]
       %[1]s -h|--help
       %[1]s -v|--version

Compiler tool for the Loom bytecode compiler.

The <command> can be one of:
       compile                   Compile one or more AST fixture files
                                  (YAML, see lang/ast/fixture.go) and write
                                  the resulting bytecode to stdout.
       disasm                    Compile one or more AST fixture files and
                                  print a pseudo-assembly disassembly of
                                  the result to stdout.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --export-top-level        Emit a ValueExport for every top-level
                                  assignment (overrides LOOMC_EXPORT_TOP_LEVEL).
       --no-type-checks          Disable AssertType emission (overrides
                                  LOOMC_DISABLE_TYPE_CHECKS).

Settings not given as flags are read from the environment; see
internal/clicmd/settings.go.
`, binName)
)

// Cmd is the loomc entry point, parsed and dispatched by mainer.Parser the
// same way the teacher module's maincmd.Cmd is.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	ExportTopLevel  bool `flag:"export-top-level"`
	NoTypeChecks    bool `flag:"no-type-checks"`

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string) { c.args = args }

func (c *Cmd) SetFlags(flags map[string]bool) { c.flags = flags }

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	cmdName := c.args[0]
	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}
	if len(c.args[1:]) == 0 {
		return fmt.Errorf("%s: at least one fixture file must be provided", cmdName)
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: "LOOMC_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		return mainer.Failure
	}
	return mainer.Success
}

// settings resolves compiler.Settings from the environment, then applies
// any CLI flag overrides on top.
func (c *Cmd) settings() (Settings, error) {
	s, err := loadSettingsFromEnv()
	if err != nil {
		return Settings{}, err
	}
	if c.flags["export-top-level"] {
		s.ExportTopLevelIds = c.ExportTopLevel
	}
	if c.flags["no-type-checks"] {
		s.EnableTypeChecks = !c.NoTypeChecks
	}
	return s, nil
}

// buildCmds dispatches by method name exactly as the teacher's maincmd
// does: any exported method shaped like a subcommand handler is callable
// by its lowercased name.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
