package clicmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/loomlang/loom/lang/ast"
	"github.com/loomlang/loom/lang/compiler"
)

// Disasm implements the "disasm" subcommand: each fixture file is
// compiled and its bytecode rendered as a pseudo-assembly listing.
func (c *Cmd) Disasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	settings, err := c.settings()
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	return DisasmFiles(ctx, stdio, settings, args...)
}

func DisasmFiles(ctx context.Context, stdio mainer.Stdio, settings Settings, files ...string) error {
	var firstErr error
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			firstErr = err
			continue
		}
		tree, err := ast.ParseFixtureYAML(data)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			firstErr = err
			continue
		}
		bytecode, debug, err := compiler.Compile(tree, settings)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			firstErr = err
			continue
		}
		listing, err := compiler.Disassemble(bytecode, debug)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			firstErr = err
			continue
		}
		fmt.Fprintf(stdio.Stdout, "; %s\n%s", path, listing)
	}
	return firstErr
}
