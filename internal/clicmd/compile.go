package clicmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/loomlang/loom/lang/ast"
	"github.com/loomlang/loom/lang/compiler"
)

// Compile implements the "compile" subcommand: each fixture file is
// compiled independently and its bytecode written to stdout back to back,
// preceded by a one-line header naming the source file and byte count.
func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	settings, err := c.settings()
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	return CompileFiles(ctx, stdio, settings, args...)
}

func CompileFiles(ctx context.Context, stdio mainer.Stdio, settings Settings, files ...string) error {
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
		bytecode, _, err := compiler.Compile(tree, settings)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			firstErr = err
			continue
		}
		fmt.Fprintf(stdio.Stdout, "; %s: %d bytes\n", path, len(bytecode))
		if _, err := stdio.Stdout.Write(bytecode); err != nil {
			return err
		}
		fmt.Fprintln(stdio.Stdout)
	}
	return firstErr
}
