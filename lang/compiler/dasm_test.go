package compiler_test

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/loomlang/loom/internal/filetest"
	"github.com/loomlang/loom/lang/ast"
	"github.com/loomlang/loom/lang/compiler"
)

var updateDasmTests = flag.Bool("test.update-dasm-tests", false, "update the golden .dasm files in testdata/")

// TestDisassembleGoldenFiles compiles every fixture in testdata/ and
// compares its disassembly against the corresponding golden .dasm file,
// the same table-driven shape as the teacher module's filetest-based
// suites.
func TestDisassembleGoldenFiles(t *testing.T) {
	const dir = "testdata"
	for _, fi := range filetest.SourceFiles(t, dir, ".yaml") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join(dir, fi.Name()))
			if err != nil {
				t.Fatal(err)
			}
			tree, err := ast.ParseFixtureYAML(data)
			if err != nil {
				t.Fatal(err)
			}
			bytecode, debug, err := compiler.Compile(tree, compiler.DefaultSettings())
			if err != nil {
				t.Fatal(err)
			}
			listing, err := compiler.Disassemble(bytecode, debug)
			if err != nil {
				t.Fatal(err)
			}
			filetest.DiffCustom(t, fi, "disassembly", ".dasm", listing, dir, updateDasmTests)
		})
	}
}
