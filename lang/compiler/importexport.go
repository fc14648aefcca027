package compiler

import "github.com/loomlang/loom/lang/ast"

// segmentName resolves an Id or Str chain-path node to its constant string,
// the only two node kinds §4.9 allows in an import's "from" path.
func (c *Compiler) segmentName(idx ast.AstIndex) (string, error) {
	node := c.ast.Node(idx)
	var cidx ast.ConstantIndex
	switch d := node.Data.(type) {
	case *ast.IdData:
		cidx = d.Cidx
	case *ast.StrData:
		if d.Kind == ast.StrInterpolated {
			return "", newErr(ErrMissingImportItem, c.ast.Span(node.Span), "import path segment cannot be interpolated")
		}
		cidx = d.Cidx
	default:
		return "", newErr(ErrMissingImportItem, c.ast.Span(node.Span), "invalid import path segment %s", node.Variant)
	}
	s, ok := c.ast.Constants().String(cidx)
	if !ok {
		return "", newErr(ErrMissingImportItem, c.ast.Span(node.Span), "import path segment has no string constant")
	}
	return s, nil
}

// compileImport implements Variant Import (§4.9). Each item's dotted path
// (the "from" prefix joined with the item's own name) is interned as a
// single string constant and loaded into the item's bound local register;
// Import then resolves that register's name in place.
func (c *Compiler) compileImport(data *ast.ImportData, rr ResultRegister) (CompileNodeOutput, error) {
	prefix := ""
	for i, seg := range data.From {
		name, err := c.segmentName(seg)
		if err != nil {
			return CompileNodeOutput{}, err
		}
		if i > 0 {
			prefix += "."
		}
		prefix += name
	}

	var lastReg Register
	haveReg := false
	for _, item := range data.Items {
		itemName, ok := c.ast.Constants().String(item.Cidx)
		if !ok {
			return CompileNodeOutput{}, newErr(ErrMissingImportItem, c.currentSpan(), "import item has no name")
		}
		full := itemName
		if prefix != "" {
			full = prefix + "." + itemName
		}
		fullCidx := c.ast.Constants().InternString(full)

		bindCidx := item.Cidx
		if item.As.Valid() {
			bindCidx = item.As
		}
		reg, err := c.frame().AssignLocal(bindCidx, c.currentSpan())
		if err != nil {
			return CompileNodeOutput{}, err
		}
		c.emitOp(LoadString)
		c.emitReg(reg)
		c.emitVarU32(uint32(fullCidx))
		c.emitOp(Import)
		c.emitReg(reg)

		if c.isTopLevelExport() {
			c.emitOp(ValueExport)
			c.emitReg(reg)
			c.emitVarU32(uint32(bindCidx))
			c.frame().ExportedIds[bindCidx] = true
		}
		lastReg, haveReg = reg, true
	}

	if rr.Kind == RRNone || !haveReg {
		return noOutput(), nil
	}
	dst, temp, err := c.deliverComputed(rr)
	if err != nil {
		return CompileNodeOutput{}, err
	}
	c.copyIfNeeded(dst, lastReg)
	return regOutput(dst, temp), nil
}

// compileExport implements Variant Export. An Assign/MultiAssign payload
// is compiled normally with export forced on regardless of nesting depth
// or settings.ExportTopLevelIds; a Map payload exports each entry's key as
// a name directly, either re-exporting an existing local (Id-shorthand
// entries) or exporting a freshly computed value.
func (c *Compiler) compileExport(data *ast.ExportData, rr ResultRegister) (CompileNodeOutput, error) {
	node := c.ast.Node(data.Expr)
	switch node.Variant {
	case ast.Assign, ast.MultiAssign:
		c.forceExport = true
		out, err := c.compileNode(data.Expr, rr)
		c.forceExport = false
		return out, err

	case ast.Map:
		mapData := node.Data.(*ast.MapData)
		for _, e := range mapData.Entries {
			if e.Meta {
				continue
			}
			keyNode := c.ast.Node(e.Key)
			idData, ok := keyNode.Data.(*ast.IdData)
			if !ok {
				return CompileNodeOutput{}, newErr(ErrInvalidExportTarget, c.ast.Span(keyNode.Span), "export map key must be an identifier")
			}
			var reg Register
			popAfter := false
			if e.Value.Valid() {
				r, err := c.compileToTemp(e.Value)
				if err != nil {
					return CompileNodeOutput{}, err
				}
				reg, popAfter = r, true
			} else {
				r, ok := c.frame().GetLocalAssigned(idData.Cidx)
				if !ok {
					return CompileNodeOutput{}, newErr(ErrInvalidExportTarget, c.ast.Span(keyNode.Span), "export shorthand refers to an unbound name")
				}
				reg = r
			}
			c.emitOp(ValueExport)
			c.emitReg(reg)
			c.emitVarU32(uint32(idData.Cidx))
			c.frame().ExportedIds[idData.Cidx] = true
			if popAfter {
				if _, err := c.frame().PopRegister(c.currentSpan()); err != nil {
					return CompileNodeOutput{}, err
				}
			}
		}
		return c.compileSimpleLiteral(SetNull, rr)

	default:
		return CompileNodeOutput{}, newErr(ErrInvalidExportTarget, c.ast.Span(node.Span), "export target must be an assignment or map, got %s", node.Variant)
	}
}
