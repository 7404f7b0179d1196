package wasm

// wasmMagic/wasmVersion are the fixed module header (WebAssembly binary
// format version 1, per spec.md §6).
var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6D}
var wasmVersion = []byte{0x01, 0x00, 0x00, 0x00}

// Encode renders m as a binary WASM module: magic, version, then every
// section in spec.md §4.7's order, each size-prefixed.
func Encode(m *Module) []byte {
	out := append([]byte{}, wasmMagic...)
	out = append(out, wasmVersion...)

	out = appendSection(out, secType, encodeTypeSection(m))
	out = appendSection(out, secImport, encodeImportSection(m))
	out = appendSection(out, secFunction, encodeFunctionSection(m))
	out = appendSection(out, secMemory, encodeMemorySection(m))
	out = appendSection(out, secGlobal, encodeGlobalSection(m))
	out = appendSection(out, secExport, encodeExportSection(m))
	out = appendSection(out, secCode, encodeCodeSection(m))
	out = appendSection(out, secData, encodeDataSection(m))

	return out
}

func appendSection(out []byte, id byte, body []byte) []byte {
	out = append(out, id)
	out = appendULEB128(out, uint64(len(body)))
	return append(out, body...)
}

func encodeFuncType(t FuncType) []byte {
	var b []byte
	b = append(b, funcTypeTag)
	b = appendULEB128(b, uint64(t.NumParams))
	for i := 0; i < t.NumParams; i++ {
		b = append(b, valtypeI32)
	}
	if t.HasResult {
		b = appendULEB128(b, 1)
		b = append(b, valtypeI32)
	} else {
		b = appendULEB128(b, 0)
	}
	return b
}

func encodeTypeSection(m *Module) []byte {
	var b []byte
	b = appendULEB128(b, uint64(len(m.Types)))
	for _, t := range m.Types {
		b = append(b, encodeFuncType(t)...)
	}
	return b
}

func encodeImportSection(m *Module) []byte {
	var b []byte
	b = appendULEB128(b, uint64(m.importCount()))
	for _, f := range m.funcs {
		if !f.imported {
			continue
		}
		b = appendName(b, f.importMod)
		b = appendName(b, f.importName)
		b = append(b, externFunc)
		b = appendULEB128(b, uint64(m.typeOf[f.name]))
	}
	return b
}

func encodeFunctionSection(m *Module) []byte {
	var b []byte
	var defined []funcEntry
	for _, f := range m.funcs {
		if !f.imported {
			defined = append(defined, f)
		}
	}
	b = appendULEB128(b, uint64(len(defined)))
	for _, f := range defined {
		b = appendULEB128(b, uint64(m.typeOf[f.name]))
	}
	return b
}

func encodeMemorySection(m *Module) []byte {
	var b []byte
	b = appendULEB128(b, 1) // one memory (spec.md §4.7)
	b = append(b, 0x00)     // limits flag: min only, no max
	b = appendULEB128(b, uint64(m.MemoryPages))
	return b
}

func encodeGlobalSection(m *Module) []byte {
	var b []byte
	b = appendULEB128(b, 1) // __heap_ptr, the sole mutable global
	b = append(b, valtypeI32, mutVar)
	b = append(b, opI32Const)
	b = appendSLEB128(b, int64(m.HeapStart))
	b = append(b, opEnd)
	return b
}

func encodeExportSection(m *Module) []byte {
	var b []byte
	b = appendULEB128(b, 1) // main only (spec.md §4.7)
	b = appendName(b, m.ExportName)
	b = append(b, externFunc)
	b = appendULEB128(b, uint64(m.FuncIndex["main"]))
	return b
}

func encodeCodeSection(m *Module) []byte {
	var b []byte
	var bodies [][]byte
	for _, f := range m.funcs {
		if f.imported {
			continue
		}
		if f.fn == nil {
			bodies = append(bodies, encodeFunctionBody(0, allocatorBody()))
			continue
		}
		localCount := uint32(len(f.fn.Locals) + 1) // +1 for the dispatch $pc
		bodies = append(bodies, encodeFunctionBody(localCount, genFunction(m, f.fn)))
	}
	b = appendULEB128(b, uint64(len(bodies)))
	for _, body := range bodies {
		b = appendULEB128(b, uint64(len(body)))
		b = append(b, body...)
	}
	return b
}

// encodeFunctionBody renders one function's locals declaration plus its
// instruction stream plus the trailing expression-end marker.
func encodeFunctionBody(localCount uint32, nodes []wnode) []byte {
	var b []byte
	if localCount == 0 {
		b = appendULEB128(b, 0)
	} else {
		b = appendULEB128(b, 1) // one group: every local is i32
		b = appendULEB128(b, uint64(localCount))
		b = append(b, valtypeI32)
	}
	b = append(b, encodeNodes(nodes)...)
	b = append(b, opEnd)
	return b
}

func encodeNodes(nodes []wnode) []byte {
	var b []byte
	for _, n := range nodes {
		switch n.kind {
		case nConst:
			b = append(b, opI32Const)
			b = appendSLEB128(b, int64(n.i32))
		case nLocalGet:
			b = append(b, opLocalGet)
			b = appendULEB128(b, uint64(n.idx))
		case nLocalSet:
			b = append(b, opLocalSet)
			b = appendULEB128(b, uint64(n.idx))
		case nGlobalGet:
			b = append(b, opGlobalGet)
			b = appendULEB128(b, uint64(n.idx))
		case nGlobalSet:
			b = append(b, opGlobalSet)
			b = appendULEB128(b, uint64(n.idx))
		case nI32Load:
			b = append(b, opI32Load)
			b = appendULEB128(b, 2) // alignment: 4-byte natural alignment
			b = appendULEB128(b, 0)
		case nI32Store:
			b = append(b, opI32Store)
			b = appendULEB128(b, 2)
			b = appendULEB128(b, 0)
		case nOp:
			b = append(b, n.opcode)
		case nCall:
			b = append(b, opCall)
			b = appendULEB128(b, uint64(n.idx))
		case nReturn:
			b = append(b, opReturn)
		case nUnreachable:
			b = append(b, opUnreachable)
		case nBlock:
			b = append(b, opBlock, blockTypeEmpty)
		case nLoop:
			b = append(b, opLoop, blockTypeEmpty)
		case nIf:
			b = append(b, opIf, blockTypeEmpty)
		case nElse:
			b = append(b, opElse)
		case nEnd:
			b = append(b, opEnd)
		case nBr:
			b = append(b, opBr)
			b = appendULEB128(b, uint64(n.idx))
		case nBrTable:
			b = append(b, opBrTable)
			b = appendULEB128(b, uint64(len(n.targets)))
			for _, t := range n.targets {
				b = appendULEB128(b, uint64(t))
			}
			b = appendULEB128(b, uint64(n.defDepth))
		}
	}
	return b
}

func encodeDataSection(m *Module) []byte {
	var b []byte
	b = appendULEB128(b, uint64(len(m.src.Strings)))
	for i, s := range m.src.Strings {
		b = append(b, 0x00) // memory index 0, active segment
		b = append(b, opI32Const)
		b = appendSLEB128(b, int64(m.StringOffsets[i]))
		b = append(b, opEnd)
		b = appendULEB128(b, uint64(len(s)))
		b = append(b, []byte(s)...)
	}
	return b
}

func appendName(b []byte, s string) []byte {
	b = appendULEB128(b, uint64(len(s)))
	return append(b, []byte(s)...)
}
