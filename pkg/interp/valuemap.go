package interp

// NamedNumericFieldMap is the live table of already-read integer field
// values an expression can reference. Resolution walks the innermost
// enclosing struct scope outward, then falls back to whatever full
// dotted path was recorded, then to an ExternalValueProvider.
//
// needed is false for a script with no expression evaluators and no var
// fields (neither compiler.CompiledBlock.HasEvaluatedArrays nor
// HasVarFields set): nothing can ever look a value up by name in that
// case, so put/pushScope/popScope/resetScope become no-ops and the
// backing maps are never populated.
type NamedNumericFieldMap struct {
	scopeStack []map[string]int64
	byPath     map[string]int64
	external   ExternalValueProvider
	needed     bool
}

func newNamedNumericFieldMap(ext ExternalValueProvider, needed bool) *NamedNumericFieldMap {
	m := &NamedNumericFieldMap{external: ext, needed: needed}
	if needed {
		m.scopeStack = []map[string]int64{{}}
		m.byPath = map[string]int64{}
	}
	return m
}

func (m *NamedNumericFieldMap) pushScope() {
	if !m.needed {
		return
	}
	m.scopeStack = append(m.scopeStack, map[string]int64{})
}

func (m *NamedNumericFieldMap) popScope() {
	if !m.needed {
		return
	}
	m.scopeStack = m.scopeStack[:len(m.scopeStack)-1]
}

// resetScope clears the innermost scope's bindings without popping it,
// used between iterations of a counted struct array so a later
// iteration cannot see an earlier iteration's field values through bare
// local names (dotted paths still resolve, last write wins).
func (m *NamedNumericFieldMap) resetScope() {
	if !m.needed {
		return
	}
	m.scopeStack[len(m.scopeStack)-1] = map[string]int64{}
}

func (m *NamedNumericFieldMap) put(localName, path string, v int64) {
	if !m.needed {
		return
	}
	if localName != "" {
		m.scopeStack[len(m.scopeStack)-1][localName] = v
	}
	if path != "" {
		m.byPath[path] = v
	}
}

// FieldValue implements expreval.Context.
func (m *NamedNumericFieldMap) FieldValue(name string) (int32, bool) {
	for i := len(m.scopeStack) - 1; i >= 0; i-- {
		if v, ok := m.scopeStack[i][name]; ok {
			return int32(v), true
		}
	}
	if v, ok := m.byPath[name]; ok {
		return int32(v), true
	}
	return 0, false
}

// External implements expreval.Context.
func (m *NamedNumericFieldMap) External(name string) (int32, bool, error) {
	if m.external == nil {
		return 0, false, nil
	}
	return m.external.Value(name)
}

// evalContext adapts a NamedNumericFieldMap plus a point-in-time stream
// counter to expreval.Context.
type evalContext struct {
	names   *NamedNumericFieldMap
	counter int32
}

func (c evalContext) FieldValue(name string) (int32, bool)        { return c.names.FieldValue(name) }
func (c evalContext) External(name string) (int32, bool, error)   { return c.names.External(name) }
func (c evalContext) Counter() int32                               { return c.counter }
