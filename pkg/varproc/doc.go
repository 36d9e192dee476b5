// Package varproc collects example plug-in implementations for the
// interfaces pkg/interp exposes to callers: ExternalValueProvider,
// VarFieldProcessor, and CustomFieldTypeProcessor. None of these are
// required to use pkg/interp; they exist to show how a caller wires a
// real value source, a real tagged-union var reader, and a real
// legacy-encoding custom type into a Parser.
package varproc
