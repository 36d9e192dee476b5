package interp

import (
	"log/slog"

	"github.com/twinfer/bbin/pkg/bstream"
)

type options struct {
	bitOrder           bstream.BitOrder
	skipRemainingOnEOF bool
	customTypeProc     CustomFieldTypeProcessor
	logger             *slog.Logger
}

// Option configures a Parser. Leaving every option at its default
// gives LSB0 bit order, big-endian multi-byte fields, no
// truncated-tail tolerance, and no plug-ins.
type Option func(*options)

// WithBitOrder sets the bit order the underlying stream reads with.
func WithBitOrder(o bstream.BitOrder) Option {
	return func(cfg *options) { cfg.bitOrder = o }
}

// WithSkipRemainingFieldsIfEOF makes a parse that runs out of input on
// an instruction boundary stop cleanly and return the tree built so
// far, instead of failing with an end-of-stream error.
func WithSkipRemainingFieldsIfEOF() Option {
	return func(cfg *options) { cfg.skipRemainingOnEOF = true }
}

// WithCustomTypeProcessor registers the handler for non-builtin type
// names. Custom type handling is tied to the compiled script rather
// than to any one message, so it is bound once at Prepare time.
func WithCustomTypeProcessor(p CustomFieldTypeProcessor) Option {
	return func(cfg *options) { cfg.customTypeProc = p }
}

// WithLogger overrides the package default (slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(cfg *options) { cfg.logger = l }
}

func newOptions(opts []Option) *options {
	cfg := &options{
		bitOrder: bstream.LSB0,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// parseConfig holds the plug-ins that vary per Parse call rather than
// per compiled script: which var-field values come back and which
// external source resolves names no field in the script owns. A
// single Parser is shared across concurrent Parse calls, so these
// cannot live on options without one caller's plug-in leaking into
// another's parse.
type parseConfig struct {
	varProc  VarFieldProcessor
	external ExternalValueProvider
}

// ParseOption configures a single Parse call.
type ParseOption func(*parseConfig)

// WithVarFieldProcessor supplies the handler for "var"-typed fields
// for this call.
func WithVarFieldProcessor(p VarFieldProcessor) ParseOption {
	return func(cfg *parseConfig) { cfg.varProc = p }
}

// WithExternalValueProvider supplies the fallback resolver for field
// names an expression references that no script field owns, for this
// call.
func WithExternalValueProvider(p ExternalValueProvider) ParseOption {
	return func(cfg *parseConfig) { cfg.external = p }
}

func newParseConfig(opts []ParseOption) *parseConfig {
	cfg := &parseConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// serializeConfig holds the write-direction counterparts of parseConfig:
// the plug-ins a single Serialize call needs to write back var and
// custom-typed fields it finds in the tree.
type serializeConfig struct {
	varWriter        VarFieldWriter
	customTypeWriter CustomFieldTypeWriter
	external         ExternalValueProvider
}

// SerializeOption configures a single Serialize call.
type SerializeOption func(*serializeConfig)

// WithVarFieldWriter supplies the handler that writes back "var"-typed
// field values for this call.
func WithVarFieldWriter(w VarFieldWriter) SerializeOption {
	return func(cfg *serializeConfig) { cfg.varWriter = w }
}

// WithCustomFieldTypeWriter supplies the handler that writes back
// custom-typed field values for this call.
func WithCustomFieldTypeWriter(w CustomFieldTypeWriter) SerializeOption {
	return func(cfg *serializeConfig) { cfg.customTypeWriter = w }
}

// WithSerializeExternalValueProvider supplies the fallback resolver an
// array-length or extra-parameter expression can fall back to during
// serialization, the write-side counterpart of WithExternalValueProvider.
func WithSerializeExternalValueProvider(p ExternalValueProvider) SerializeOption {
	return func(cfg *serializeConfig) { cfg.external = p }
}

func newSerializeConfig(opts []SerializeOption) *serializeConfig {
	cfg := &serializeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
