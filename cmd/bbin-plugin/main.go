// Command bbin-plugin registers the "bbin" Benthos processor: it parses a
// message's binary payload against a compiled binary-layout script and
// emits the resulting field tree as structured JSON.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/redpanda-data/benthos/v4/public/service"

	"github.com/twinfer/bbin/pkg/bstream"
	"github.com/twinfer/bbin/pkg/field"
	"github.com/twinfer/bbin/pkg/interp"
)

// BbinProcessor is a Benthos processor that parses binary data with a
// compiled bbin script, without any code generation step.
type BbinProcessor struct {
	config      BbinConfig
	parserCache sync.Map // script path -> *interp.Parser

	logger       *service.Logger
	mParsed      *service.MetricCounter
	mErrors      *service.MetricCounter
	mCacheHits   *service.MetricCounter
	mCacheMisses *service.MetricCounter
}

// BbinConfig contains configuration parameters for the bbin processor.
type BbinConfig struct {
	ScriptPath               string `json:"script_path" yaml:"script_path"`
	BitOrder                 string `json:"bit_order" yaml:"bit_order"`
	SkipRemainingFieldsIfEOF bool   `json:"skip_remaining_fields_if_eof" yaml:"skip_remaining_fields_if_eof"`
}

func init() {
	err := service.RegisterProcessor(
		"bbin",
		bbinProcessorConfig(),
		func(conf *service.ParsedConfig, mgr *service.Resources) (service.Processor, error) {
			return newBbinProcessorFromConfig(conf, mgr)
		},
	)
	if err != nil {
		panic(err)
	}
}

func bbinProcessorConfig() *service.ConfigSpec {
	return service.NewConfigSpec().
		Summary("Parses binary data into structured JSON using a declarative binary-layout script.").
		Description("This processor compiles a script written in the bbin binary-layout language and walks each message's binary payload against it, producing a field tree.").
		Field(service.NewStringField("script_path").
			Description("Path to the .bbin script file.").
			Example("./scripts/png_chunks.bbin")).
		Field(service.NewStringField("bit_order").
			Description("Bit order used when a field spans less than a byte: lsb0 or msb0.").
			Default("lsb0")).
		Field(service.NewBoolField("skip_remaining_fields_if_eof").
			Description("If the input runs out mid-parse, return the fields read so far instead of failing.").
			Default(false)).
		Version("0.1.0")
}

func newBbinProcessorFromConfig(conf *service.ParsedConfig, mgr *service.Resources) (*BbinProcessor, error) {
	scriptPath, err := conf.FieldString("script_path")
	if err != nil {
		return nil, err
	}
	bitOrder, err := conf.FieldString("bit_order")
	if err != nil {
		return nil, err
	}
	skipOnEOF, err := conf.FieldBool("skip_remaining_fields_if_eof")
	if err != nil {
		return nil, err
	}

	config := BbinConfig{
		ScriptPath:               scriptPath,
		BitOrder:                 bitOrder,
		SkipRemainingFieldsIfEOF: skipOnEOF,
	}

	if _, err := os.Stat(scriptPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("script file not found at path: %s", scriptPath)
	}

	logger := mgr.Logger()
	metrics := mgr.Metrics()

	return &BbinProcessor{
		config:       config,
		logger:       logger,
		mParsed:      metrics.NewCounter("bbin_parsed_messages"),
		mErrors:      metrics.NewCounter("bbin_processing_errors"),
		mCacheHits:   metrics.NewCounter("bbin_script_cache_hits"),
		mCacheMisses: metrics.NewCounter("bbin_script_cache_misses"),
	}, nil
}

// Process implements service.Processor.
func (b *BbinProcessor) Process(ctx context.Context, msg *service.Message) (service.MessageBatch, error) {
	b.logger.Debug("Parsing binary data with bbin script")

	binData, err := msg.AsBytes()
	if err != nil {
		b.logger.Errorf("Failed to get binary data from message: %v", err)
		b.mErrors.Incr(1)
		msg.SetError(fmt.Errorf("failed to get binary data from message: %w", err))
		return service.MessageBatch{msg}, nil
	}

	if len(binData) == 0 {
		b.logger.Warn("Empty binary data provided")
		b.mErrors.Incr(1)
		msg.SetError(fmt.Errorf("empty binary data provided"))
		return service.MessageBatch{msg}, nil
	}

	parser, err := b.loadParser(b.config.ScriptPath)
	if err != nil {
		b.logger.Errorf("Failed to load script: %v", err)
		b.mErrors.Incr(1)
		msg.SetError(fmt.Errorf("failed to load script: %w", err))
		return service.MessageBatch{msg}, nil
	}

	root, err := parser.Parse(bytes.NewReader(binData))
	if err != nil {
		b.logger.Errorf("Failed to parse binary data of size %d bytes: %v", len(binData), err)
		b.mErrors.Incr(1)
		msg.SetError(fmt.Errorf("failed to parse binary data of size %d bytes: %w", len(binData), err))
		return service.MessageBatch{msg}, nil
	}

	result := field.ToJSON(root.Struct)

	b.logger.Debugf("Successfully parsed %d bytes of binary data", len(binData))
	b.mParsed.Incr(1)

	newMsg := service.NewMessage(nil)
	newMsg.SetStructured(result)

	msg.MetaWalk(func(key, value string) error {
		newMsg.MetaSet(key, value)
		return nil
	})

	return service.MessageBatch{newMsg}, nil
}

// loadParser returns a cached Parser for path, compiling and caching one
// on first use.
func (b *BbinProcessor) loadParser(path string) (*interp.Parser, error) {
	if cached, ok := b.parserCache.Load(path); ok {
		b.logger.Tracef("Script cache hit for path: %s", path)
		b.mCacheHits.Incr(1)
		return cached.(*interp.Parser), nil
	}

	b.logger.Debugf("Compiling script from path: %s", path)
	b.mCacheMisses.Incr(1)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}

	parser, err := interp.Prepare(string(data), b.parserOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile script: %w", err)
	}

	b.parserCache.Store(path, parser)
	b.logger.Debugf("Compiled and cached script from: %s", path)

	return parser, nil
}

func (b *BbinProcessor) parserOptions() []interp.Option {
	var opts []interp.Option
	if b.config.BitOrder == "msb0" {
		opts = append(opts, interp.WithBitOrder(bstream.MSB0))
	}
	if b.config.SkipRemainingFieldsIfEOF {
		opts = append(opts, interp.WithSkipRemainingFieldsIfEOF())
	}
	return opts
}

// Close implements service.Processor.
func (b *BbinProcessor) Close(ctx context.Context) error {
	b.logger.Debug("Closing bbin processor and clearing script cache")
	b.parserCache = sync.Map{}
	return nil
}

func main() {
	service.RunCLI(context.Background())
}
