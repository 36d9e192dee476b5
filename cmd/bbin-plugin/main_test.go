package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/redpanda-data/benthos/v4/public/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempScript(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	scriptFile := filepath.Join(tmpDir, "layout.bbin")
	require.NoError(t, os.WriteFile(scriptFile, []byte(content), 0644))
	return scriptFile
}

func TestBbinProcessorParsesFlatFields(t *testing.T) {
	scriptPath := writeTempScript(t, `byte flag; int value;`)
	conf := bbinProcessorConfig()
	pConf, err := conf.ParseYAML(fmt.Sprintf("script_path: %s", scriptPath), nil)
	require.NoError(t, err)

	resources := service.MockResources()
	processor, err := newBbinProcessorFromConfig(pConf, resources)
	require.NoError(t, err)

	inputMsg := service.NewMessage([]byte{0x01, 0, 0, 0, 42})
	batch, err := processor.Process(context.Background(), inputMsg)
	require.NoError(t, err)
	require.Len(t, batch, 1)

	structured, err := batch[0].AsStructured()
	require.NoError(t, err)
	result := structured.(map[string]any)
	assert.EqualValues(t, 1, result["flag"])
	assert.EqualValues(t, 42, result["value"])
}

func TestBbinProcessorEmptyPayloadErrors(t *testing.T) {
	scriptPath := writeTempScript(t, `byte flag;`)
	conf := bbinProcessorConfig()
	pConf, err := conf.ParseYAML(fmt.Sprintf("script_path: %s", scriptPath), nil)
	require.NoError(t, err)

	resources := service.MockResources()
	processor, err := newBbinProcessorFromConfig(pConf, resources)
	require.NoError(t, err)

	inputMsg := service.NewMessage(nil)
	batch, err := processor.Process(context.Background(), inputMsg)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Error(t, batch[0].GetError())
}

func TestBbinProcessorSkipRemainingFieldsIfEOF(t *testing.T) {
	scriptPath := writeTempScript(t, `int a; int b;`)
	conf := bbinProcessorConfig()
	pConf, err := conf.ParseYAML(fmt.Sprintf("script_path: %s\nskip_remaining_fields_if_eof: true", scriptPath), nil)
	require.NoError(t, err)

	resources := service.MockResources()
	processor, err := newBbinProcessorFromConfig(pConf, resources)
	require.NoError(t, err)

	inputMsg := service.NewMessage([]byte{0, 0, 0, 1})
	batch, err := processor.Process(context.Background(), inputMsg)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.NoError(t, batch[0].GetError())

	structured, err := batch[0].AsStructured()
	require.NoError(t, err)
	result := structured.(map[string]any)
	assert.EqualValues(t, 1, result["a"])
	_, hasB := result["b"]
	assert.False(t, hasB)
}

func TestBbinProcessorMissingScriptFileFails(t *testing.T) {
	conf := bbinProcessorConfig()
	pConf, err := conf.ParseYAML("script_path: /nonexistent/layout.bbin", nil)
	require.NoError(t, err)

	resources := service.MockResources()
	_, err = newBbinProcessorFromConfig(pConf, resources)
	assert.Error(t, err)
}

func TestBbinProcessorScriptIsCachedAcrossMessages(t *testing.T) {
	scriptPath := writeTempScript(t, `byte flag;`)
	conf := bbinProcessorConfig()
	pConf, err := conf.ParseYAML(fmt.Sprintf("script_path: %s", scriptPath), nil)
	require.NoError(t, err)

	resources := service.MockResources()
	processor, err := newBbinProcessorFromConfig(pConf, resources)
	require.NoError(t, err)

	first, err := processor.loadParser(scriptPath)
	require.NoError(t, err)
	second, err := processor.loadParser(scriptPath)
	require.NoError(t, err)
	assert.Same(t, first, second)
}
