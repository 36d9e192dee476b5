package varproc

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLValueProvider implements interp.ExternalValueProvider by loading
// a flat YAML document of named integer constants, the way the teacher
// loads a KSY schema with yaml.Unmarshal before ever touching a byte
// stream.
type YAMLValueProvider struct {
	values map[string]int32
}

// NewYAMLValueProvider parses data as a YAML mapping of name to integer
// and returns a provider backed by it. Non-integer values are rejected
// up front rather than deferred to the first failed lookup.
func NewYAMLValueProvider(data []byte) (*YAMLValueProvider, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("varproc: parsing YAML value document: %w", err)
	}
	values := make(map[string]int32, len(raw))
	for name, v := range raw {
		n, err := toInt32(v)
		if err != nil {
			return nil, fmt.Errorf("varproc: value %q: %w", name, err)
		}
		values[name] = n
	}
	return &YAMLValueProvider{values: values}, nil
}

// LoadYAMLValueProviderFile reads path and builds a YAMLValueProvider
// from its contents.
func LoadYAMLValueProviderFile(path string) (*YAMLValueProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("varproc: reading %s: %w", path, err)
	}
	return NewYAMLValueProvider(data)
}

// Value implements interp.ExternalValueProvider.
func (p *YAMLValueProvider) Value(name string) (int32, bool, error) {
	v, ok := p.values[name]
	return v, ok, nil
}

func toInt32(v any) (int32, error) {
	switch n := v.(type) {
	case int:
		return int32(n), nil
	case int64:
		return int32(n), nil
	case uint64:
		if n > math.MaxInt32 {
			return 0, fmt.Errorf("value %d overflows int32", n)
		}
		return int32(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("expected an integer, found %v", n)
		}
		return int32(n), nil
	default:
		return 0, fmt.Errorf("expected an integer, found %T", v)
	}
}
