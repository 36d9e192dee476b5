package varproc

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"

	"github.com/twinfer/bbin/pkg/interp"
)

// WindowsTextType implements interp.CustomFieldTypeProcessor for the
// custom type name "wintext": a byte array decoded from Windows-1252,
// the way retro file formats (Z80 snapshot metadata, TGA image IDs)
// sometimes carry non-UTF-8 strings. extra is the number of raw bytes
// to read before decoding.
type WindowsTextType struct{}

// Handles implements interp.CustomFieldTypeProcessor.
func (WindowsTextType) Handles(typeName string) bool { return typeName == "wintext" }

// ReadCustom implements interp.CustomFieldTypeProcessor.
func (WindowsTextType) ReadCustom(ctx *interp.ReadContext, typeName string, extra int64) (any, error) {
	raw, err := ctx.Stream.ReadByteArray(int(extra))
	if err != nil {
		return nil, fmt.Errorf("varproc: reading wintext bytes: %w", err)
	}
	return decodeWindows1252(raw)
}

// ReadCustomArray implements interp.CustomFieldTypeProcessor. count is
// -1 for a whole-stream array, in which case elements are read until
// the stream is exhausted rather than a fixed number of times.
func (WindowsTextType) ReadCustomArray(ctx *interp.ReadContext, typeName string, count int, extra int64) ([]any, error) {
	if count < 0 {
		var out []any
		for {
			has, err := ctx.Stream.HasAvailableData()
			if err != nil {
				return nil, err
			}
			if !has {
				return out, nil
			}
			raw, err := ctx.Stream.ReadByteArray(int(extra))
			if err != nil {
				return nil, fmt.Errorf("varproc: reading wintext array element %d: %w", len(out), err)
			}
			s, err := decodeWindows1252(raw)
			if err != nil {
				return nil, fmt.Errorf("varproc: decoding wintext array element %d: %w", len(out), err)
			}
			out = append(out, s)
		}
	}
	out := make([]any, count)
	for i := 0; i < count; i++ {
		raw, err := ctx.Stream.ReadByteArray(int(extra))
		if err != nil {
			return nil, fmt.Errorf("varproc: reading wintext array element %d: %w", i, err)
		}
		s, err := decodeWindows1252(raw)
		if err != nil {
			return nil, fmt.Errorf("varproc: decoding wintext array element %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

func decodeWindows1252(raw []byte) (string, error) {
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decoding windows-1252 text: %w", err)
	}
	return string(decoded), nil
}
