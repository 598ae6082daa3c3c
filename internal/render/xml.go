package render

import (
	"errors"
	"fmt"
	"time"

	"howett.net/plist"

	"github.com/twinfer/plistreader/pkg/bplist"
)

// XML renders the tree as an XML property list
func XML(tree any) (string, error) {
	v, err := toPlist(tree)
	if err != nil {
		return "", err
	}
	out, err := plist.MarshalIndent(v, plist.XMLFormat, "\t")
	if err != nil {
		return "", fmt.Errorf("marshaling to XML property list: %w", err)
	}
	return string(out), nil
}

// toPlist maps a decoded tree onto the value types the plist encoder knows.
// XML property lists cannot carry null, so nil is an error rather than a
// silently dropped key.
func toPlist(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			n, err := toPlist(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			n, err := toPlist(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case bplist.UID:
		return plist.UID(val), nil
	case time.Time:
		return val.UTC(), nil
	case nil:
		return nil, errors.New("null has no XML property list form")
	case string, bool, int, int64, uint64, float64, []byte:
		return val, nil
	}
	return nil, fmt.Errorf("unsupported value of type %T", v)
}
