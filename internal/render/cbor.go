package render

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborMode uses Core Deterministic Encoding, so a document always produces
// the same bytes. Dates keep their CBOR time tag.
var cborMode cbor.EncMode

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	opts.TimeTag = cbor.EncTagRequired

	var err error
	cborMode, err = opts.EncMode()
	if err != nil {
		panic("render: CBOR encoder initialization failed: " + err.Error())
	}
}

// CBOR encodes the tree as CBOR. Data, dates and reals are carried natively;
// UIDs encode as unsigned integers.
func CBOR(tree any) ([]byte, error) {
	out, err := cborMode.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("marshaling to CBOR: %w", err)
	}
	return out, nil
}
