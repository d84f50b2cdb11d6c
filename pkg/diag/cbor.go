package diag

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// diagEncMode is the CBOR encoder mode for diagnostic events.
// Configured for nanosecond-precision timestamps and deterministic
// encoding.
var diagEncMode cbor.EncMode

// diagDecMode is the CBOR decoder mode for diagnostic events.
var diagDecMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	diagEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create diag CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	diagDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create diag CBOR decoder mode: %v", err))
	}
}

// EncodeEvent encodes an Event to CBOR bytes using integer keys for
// compactness.
func EncodeEvent(event Event) ([]byte, error) {
	return diagEncMode.Marshal(event)
}

// DecodeEvent decodes CBOR bytes into an Event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := diagDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// NewEncoder creates a CBOR encoder for diagnostic events that writes
// to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return diagEncMode.NewEncoder(w)
}

// NewDecoder creates a CBOR decoder for diagnostic events that reads
// from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return diagDecMode.NewDecoder(r)
}
