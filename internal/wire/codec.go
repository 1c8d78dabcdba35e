package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/roach88/tfscope/internal/tf"
)

// Format names an input encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ParseFormat accepts "json" or "cbor", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCBOR:
		return f, nil
	default:
		return "", fmt.Errorf("unknown input format %q (want json or cbor)", s)
	}
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	// Deterministic encoding keeps recorded fixtures byte-stable.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("wire: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("wire: CBOR decoder initialization failed: " + err.Error())
	}
}

// DecodeJSON decodes one JSON TFMessage. Unknown fields are ignored.
func DecodeJSON(data []byte) (TFMessage, error) {
	var m TFMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return TFMessage{}, fmt.Errorf("decode TFMessage json: %w", err)
	}
	return m, nil
}

// DecodeCBOR decodes one CBOR TFMessage. Unknown fields are ignored.
func DecodeCBOR(data []byte) (TFMessage, error) {
	var m TFMessage
	if err := decMode.Unmarshal(data, &m); err != nil {
		return TFMessage{}, fmt.Errorf("decode TFMessage cbor: %w", err)
	}
	return m, nil
}

// Decode dispatches on format.
func Decode(format Format, data []byte) (TFMessage, error) {
	switch format {
	case FormatJSON:
		return DecodeJSON(data)
	case FormatCBOR:
		return DecodeCBOR(data)
	default:
		return TFMessage{}, fmt.Errorf("unknown input format %q", format)
	}
}

// EncodeJSON encodes m as a single line of JSON.
func EncodeJSON(m TFMessage) ([]byte, error) {
	return json.Marshal(m)
}

// EncodeCBOR encodes m using core deterministic encoding.
func EncodeCBOR(m TFMessage) ([]byte, error) {
	return encMode.Marshal(m)
}

// Reader streams messages from newline-delimited JSON or a CBOR sequence
// (RFC 8742). Each message is one ingest batch.
type Reader struct {
	next func(*TFMessage) error
	n    int
}

// NewReader reads messages of the given format from r.
func NewReader(r io.Reader, format Format) (*Reader, error) {
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		return &Reader{next: func(m *TFMessage) error { return dec.Decode(m) }}, nil
	case FormatCBOR:
		dec := decMode.NewDecoder(r)
		return &Reader{next: func(m *TFMessage) error { return dec.Decode(m) }}, nil
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
}

// Next returns the records of the next message, or io.EOF after the last.
func (r *Reader) Next() ([]tf.Record, error) {
	var m TFMessage
	if err := r.next(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("message %d: %w", r.n+1, err)
	}
	r.n++
	return m.Records(), nil
}

// ReadAll drains r into one batch per message.
func (r *Reader) ReadAll() ([][]tf.Record, error) {
	var batches [][]tf.Record
	for {
		recs, err := r.Next()
		if errors.Is(err, io.EOF) {
			return batches, nil
		}
		if err != nil {
			return batches, err
		}
		batches = append(batches, recs)
	}
}

// WriteSequence encodes msgs in format, one message per line for JSON and
// back to back for CBOR.
func WriteSequence(w io.Writer, format Format, msgs ...TFMessage) error {
	var buf bytes.Buffer
	for _, m := range msgs {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatJSON:
			data, err = EncodeJSON(m)
			data = append(data, '\n')
		case FormatCBOR:
			data, err = EncodeCBOR(m)
		default:
			err = fmt.Errorf("unknown input format %q", format)
		}
		if err != nil {
			return err
		}
		buf.Write(data)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
