package codec

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"go.trai.ch/rewind/internal/core/domain"
	"go.trai.ch/rewind/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Codec = (*OpaqueCodec)(nil)

func init() {
	RegisterOpaque(map[string]any{})
	RegisterOpaque([]any{})
}

// RegisterOpaque makes the concrete type of v storable by the opaque codec.
// Types are registered once per process, before their first save or load.
func RegisterOpaque(v any) {
	gob.Register(v)
}

// envelope lets any registered value travel as an interface.
type envelope struct {
	Value any
}

// OpaqueCodec snapshots arbitrary values with encoding/gob. It accepts everything.
type OpaqueCodec struct{}

// NewOpaqueCodec creates an OpaqueCodec.
func NewOpaqueCodec() *OpaqueCodec {
	return &OpaqueCodec{}
}

// Name implements ports.Codec.
func (c *OpaqueCodec) Name() string { return "opaque" }

// Extension implements ports.Codec.
func (c *OpaqueCodec) Extension() string { return domain.OpaqueExt }

// CanHandle implements ports.Codec.
func (c *OpaqueCodec) CanHandle(any) bool { return true }

// Save encodes v fully before creating the record, so unencodable values leave no file behind.
func (c *OpaqueCodec) Save(path string, v any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(envelope{Value: v}); err != nil {
		return domain.CodecFailure(zerr.With(zerr.Wrap(err, "failed to encode snapshot"), "type", fmt.Sprintf("%T", v)))
	}
	return writeExclusive(path, buf.Bytes())
}

// Load implements ports.Codec.
func (c *OpaqueCodec) Load(path string) (any, error) {
	data, err := readRecord(path)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, domain.CodecFailure(zerr.With(zerr.Wrap(err, "failed to decode snapshot"), "path", path))
	}
	return env.Value, nil
}
