package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.trai.ch/rewind/internal/adapters/reconstruct"
	"go.trai.ch/rewind/internal/adapters/selection"
	"go.trai.ch/rewind/internal/core/domain"
	"go.trai.ch/rewind/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Codec = (*TypedCodec)(nil)

// typedRecord is the persisted form of a schema-typed result.
type typedRecord struct {
	JSONData      map[string]any  `json:"json_data"`
	ClassName     string          `json:"class_name"`
	SelectionList json.RawMessage `json:"selection_list"`
	SchemaName    string          `json:"schema_name"`
}

// TypedCodec stores reconstructed objects as their raw payload plus selection tree.
type TypedCodec struct {
	reconstructor *reconstruct.Reconstructor
	selections    *selection.Codec
}

// NewTypedCodec creates a TypedCodec.
func NewTypedCodec(r *reconstruct.Reconstructor, selections *selection.Codec) *TypedCodec {
	return &TypedCodec{reconstructor: r, selections: selections}
}

// Name implements ports.Codec.
func (c *TypedCodec) Name() string { return "typed" }

// Extension implements ports.Codec.
func (c *TypedCodec) Extension() string { return domain.TypedExt }

// CanHandle accepts objects that still carry their payload and selection.
func (c *TypedCodec) CanHandle(v any) bool {
	obj, ok := v.(*domain.Object)
	return ok && obj != nil && obj.Raw != nil && obj.Selection != nil
}

// Save writes obj's payload, concrete type and selection tree as JSON.
func (c *TypedCodec) Save(path string, v any) error {
	if !c.CanHandle(v) {
		return domain.CodecFailure(zerr.With(zerr.New("value is not a typed object"), "type", fmt.Sprintf("%T", v)))
	}
	obj := v.(*domain.Object)

	c.reconstructor.Backfill(obj.Raw)

	set := obj.Selection
	if set.TypeName == "" {
		typed := *set
		typed.TypeName = obj.TypeName
		set = &typed
	}

	sel, err := c.selections.Marshal(set)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(typedRecord{
		JSONData:      obj.Raw,
		ClassName:     obj.TypeName,
		SelectionList: sel,
		SchemaName:    c.reconstructor.Schema().Name(),
	}, "", "  ")
	if err != nil {
		return domain.CodecFailure(zerr.Wrap(err, "failed to encode typed record"))
	}

	return writeExclusive(path, data)
}

// Load reads a typed record and rebuilds the object graph against the live schema.
func (c *TypedCodec) Load(path string) (any, error) {
	data, err := readRecord(path)
	if err != nil {
		return nil, err
	}

	// Numbers stay json.Number so integers beyond 2^53 survive the round trip.
	var rec typedRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return nil, domain.CodecFailure(zerr.With(zerr.Wrap(err, "failed to decode typed record"), "path", path))
	}

	if want := c.reconstructor.Schema().Name(); rec.SchemaName != want {
		err := zerr.With(zerr.With(zerr.Wrap(domain.ErrSchemaMismatch, "schema "+rec.SchemaName),
			"expected", want), "path", path)
		return nil, domain.CodecFailure(err)
	}
	if rec.JSONData == nil {
		return nil, domain.CodecFailure(zerr.With(zerr.Wrap(domain.ErrPayloadShape, "record has no payload"), "path", path))
	}

	sel, err := c.selections.UnmarshalAs(rec.SelectionList, rec.ClassName)
	if err != nil {
		return nil, err
	}

	return c.reconstructor.Build(rec.ClassName, rec.JSONData, sel)
}
