package codec

import "go.trai.ch/rewind/internal/core/ports"

// Chain is the ordered list of codecs. The first capable codec wins.
type Chain struct {
	codecs []ports.Codec
}

// NewChain orders the typed codec before the opaque fallback.
func NewChain(typed *TypedCodec, opaque *OpaqueCodec) *Chain {
	return &Chain{codecs: []ports.Codec{typed, opaque}}
}

// Codecs returns the codecs in dispatch order.
func (c *Chain) Codecs() []ports.Codec {
	out := make([]ports.Codec, len(c.codecs))
	copy(out, c.codecs)
	return out
}

// Extensions returns every codec's extension in dispatch order.
func (c *Chain) Extensions() []string {
	exts := make([]string, 0, len(c.codecs))
	for _, codec := range c.codecs {
		exts = append(exts, codec.Extension())
	}
	return exts
}
