package basketrpc

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype of the Basket service payloads.
const CodecName = "json"

func init() {
	encoding.RegisterCodec(codec{})
}

// codec encodes Basket service messages as JSON with jx.
type codec struct{}

var _ encoding.Codec = codec{}

func (codec) Name() string { return CodecName }

func (codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(message)
	if !ok {
		return nil, errors.Errorf("basketrpc: cannot marshal %T", v)
	}
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	m.Encode(e)
	// The encoder buffer is reused after PutEncoder.
	out := make([]byte, len(e.Bytes()))
	copy(out, e.Bytes())
	return out, nil
}

func (codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(message)
	if !ok {
		return errors.Errorf("basketrpc: cannot unmarshal into %T", v)
	}
	if len(data) == 0 {
		return nil
	}
	if err := m.Decode(jx.DecodeBytes(data)); err != nil {
		return errors.Wrapf(err, "decode %T", v)
	}
	return nil
}
