// Package codec serializes cached listings for the durable backends.
package codec

import (
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

var ErrUnknownCodec = errors.New("unknown codec")

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

const (
	NameMsgpack = "msgpack"
	NameCBOR    = "cbor"
	NameJSON    = "json"
)

// Default is the codec used when none is configured.
const Default = NameMsgpack

// New returns the codec registered under name.
func New[V any](name string) (Codec[V], error) {
	switch name {
	case "", NameMsgpack:
		return Msgpack[V]{}, nil
	case NameCBOR:
		c, err := NewCBOR[V]()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return c, nil
	case NameJSON:
		return JSON[V]{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownCodec, "no codec named '%s'", name)
	}
}

// Msgpack serializes values using vmihailenco/msgpack/v5.
// The zero value is ready to use.
type Msgpack[V any] struct{}

func (Msgpack[V]) Encode(v V) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	return data, errors.WithStack(err)
}

func (Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	err := msgpack.Unmarshal(b, &v)
	return v, errors.WithStack(err)
}

// CBOR serializes values using fxamacker/cbor with time values encoded as
// RFC3339Nano. The zero value is NOT ready to use, see [NewCBOR].
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func NewCBOR[V any]() (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	eo.Time = cbor.TimeRFC3339Nano

	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, errors.WithStack(err)
	}

	dm, err := (cbor.DecOptions{}).DecMode()
	if err != nil {
		return CBOR[V]{}, errors.WithStack(err)
	}

	return CBOR[V]{enc: em, dec: dm}, nil
}

func (c CBOR[V]) Encode(v V) ([]byte, error) {
	data, err := c.enc.Marshal(v)
	return data, errors.WithStack(err)
}

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(b, &v)
	return v, errors.WithStack(err)
}

type JSON[V any] struct{}

func (JSON[V]) Encode(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	return data, errors.WithStack(err)
}

func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, errors.WithStack(err)
}

var (
	_ Codec[struct{}] = Msgpack[struct{}]{}
	_ Codec[struct{}] = CBOR[struct{}]{}
	_ Codec[struct{}] = JSON[struct{}]{}
)
