package compact

import (
	"bytes"
	"unicode/utf8"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// The MessagePack mapping: Vec is an array, Dict is a map with pairs in
// stored order, Option is its value or nil, String is a str. It has no
// bearing on relocation; decoded containers are always in free mode.

var (
	_ msgpack.CustomEncoder = (*Vec[int])(nil)
	_ msgpack.CustomDecoder = (*Vec[int])(nil)
	_ msgpack.CustomEncoder = (*Dict[int, int])(nil)
	_ msgpack.CustomDecoder = (*Dict[int, int])(nil)
	_ msgpack.CustomEncoder = (*Option[int])(nil)
	_ msgpack.CustomDecoder = (*Option[int])(nil)
	_ msgpack.CustomEncoder = (*String)(nil)
	_ msgpack.CustomDecoder = (*String)(nil)
)

// AppendMsgpack appends the MessagePack encoding of v to buf.
func AppendMsgpack(buf []byte, v any) ([]byte, error) {
	bb := bytesBuilder{buf}
	enc := msgpack.GetEncoder()
	enc.Reset(&bb)
	err := enc.Encode(v)
	msgpack.PutEncoder(enc)
	if err != nil {
		return buf, err
	}
	return bb.Buf, nil
}

// UnmarshalMsgpack decodes data into v, which must be a pointer.
func UnmarshalMsgpack(data []byte, v any) error {
	var r bytes.Reader
	r.Reset(data)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	err := dec.Decode(v)
	msgpack.PutDecoder(dec)
	if err != nil {
		return dataErrf(data, int(r.Size())-r.Len(), err, "failed to decode msgpack into %T", v)
	}
	return nil
}

// maxDecodeReserve caps preallocation for a decoded array, whose declared
// length comes from untrusted input.
const maxDecodeReserve = 4096

func (v *Vec[T]) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(v.Len()); err != nil {
		return err
	}
	for p := range v.Iter() {
		if err := enc.Encode(p); err != nil {
			return err
		}
	}
	return nil
}

func (v *Vec[T]) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	v.Release()
	if n > 0 {
		v.Reserve(min(n, maxDecodeReserve))
	}
	for i := 0; i < n; i++ {
		var x T
		if err := dec.Decode(&x); err != nil {
			Release(&x)
			v.Release()
			return err
		}
		v.Push(x)
	}
	return nil
}

func (d *Dict[K, V]) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(d.Len()); err != nil {
		return err
	}
	for k, v := range d.Pairs() {
		if err := enc.Encode(k); err != nil {
			return err
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dict[K, V]) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	d.Release()
	for i := 0; i < n; i++ {
		var k K
		if err := dec.Decode(&k); err != nil {
			d.Release()
			return err
		}
		var v V
		if err := dec.Decode(&v); err != nil {
			Release(&v)
			d.Release()
			return err
		}
		if old, ok := d.Insert(k, v); ok {
			Release(&old)
		}
	}
	return nil
}

func (o *Option[T]) EncodeMsgpack(enc *msgpack.Encoder) error {
	if !o.some {
		return enc.EncodeNil()
	}
	return enc.Encode(&o.value)
}

func (o *Option[T]) DecodeMsgpack(dec *msgpack.Decoder) error {
	code, err := dec.PeekCode()
	if err != nil {
		return err
	}
	o.Release()
	if code == msgpcode.Nil {
		return dec.DecodeNil()
	}
	var x T
	if err := dec.Decode(&x); err != nil {
		Release(&x)
		return err
	}
	o.Set(x)
	return nil
}

func (s *String) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(s.Str())
}

func (s *String) DecodeMsgpack(dec *msgpack.Decoder) error {
	str, err := dec.DecodeString()
	if err != nil {
		return err
	}
	if !utf8.ValidString(str) {
		return dataErrf([]byte(str), 0, nil, "invalid UTF-8 in string")
	}
	s.Release()
	s.PushStr(str)
	return nil
}
