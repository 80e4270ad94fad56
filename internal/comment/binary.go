package comment

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Wire field tags. Identity is by tag number, not name; readers and writers
// must agree on these numbers, never on field order.
const (
	tagID      = protowire.Number(1)
	tagGroupID = protowire.Number(2)
	tagText    = protowire.Number(3)
	tagState   = protowire.Number(4)
)

// Encode serializes c into the compact tagged-binary schema carried over the
// event bus. Round-trips via Decode for any Comment with printable or empty
// string fields.
func Encode(c Comment) []byte {
	var b []byte
	b = protowire.AppendTag(b, tagID, protowire.BytesType)
	b = protowire.AppendString(b, c.ID)
	b = protowire.AppendTag(b, tagGroupID, protowire.BytesType)
	b = protowire.AppendString(b, c.GroupID)
	b = protowire.AppendTag(b, tagText, protowire.BytesType)
	b = protowire.AppendString(b, c.Text)
	b = protowire.AppendTag(b, tagState, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int32(c.State)))
	return b
}

// Decode parses the compact tagged-binary schema produced by Encode. An
// unknown state integer, or a malformed tag stream, yields a decode error;
// unrecognized tags are skipped rather than rejected, so the wire format can
// grow new fields without breaking old readers.
func Decode(data []byte) (Comment, error) {
	var c Comment
	var sawState bool

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Comment{}, fmt.Errorf("comment: decode tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case tagID:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return Comment{}, fmt.Errorf("comment: decode id: %w", protowire.ParseError(n))
			}
			c.ID = v
			data = data[n:]
		case tagGroupID:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return Comment{}, fmt.Errorf("comment: decode group_id: %w", protowire.ParseError(n))
			}
			c.GroupID = v
			data = data[n:]
		case tagText:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return Comment{}, fmt.Errorf("comment: decode text: %w", protowire.ParseError(n))
			}
			c.Text = v
			data = data[n:]
		case tagState:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Comment{}, fmt.Errorf("comment: decode state: %w", protowire.ParseError(n))
			}
			c.State = State(int32(v))
			sawState = true
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Comment{}, fmt.Errorf("comment: decode unknown field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}

	if sawState && !c.State.Valid() {
		return Comment{}, fmt.Errorf("comment: decode: unrecognized state %d", int32(c.State))
	}

	return c, nil
}
