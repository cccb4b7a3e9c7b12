package wire

import (
	"strings"

	"github.com/pbrezina/samba/internal/errors"
	"github.com/pbrezina/samba/internal/protocol"
)

// NBTName is a NetBIOS name: a label of up to 15 significant bytes plus
// a one-byte type.
type NBTName struct {
	Label string
	Type  byte
}

// String renders the name the way log lines want to see it: "LABEL<TYPE>".
func (n NBTName) String() string {
	return n.Label + "<" + hexByte(n.Type) + ">"
}

func hexByte(b byte) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{digits[b>>4], digits[b&0xF]})
}

// EncodeName first-level-encodes name into the 34-byte wire form: a
// length byte (always 0x20), the 32-byte encoded label, and a zero
// terminator (RFC 1001 §14.1).
//
// First-level encoding pads the 15-byte label with spaces, appends the
// type byte (16 bytes total), then splits every byte into two nibbles and
// maps each nibble to a letter 'A'..'P' (nibble value as offset).
func EncodeName(n NBTName) ([]byte, error) {
	if len(n.Label) > protocol.MaxNameLength {
		return nil, errors.New("encode_name", errors.InvalidParameter)
	}

	raw := make([]byte, 16)
	copy(raw, []byte(strings.ToUpper(n.Label)))
	for i := len(n.Label); i < 15; i++ {
		raw[i] = ' '
	}
	raw[15] = n.Type

	out := make([]byte, protocol.EncodedNameLength)
	out[0] = protocol.EncodedLabelLength
	for i, b := range raw {
		out[1+2*i] = 'A' + (b >> 4)
		out[1+2*i+1] = 'A' + (b & 0x0F)
	}
	out[len(out)-1] = 0x00

	return out, nil
}

// DecodeName reverses EncodeName, reading from buf at offset and returning
// the decoded name plus the offset immediately following it.
func DecodeName(buf []byte, offset int) (NBTName, int, error) {
	if offset < 0 || offset+protocol.EncodedNameLength > len(buf) {
		return NBTName{}, offset, errors.New("decode_name", errors.InternalError)
	}

	length := buf[offset]
	if length != protocol.EncodedLabelLength {
		return NBTName{}, offset, errors.New("decode_name", errors.InternalError)
	}

	encoded := buf[offset+1 : offset+1+protocol.EncodedLabelLength]
	raw := make([]byte, 16)
	for i := 0; i < 16; i++ {
		hi := encoded[2*i]
		lo := encoded[2*i+1]
		if hi < 'A' || hi > 'P' || lo < 'A' || lo > 'P' {
			return NBTName{}, offset, errors.New("decode_name", errors.InternalError)
		}
		raw[i] = ((hi - 'A') << 4) | (lo - 'A')
	}

	terminator := buf[offset+1+protocol.EncodedLabelLength]
	if terminator != 0x00 {
		return NBTName{}, offset, errors.New("decode_name", errors.InternalError)
	}

	label := strings.TrimRight(string(raw[:15]), " \x00")
	return NBTName{Label: label, Type: raw[15]}, offset + protocol.EncodedNameLength, nil
}
