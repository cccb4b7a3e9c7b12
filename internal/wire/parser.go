package wire

import (
	"encoding/binary"

	"github.com/pbrezina/samba/internal/errors"
	"github.com/pbrezina/samba/internal/protocol"
)

// ParseHeader parses the 12-byte NBT header.
func ParseHeader(msg []byte) (Header, error) {
	if len(msg) < 12 {
		return Header{}, errors.New("parse_header", errors.InternalError)
	}
	return Header{
		TrnID:   binary.BigEndian.Uint16(msg[0:2]),
		Flags:   binary.BigEndian.Uint16(msg[2:4]),
		QDCount: binary.BigEndian.Uint16(msg[4:6]),
		ANCount: binary.BigEndian.Uint16(msg[6:8]),
		NSCount: binary.BigEndian.Uint16(msg[8:10]),
		ARCount: binary.BigEndian.Uint16(msg[10:12]),
	}, nil
}

// FirstAnswerType returns the TYPE field of the first answer resource
// record, skipping over the question section. Validators use this to
// confirm a reply's RR type matches the request class before accepting
// it.
func FirstAnswerType(msg []byte) (uint16, error) {
	header, err := ParseHeader(msg)
	if err != nil {
		return 0, err
	}
	if header.ANCount == 0 {
		return 0, errors.New("first_answer_type", errors.NotFound)
	}

	offset := 12
	for i := uint16(0); i < header.QDCount; i++ {
		_, next, err := DecodeName(msg, offset)
		if err != nil {
			return 0, err
		}
		offset = next + 4
	}

	_, offset, err = DecodeName(msg, offset)
	if err != nil {
		return 0, err
	}
	if offset+2 > len(msg) {
		return 0, errors.New("first_answer_type", errors.InternalError)
	}
	return binary.BigEndian.Uint16(msg[offset : offset+2]), nil
}

// ParseNameQueryResponse parses a name-query (QTYPE 0x0020) response:
// the answer NAME is the queried name, RDATA is rdlength/6 records of
// (flags uint16, ip 4 bytes).
func ParseNameQueryResponse(msg []byte) (*NameQueryResponse, error) {
	header, err := ParseHeader(msg)
	if err != nil {
		return nil, err
	}
	if header.ANCount == 0 {
		return &NameQueryResponse{Header: header}, nil
	}

	offset := 12
	for i := uint16(0); i < header.QDCount; i++ {
		_, next, err := DecodeName(msg, offset)
		if err != nil {
			return nil, err
		}
		offset = next + 4 // QTYPE + QCLASS
	}

	_, offset, err = DecodeName(msg, offset)
	if err != nil {
		return nil, err
	}
	if offset+10 > len(msg) {
		return nil, errors.New("parse_name_query_response", errors.InternalError)
	}
	offset += 2 + 2 + 4 // TYPE + CLASS + TTL
	rdlength := binary.BigEndian.Uint16(msg[offset : offset+2])
	offset += 2

	if offset+int(rdlength) > len(msg) {
		return nil, errors.New("parse_name_query_response", errors.InternalError)
	}
	if int(rdlength)%protocol.NameQueryRecordLength != 0 {
		return nil, errors.New("parse_name_query_response", errors.InternalError)
	}

	count := int(rdlength) / protocol.NameQueryRecordLength
	records := make([]NameQueryRecord, 0, count)
	for i := 0; i < count; i++ {
		base := offset + i*protocol.NameQueryRecordLength
		rec := NameQueryRecord{Flags: binary.BigEndian.Uint16(msg[base : base+2])}
		copy(rec.Addr[:], msg[base+2:base+6])
		records = append(records, rec)
	}

	return &NameQueryResponse{Header: header, Records: records}, nil
}

// ParseNodeStatusResponse parses a node-status (QTYPE 0x0021) response:
// RDATA is count(1) + count*(name[16], flags uint16) + mac(6).
func ParseNodeStatusResponse(msg []byte) (*NodeStatusResponse, error) {
	header, err := ParseHeader(msg)
	if err != nil {
		return nil, err
	}

	offset := 12
	for i := uint16(0); i < header.QDCount; i++ {
		_, next, err := DecodeName(msg, offset)
		if err != nil {
			return nil, err
		}
		offset = next + 4
	}
	if header.ANCount == 0 {
		return &NodeStatusResponse{Header: header}, nil
	}

	_, offset, err = DecodeName(msg, offset)
	if err != nil {
		return nil, err
	}
	if offset+10 > len(msg) {
		return nil, errors.New("parse_node_status_response", errors.InternalError)
	}
	offset += 2 + 2 + 4
	rdlength := binary.BigEndian.Uint16(msg[offset : offset+2])
	offset += 2

	if rdlength < 1 || offset+int(rdlength) > len(msg) {
		return nil, errors.New("parse_node_status_response", errors.InternalError)
	}

	count := int(msg[offset])
	offset++

	need := count*protocol.NodeStatusEntryLength + protocol.MACAddressLength
	if offset+need > len(msg) {
		return nil, errors.New("parse_node_status_response", errors.InternalError)
	}

	entries := make([]NodeStatusRecord, 0, count)
	for i := 0; i < count; i++ {
		base := offset + i*protocol.NodeStatusEntryLength
		nameBytes := msg[base : base+protocol.NodeStatusNameLength]
		flags := binary.BigEndian.Uint16(msg[base+protocol.NodeStatusNameLength : base+protocol.NodeStatusEntryLength])
		entries = append(entries, NodeStatusRecord{
			Name:  trimNodeStatusName(nameBytes),
			Type:  nameBytes[15],
			Flags: flags,
		})
	}

	resp := &NodeStatusResponse{Header: header, Entries: entries}
	macOffset := offset + count*protocol.NodeStatusEntryLength
	copy(resp.MAC[:], msg[macOffset:macOffset+protocol.MACAddressLength])
	return resp, nil
}

func trimNodeStatusName(b []byte) string {
	end := 15
	for end > 0 && (b[end-1] == ' ' || b[end-1] == 0x00) {
		end--
	}
	return string(b[:end])
}
