package wire

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"

	"github.com/pbrezina/samba/internal/errors"
	"github.com/pbrezina/samba/internal/protocol"
)

// NewTransactionID returns a uniformly random 15-bit transaction id.
func NewTransactionID() (uint16, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(0x7FFF))
	if err != nil {
		return 0, errors.Wrap("new_transaction_id", errors.NoMemory, err)
	}
	return uint16(n.Int64()), nil
}

// BuildNameQuery constructs an NBT name-query request (QTYPE 0x0020):
// opcode 0, B bit set iff broadcast, RD bit set iff recurse.
func BuildNameQuery(trnID uint16, name NBTName, broadcast, recurse bool) ([]byte, error) {
	var flags uint16
	if broadcast {
		flags |= protocol.FlagBroadcast
	}
	if recurse {
		flags |= protocol.FlagRD
	}
	return buildRequest(trnID, flags, name, protocol.QTypeNetBIOS)
}

// BuildNodeStatusQuery constructs an NBT node-status request (QTYPE
// 0x0021): opcode 0, no broadcast or recursion bits.
func BuildNodeStatusQuery(trnID uint16, name NBTName) ([]byte, error) {
	return buildRequest(trnID, 0, name, protocol.QTypeNBStat)
}

func buildRequest(trnID, flags uint16, name NBTName, qtype uint16) ([]byte, error) {
	encodedName, err := EncodeName(name)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 12, 12+len(encodedName)+4)
	binary.BigEndian.PutUint16(buf[0:2], trnID)
	binary.BigEndian.PutUint16(buf[2:4], flags)
	binary.BigEndian.PutUint16(buf[4:6], 1) // qdcount
	binary.BigEndian.PutUint16(buf[6:8], 0)
	binary.BigEndian.PutUint16(buf[8:10], 0)
	binary.BigEndian.PutUint16(buf[10:12], 0)

	buf = append(buf, encodedName...)

	qtypeBuf := make([]byte, 4)
	binary.BigEndian.PutUint16(qtypeBuf[0:2], qtype)
	binary.BigEndian.PutUint16(qtypeBuf[2:4], protocol.QClassInternet)
	buf = append(buf, qtypeBuf...)

	if len(buf) > protocol.MaxPacketSize {
		return nil, errors.New("build_request", errors.InternalError)
	}
	return buf, nil
}
