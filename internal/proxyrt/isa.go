package proxyrt

import (
	"fmt"

	"github.com/icebridge-project/icebridge/internal/ifaceerr"
	"github.com/icebridge-project/icebridge/pkg/wire"
)

func encodeIsARequest(scopedID string) []byte {
	s := wire.NewStream(nil)
	s.WriteString(scopedID)
	return s.Buf.Bytes()
}

// decodeIsAReply parses a full reply frame (status byte + payload) for
// the ice_isA operation, surfacing the status-specific local exceptions
// verbatim so checkedCast can swallow FacetNotExistException.
func decodeIsAReply(frame []byte) (bool, error) {
	s := wire.NewStream(wire.NewBufferFromBytes(frame))
	status, err := s.ReadReplyStatus()
	if err != nil {
		return false, err
	}
	switch status {
	case wire.StatusOK:
		return s.ReadBool()
	case wire.StatusObjectNotExist:
		return false, &ifaceerr.ObjectNotExistException{}
	case wire.StatusFacetNotExist:
		return false, &ifaceerr.FacetNotExistException{}
	case wire.StatusOperationNotExist:
		return false, &ifaceerr.OperationNotExistException{Operation: "ice_isA"}
	case wire.StatusUnknownLocalException:
		return false, &ifaceerr.UnknownLocalException{}
	default:
		return false, fmt.Errorf("proxyrt: unexpected reply status for ice_isA: %s", status)
	}
}
