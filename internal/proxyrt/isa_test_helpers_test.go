package proxyrt

import "github.com/icebridge-project/icebridge/pkg/wire"

func wireOKBoolReply(v bool) []byte {
	s := wire.NewStream(nil)
	s.WriteReplyStatus(wire.StatusOK)
	s.WriteBool(v)
	return s.Buf.Bytes()
}

func wireFacetNotExistReply() []byte {
	s := wire.NewStream(nil)
	s.WriteReplyStatus(wire.StatusFacetNotExist)
	return s.Buf.Bytes()
}
