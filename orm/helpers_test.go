package orm

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc/errors"
)

// Counter is a minimal model used by the tests of this package.
type Counter struct {
	Owner []byte `protobuf:"bytes,1,opt,name=owner,proto3" json:"owner,omitempty"`
	Count int64  `protobuf:"varint,2,opt,name=count,proto3" json:"count,omitempty"`
}

var _ Model = (*Counter)(nil)

func (m *Counter) Reset()         { *m = Counter{} }
func (m *Counter) String() string { return proto.CompactTextString(m) }
func (*Counter) ProtoMessage()    {}

func (m *Counter) Validate() error {
	if m.Count < 0 {
		return errors.Wrap(errors.ErrInput, "negative count")
	}
	return nil
}

func (m *Counter) Copy() Model {
	cpy := *m
	return &cpy
}

func newCounterObj(key string, owner string, count int64) *SimpleObj {
	return NewSimpleObj([]byte(key), &Counter{Owner: []byte(owner), Count: count})
}

func counterOf(obj Object) *Counter {
	return obj.Value().(*Counter)
}
