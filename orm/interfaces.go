package orm

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc"
)

// Model is the value stored in a bucket: a protobuf message that can
// validate and copy itself.
type Model interface {
	proto.Message
	htlc.Validater
	Copy() Model
}

// Object is what is stored in the bucket. Key is joined with the bucket
// prefix to set the full key.
type Object interface {
	Keyed
	Cloneable
	htlc.Validater
	Value() Model
}

// Keyed is anything that can identify itself
type Keyed interface {
	Key() []byte
	SetKey([]byte)
}

// Cloneable will create a new object that can be loaded into
type Cloneable interface {
	Clone() Object
}
