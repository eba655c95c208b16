package app

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/orm"
)

const (
	instanceBucketName = "instance"
	creatorIndex       = "creator"
)

// Instance is the registry entry of a deployed escrow contract.
type Instance struct {
	ID        uint64        `protobuf:"varint,1,opt,name=id,proto3" json:"id"`
	Address   htlc.Address  `protobuf:"bytes,2,opt,name=address,proto3" json:"address"`
	Creator   htlc.Address  `protobuf:"bytes,3,opt,name=creator,proto3" json:"creator"`
	CreatedAt htlc.UnixTime `protobuf:"varint,4,opt,name=created_at,json=createdAt,proto3" json:"created_at"`
}

var _ orm.Model = (*Instance)(nil)

func (m *Instance) Reset()         { *m = Instance{} }
func (m *Instance) String() string { return proto.CompactTextString(m) }
func (*Instance) ProtoMessage()    {}

// Validate ensures the registry entry is complete.
func (m *Instance) Validate() error {
	if m.ID == 0 {
		return errors.Wrap(errors.ErrEmpty, "id")
	}
	if err := m.Address.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	if err := m.Creator.Validate(); err != nil {
		return errors.Wrap(err, "creator")
	}
	return nil
}

// Copy returns a deep copy.
func (m *Instance) Copy() orm.Model {
	return &Instance{
		ID:        m.ID,
		Address:   m.Address.Clone(),
		Creator:   m.Creator.Clone(),
		CreatedAt: m.CreatedAt,
	}
}

// InstanceAddress returns the address that holds the funds of an instance.
func InstanceAddress(id uint64) htlc.Address {
	return htlc.NewCondition("htlc", "instance", orm.EncodeSequence(id)).Address()
}

// instanceStoragePrefix is where the contract storage of an instance lives.
func instanceStoragePrefix(id uint64) []byte {
	return append(append([]byte("_c."), orm.EncodeSequence(id)...), ':')
}

// InstanceBucket is a type-safe wrapper around orm.Bucket.
type InstanceBucket struct {
	orm.Bucket
	ids orm.Sequence
}

// NewInstanceBucket returns the registry bucket, indexed by creator.
func NewInstanceBucket() InstanceBucket {
	b := orm.NewBucket(instanceBucketName, orm.NewSimpleObj(nil, &Instance{})).
		WithIndex(creatorIndex, creatorIndexer, false)
	return InstanceBucket{
		Bucket: b,
		ids:    b.Sequence(orm.SeqID),
	}
}

func creatorIndexer(obj orm.Object) ([]byte, error) {
	if obj == nil {
		return nil, nil
	}
	inst, ok := obj.Value().(*Instance)
	if !ok {
		return nil, errors.WithType(errors.ErrModel, obj.Value())
	}
	return inst.Creator, nil
}

// Create registers a new instance with the next free id.
func (b InstanceBucket) Create(db htlc.KVStore, creator htlc.Address, now htlc.UnixTime) (*Instance, error) {
	id, err := b.ids.NextInt(db)
	if err != nil {
		return nil, errors.Wrap(err, "next instance id")
	}
	inst := &Instance{
		ID:        id,
		Address:   InstanceAddress(id),
		Creator:   creator,
		CreatedAt: now,
	}
	if err := b.Save(db, orm.NewSimpleObj(orm.EncodeSequence(id), inst)); err != nil {
		return nil, err
	}
	return inst, nil
}

// GetInstance returns the instance with the given id. A missing instance is
// ErrNotFound.
func (b InstanceBucket) GetInstance(db htlc.ReadOnlyKVStore, id uint64) (*Instance, error) {
	obj, err := b.Get(db, orm.EncodeSequence(id))
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "instance %d", id)
	}
	return asInstance(obj)
}

// ByCreator returns every instance created by the address, ordered by id.
func (b InstanceBucket) ByCreator(db htlc.ReadOnlyKVStore, creator htlc.Address) ([]*Instance, error) {
	objs, err := b.GetIndexed(db, creatorIndex, creator)
	if err != nil {
		return nil, err
	}
	return asInstances(objs)
}

// List returns every registered instance, ordered by id.
func (b InstanceBucket) List(db htlc.ReadOnlyKVStore) ([]*Instance, error) {
	objs, err := b.All(db)
	if err != nil {
		return nil, err
	}
	return asInstances(objs)
}

func asInstances(objs []orm.Object) ([]*Instance, error) {
	res := make([]*Instance, 0, len(objs))
	for _, obj := range objs {
		inst, err := asInstance(obj)
		if err != nil {
			return nil, err
		}
		res = append(res, inst)
	}
	return res, nil
}

func asInstance(obj orm.Object) (*Instance, error) {
	inst, ok := obj.Value().(*Instance)
	if !ok {
		return nil, errors.WithType(errors.ErrModel, obj.Value())
	}
	return inst, nil
}
