package app

import (
	"context"
	"sync"
	"time"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/coin"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store"
	"github.com/iov-one/htlc/x/cash"
	"github.com/iov-one/htlc/x/escrow"
)

// Store is the root state a Runtime works on. Both the in memory store and
// the iavl commit store provide it.
type Store interface {
	CacheWrap() htlc.KVCacheWrap
}

// Clock returns the current time.
type Clock func() time.Time

// Runtime hosts escrow instances. Every call is serialized and runs in its
// own transaction, so calls on the same instance never interleave.
type Runtime struct {
	mu        sync.Mutex
	store     Store
	bank      cash.Controller
	instances InstanceBucket
	api       Bech32API
	clock     Clock
	metrics   *Metrics
}

// NewRuntime returns a runtime using the given state. A nil clock uses the
// wall clock and nil metrics disable counting.
func NewRuntime(db Store, api Bech32API, clock Clock, metrics *Metrics) *Runtime {
	if clock == nil {
		clock = time.Now
	}
	return &Runtime{
		store:     db,
		bank:      cash.NewController(cash.NewBucket()),
		instances: NewInstanceBucket(),
		api:       api,
		clock:     clock,
		metrics:   metrics,
	}
}

// API returns the address translation used by the runtime.
func (r *Runtime) API() Bech32API {
	return r.api
}

// InitGenesis loads the initial state from the genesis options.
func (r *Runtime) InitGenesis(ctx context.Context, opts htlc.Options) error {
	initializer := htlc.ChainInitializers(cash.Initializer{})
	err := r.transact(func(db htlc.KVStore) error {
		return initializer.FromGenesis(opts, db)
	})
	if err != nil {
		return errors.Wrap(err, "genesis")
	}
	htlc.GetLogger(ctx).Info("genesis loaded")
	return nil
}

// Instantiate registers a new instance created by creator, moves funds from
// the creator to the instance and initializes the escrow. Nothing is
// persisted if any step fails.
func (r *Runtime) Instantiate(ctx context.Context, creator htlc.Address, msg escrow.InitMsg, funds coin.Coins) (inst *Instance, res *escrow.Response, err error) {
	defer func() { r.metrics.observe("init", err) }()

	if err := creator.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "creator")
	}
	err = r.transact(func(db htlc.KVStore) error {
		inst, err = r.instances.Create(db, creator, r.now(ctx))
		if err != nil {
			return err
		}
		if !funds.IsEmpty() {
			if err := r.bank.MoveCoins(db, creator, inst.Address, funds); err != nil {
				return errors.Wrap(err, "deposit")
			}
		}
		deps, env, err := r.prepare(ctx, db, inst)
		if err != nil {
			return err
		}
		res, err = escrow.Initialize(r.withLog(ctx, inst, "init"), deps, env, msg)
		if err != nil {
			return err
		}
		return r.dispatch(db, inst, res.Messages)
	})
	if err != nil {
		r.logFailure(ctx, inst, "init", err)
		return nil, nil, err
	}
	return inst, res, nil
}

// Execute runs a claim or refund on the instance and executes the payments
// it returns.
func (r *Runtime) Execute(ctx context.Context, id uint64, msg escrow.HandleMsg) (res *escrow.Response, err error) {
	entrypoint := entrypointName(msg)
	defer func() { r.metrics.observe(entrypoint, err) }()

	var inst *Instance
	err = r.transact(func(db htlc.KVStore) error {
		inst, err = r.instances.GetInstance(db, id)
		if err != nil {
			return err
		}
		deps, env, err := r.prepare(ctx, db, inst)
		if err != nil {
			return err
		}
		res, err = escrow.Handle(r.withLog(ctx, inst, entrypoint), deps, env, msg)
		if err != nil {
			return err
		}
		return r.dispatch(db, inst, res.Messages)
	})
	if err != nil {
		r.logFailure(ctx, inst, entrypoint, err)
		return nil, err
	}
	return res, nil
}

// Query passes a raw query to the instance.
func (r *Runtime) Query(ctx context.Context, id uint64, query []byte) (res []byte, err error) {
	defer func() { r.metrics.observe("query", err) }()

	err = r.view(func(db htlc.KVStore) error {
		inst, err := r.instances.GetInstance(db, id)
		if err != nil {
			return err
		}
		deps, _, err := r.prepare(ctx, db, inst)
		if err != nil {
			return err
		}
		res, err = escrow.Query(r.withLog(ctx, inst, "query"), deps, query)
		return err
	})
	return res, err
}

// InstanceInfo is the host view of an instance.
type InstanceInfo struct {
	Instance *Instance           `json:"instance"`
	Address  string              `json:"address"`
	State    *escrow.EscrowState `json:"state"`
	Balance  coin.Coins          `json:"balance"`
}

// Show returns the registry entry, the escrow state and the balance of an
// instance.
func (r *Runtime) Show(ctx context.Context, id uint64) (*InstanceInfo, error) {
	var info InstanceInfo
	err := r.view(func(db htlc.KVStore) error {
		inst, err := r.instances.GetInstance(db, id)
		if err != nil {
			return err
		}
		info.Instance = inst
		if info.Address, err = r.api.HumanAddress(inst.Address); err != nil {
			return err
		}
		if info.State, err = escrow.LoadState(r.instanceStore(db, inst)); err != nil {
			return err
		}
		info.Balance, err = r.bank.Balance(db, inst.Address)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Instances returns the instances created by creator, or all of them when
// creator is nil.
func (r *Runtime) Instances(ctx context.Context, creator htlc.Address) ([]*Instance, error) {
	var res []*Instance
	err := r.view(func(db htlc.KVStore) error {
		var err error
		if creator == nil {
			res, err = r.instances.List(db)
		} else {
			res, err = r.instances.ByCreator(db, creator)
		}
		return err
	})
	return res, err
}

// Balance returns all coins held by addr.
func (r *Runtime) Balance(ctx context.Context, addr htlc.Address) (coin.Coins, error) {
	var res coin.Coins
	err := r.view(func(db htlc.KVStore) error {
		var err error
		res, err = r.bank.Balance(db, addr)
		return err
	})
	return res, err
}

// Send moves coins between two accounts. Funding an instance is a send to
// its address.
func (r *Runtime) Send(ctx context.Context, from, to htlc.Address, amount coin.Coins) error {
	err := r.transact(func(db htlc.KVStore) error {
		return r.bank.MoveCoins(db, from, to, amount)
	})
	if err == nil {
		htlc.GetLogger(ctx).Info("coins sent", "from", from, "to", to, "amount", amount.String())
	}
	return err
}

// transact runs fn in a cache wrap of the root store that is written only
// when fn succeeds. A panic in fn is returned as ErrPanic.
func (r *Runtime) transact(fn func(htlc.KVStore) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cache := r.store.CacheWrap()
	if err := protect(cache, fn); err != nil {
		cache.Discard()
		return err
	}
	return cache.Write()
}

// view runs fn in a cache wrap that is always discarded.
func (r *Runtime) view(fn func(htlc.KVStore) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cache := r.store.CacheWrap()
	defer cache.Discard()
	return protect(cache, fn)
}

func protect(db htlc.KVStore, fn func(htlc.KVStore) error) (err error) {
	defer errors.Recover(&err)
	return fn(db)
}

// prepare builds the dependencies and the environment of a contract call.
func (r *Runtime) prepare(ctx context.Context, db htlc.KVStore, inst *Instance) (escrow.Deps, escrow.Env, error) {
	human, err := r.api.HumanAddress(inst.Address)
	if err != nil {
		return escrow.Deps{}, escrow.Env{}, errors.Wrap(err, "instance address")
	}
	height, _ := htlc.GetHeight(ctx)
	deps := escrow.Deps{
		Storage: r.instanceStore(db, inst),
		API:     r.api,
		Querier: bankQuerier{db: db, bank: r.bank, api: r.api},
	}
	env := escrow.Env{
		Height:   height,
		Time:     r.now(ctx),
		Contract: escrow.ContractInfo{Address: human},
	}
	return deps, env, nil
}

func (r *Runtime) instanceStore(db htlc.KVStore, inst *Instance) htlc.KVStore {
	return store.NewPrefixStore(db, instanceStoragePrefix(inst.ID))
}

// dispatch executes the payments returned by a contract. An instance may
// only spend its own funds.
func (r *Runtime) dispatch(db htlc.KVStore, inst *Instance, msgs []escrow.SendMsg) error {
	for i, m := range msgs {
		from, err := r.api.CanonicalAddress(m.FromAddress)
		if err != nil {
			return errors.Wrapf(err, "payment %d sender", i)
		}
		if !from.Equals(inst.Address) {
			return errors.Wrapf(errors.ErrUnauthorized, "instance %d cannot spend from %s", inst.ID, m.FromAddress)
		}
		to, err := r.api.CanonicalAddress(m.ToAddress)
		if err != nil {
			return errors.Wrapf(err, "payment %d recipient", i)
		}
		if err := r.bank.MoveCoins(db, from, to, m.Amount); err != nil {
			return errors.Wrapf(err, "payment %d", i)
		}
	}
	return nil
}

// now prefers the block time of the context over the runtime clock.
func (r *Runtime) now(ctx context.Context) htlc.UnixTime {
	if t, ok := htlc.BlockTime(ctx); ok {
		return htlc.AsUnixTime(t)
	}
	return htlc.AsUnixTime(r.clock())
}

func (r *Runtime) withLog(ctx context.Context, inst *Instance, entrypoint string) context.Context {
	return htlc.WithLogInfo(ctx, "instance", inst.ID, "entrypoint", entrypoint)
}

func (r *Runtime) logFailure(ctx context.Context, inst *Instance, entrypoint string, err error) {
	logger := htlc.GetLogger(ctx).With("entrypoint", entrypoint)
	if inst != nil {
		logger = logger.With("instance", inst.ID)
	}
	if escrow.IsFatal(err) {
		logger.Error("instance is broken", "err", err)
		return
	}
	logger.Debug("call rejected", "err", err)
}

func entrypointName(msg escrow.HandleMsg) string {
	switch msg.(type) {
	case escrow.ClaimMsg, *escrow.ClaimMsg:
		return "claim"
	case escrow.RefundMsg, *escrow.RefundMsg:
		return "refund"
	default:
		return "unknown"
	}
}
