package escrow

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/coin"
	"github.com/iov-one/htlc/errors"
)

// API translates between the canonical address kept in storage and the
// human readable form used by messages and payouts.
type API interface {
	CanonicalAddress(human string) (htlc.Address, error)
	HumanAddress(canonical htlc.Address) (string, error)
}

// Querier gives read access to the host bank.
type Querier interface {
	// AllBalances returns every denomination held by the given account.
	AllBalances(human string) (coin.Coins, error)
}

// Deps is everything the host provides to a single call. Storage is scoped
// to the instance the call is executed for.
type Deps struct {
	Storage htlc.KVStore
	API     API
	Querier Querier
}

// Env describes the block and the instance a call is executed in.
type Env struct {
	Height   int64
	Time     htlc.UnixTime
	Contract ContractInfo
}

// ContractInfo identifies the instance.
type ContractInfo struct {
	// Address is the human readable address of the instance.
	Address string
}

// SendMsg is a payment the host must execute after a successful call.
type SendMsg struct {
	FromAddress string     `json:"from_address"`
	ToAddress   string     `json:"to_address"`
	Amount      coin.Coins `json:"amount"`
}

// Attribute is a single key value log entry of a response.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Response is returned by every successful entry point.
type Response struct {
	Messages []SendMsg   `json:"messages"`
	Log      []Attribute `json:"log"`
}

// Initialize stores the escrow terms for the instance. No funds are moved.
// On failure nothing is written.
func Initialize(ctx context.Context, deps Deps, env Env, msg InitMsg) (*Response, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	buyer, err := deps.API.CanonicalAddress(msg.Buyer)
	if err != nil {
		return nil, errors.Wrapf(ErrAddressResolutionFailed, "buyer %q: %s", msg.Buyer, err)
	}
	seller, err := deps.API.CanonicalAddress(msg.Seller)
	if err != nil {
		return nil, errors.Wrapf(ErrAddressResolutionFailed, "seller %q: %s", msg.Seller, err)
	}

	state := &EscrowState{
		Buyer:      buyer,
		Seller:     seller,
		Expiration: msg.Expiration,
		Value:      msg.Value,
		SecretHash: msg.SecretHash,
	}
	if err := saveState(deps.Storage, state); err != nil {
		return nil, errors.Wrap(err, "save state")
	}

	htlc.GetLogger(ctx).Debug("escrow initialized",
		"contract", env.Contract.Address,
		"expiration", uint64(msg.Expiration))
	return &Response{
		Log: []Attribute{{Key: "action", Value: "init"}},
	}, nil
}

// Handle routes a message to its entry point.
func Handle(ctx context.Context, deps Deps, env Env, msg HandleMsg) (*Response, error) {
	switch m := msg.(type) {
	case ClaimMsg:
		return Claim(ctx, deps, env, m.Secret)
	case *ClaimMsg:
		return Claim(ctx, deps, env, m.Secret)
	case RefundMsg, *RefundMsg:
		return Refund(ctx, deps, env)
	default:
		return nil, errors.Wrapf(errors.ErrMsg, "unknown message %T", msg)
	}
}

// Claim pays the whole balance of the instance to the seller if the hex
// encoded preimage hashes to the stored commitment.
func Claim(ctx context.Context, deps Deps, env Env, preimage string) (*Response, error) {
	if err := (ClaimMsg{Secret: preimage}).Validate(); err != nil {
		return nil, err
	}
	state, err := LoadState(deps.Storage)
	if err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(preimage)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidPreimageEncoding, err.Error())
	}
	if !matchCommitment(raw, state.SecretHash) {
		return nil, ErrSecretMismatch
	}

	balance, err := deps.Querier.AllBalances(env.Contract.Address)
	if err != nil {
		return nil, errors.Wrap(err, "balance")
	}
	if balance.IsZero() {
		return nil, ErrNothingToClaim
	}
	return payout(ctx, deps, env, "claim", state.Seller, balance)
}

// Refund pays the whole balance of the instance back to the buyer once the
// escrow expired. The expiration second itself is already eligible.
func Refund(ctx context.Context, deps Deps, env Env) (*Response, error) {
	state, err := LoadState(deps.Storage)
	if err != nil {
		return nil, err
	}
	if !htlc.IsExpired(env.Time, state.Expiration) {
		return nil, errors.Wrapf(ErrNotYetExpired, "now %d, expires %d",
			uint64(env.Time), uint64(state.Expiration))
	}

	balance, err := deps.Querier.AllBalances(env.Contract.Address)
	if err != nil {
		return nil, errors.Wrap(err, "balance")
	}
	if balance.IsZero() {
		return nil, ErrNothingToRefund
	}
	return payout(ctx, deps, env, "refund", state.Buyer, balance)
}

// Query does not support any request.
func Query(ctx context.Context, deps Deps, raw []byte) ([]byte, error) {
	return nil, ErrUnsupportedQuery
}

func payout(ctx context.Context, deps Deps, env Env, action string, to htlc.Address, balance coin.Coins) (*Response, error) {
	recipient, err := deps.API.HumanAddress(to)
	if err != nil {
		return nil, errors.Wrapf(ErrAddressResolutionFailed, "%s: %s", to, err)
	}
	htlc.GetLogger(ctx).Info("escrow settled",
		"action", action,
		"contract", env.Contract.Address,
		"recipient", recipient,
		"amount", balance.String())
	return &Response{
		Messages: []SendMsg{{
			FromAddress: env.Contract.Address,
			ToAddress:   recipient,
			Amount:      balance.Clone(),
		}},
		Log: []Attribute{
			{Key: "action", Value: action},
			{Key: "recipient", Value: recipient},
		},
	}, nil
}

// matchCommitment compares the lowercase hex sha256 of the preimage with the
// commitment in constant time.
func matchCommitment(preimage []byte, commitment string) bool {
	sum := sha256.Sum256(preimage)
	got := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(got), []byte(commitment)) == 1
}
