package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/app"
	"github.com/iov-one/htlc/coin"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/x/escrow"
	"github.com/spf13/cobra"
)

const (
	flagFunds      = "funds"
	flagMsg        = "msg"
	flagBuyer      = "buyer"
	flagSeller     = "seller"
	flagExpiration = "expiration"
	flagValue      = "value"
	flagSecretHash = "secret-hash"
	flagCreator    = "creator"
)

type instantiateResult struct {
	ID      uint64             `json:"id"`
	Address string             `json:"address"`
	Msg     json.RawMessage    `json:"msg"`
	Log     []escrow.Attribute `json:"log"`
}

func (c *cli) instantiateCmd() *cobra.Command {
	var (
		funds   string
		rawMsg  string
		initMsg escrow.InitMsg
		expires uint64
	)
	cmd := &cobra.Command{
		Use:   "instantiate <creator>",
		Short: "Create an escrow instance, optionally funded by the creator",
		Args:  inputArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			creator, err := c.parseAddress(args[0])
			if err != nil {
				return errors.Wrap(err, "creator")
			}
			deposit, err := coin.ParseCoins(funds)
			if err != nil {
				return errors.Wrap(err, "funds")
			}
			msg := initMsg
			msg.Expiration = htlc.UnixTime(expires)
			if rawMsg != "" {
				if msg, err = escrow.DecodeInitMsg([]byte(rawMsg)); err != nil {
					return err
				}
			}

			return c.withRuntime(func(ctx context.Context, rt *app.Runtime) error {
				inst, res, err := rt.Instantiate(ctx, creator, msg, deposit)
				if err != nil {
					return err
				}
				human, err := rt.API().HumanAddress(inst.Address)
				if err != nil {
					return err
				}
				echo, err := escrow.EncodeInitMsg(msg)
				if err != nil {
					return err
				}
				return c.printJSON(instantiateResult{ID: inst.ID, Address: human, Msg: echo, Log: res.Log})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&funds, flagFunds, "", "coins moved from the creator to the instance, ie. 100ucosm,5earth")
	f.StringVar(&rawMsg, flagMsg, "", `init message as JSON, replaces the other message flags, ie. {"buyer":"..","seller":"..","expiration":1000,"value":"500","secret_hash":".."}`)
	f.StringVar(&initMsg.Buyer, flagBuyer, "", "address receiving a refund")
	f.StringVar(&initMsg.Seller, flagSeller, "", "address receiving a claim")
	f.Uint64Var(&expires, flagExpiration, 0, "unix time from which a refund is allowed")
	f.Uint64Var(&initMsg.Value, flagValue, 0, "informational value")
	f.StringVar(&initMsg.SecretHash, flagSecretHash, "", "hex encoded sha256 of the preimage")
	return cmd
}

type executeResult struct {
	Msg      json.RawMessage    `json:"msg"`
	MsgHash  string             `json:"msg_hash"`
	Messages []escrow.SendMsg   `json:"messages"`
	Log      []escrow.Attribute `json:"log"`
}

func (c *cli) execute(id uint64, msg escrow.HandleMsg) error {
	bin, err := escrow.MarshalBinary(msg)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(bin)
	echo, err := escrow.EncodeHandleMsg(msg)
	if err != nil {
		return err
	}
	return c.withRuntime(func(ctx context.Context, rt *app.Runtime) error {
		res, err := rt.Execute(ctx, id, msg)
		if err != nil {
			return err
		}
		return c.printJSON(executeResult{
			Msg:      echo,
			MsgHash:  hex.EncodeToString(sum[:]),
			Messages: res.Messages,
			Log:      res.Log,
		})
	})
}

func (c *cli) claimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim <instance id> <preimage hex>",
		Short: "Reveal the preimage and pay the balance to the seller",
		Args:  inputArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.execute(id, escrow.ClaimMsg{Secret: args[1]})
		},
	}
}

func (c *cli) refundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refund <instance id>",
		Short: "Pay the balance back to the buyer after expiration",
		Args:  inputArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.execute(id, escrow.RefundMsg{})
		},
	}
}

func (c *cli) executeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute <instance id> <msg json>",
		Short: "Execute a JSON encoded escrow message, ie. {\"type\":\"escrow/RefundMsg\",\"value\":{}}",
		Args:  inputArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			msg, err := escrow.DecodeHandleMsg([]byte(args[1]))
			if err != nil {
				return err
			}
			return c.execute(id, msg)
		},
	}
}

func (c *cli) queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <instance id> <query>",
		Short: "Send a raw query to an instance",
		Args:  inputArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.readRuntime(func(ctx context.Context, rt *app.Runtime) error {
				res, err := rt.Query(ctx, id, []byte(args[1]))
				if err != nil {
					return err
				}
				_, err = c.out.Write(res)
				return err
			})
		},
	}
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <instance id>",
		Short: "Print the escrow state and the balance of an instance",
		Args:  inputArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.readRuntime(func(ctx context.Context, rt *app.Runtime) error {
				info, err := rt.Show(ctx, id)
				if err != nil {
					return err
				}
				return c.printJSON(info)
			})
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	var creator string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List instances",
		Args:  inputArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter htlc.Address
			if creator != "" {
				var err error
				if filter, err = c.parseAddress(creator); err != nil {
					return errors.Wrap(err, "creator")
				}
			}
			return c.readRuntime(func(ctx context.Context, rt *app.Runtime) error {
				instances, err := rt.Instances(ctx, filter)
				if err != nil {
					return err
				}
				return c.printJSON(instances)
			})
		},
	}
	cmd.Flags().StringVar(&creator, flagCreator, "", "only list instances created by this address")
	return cmd
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInput, "instance id %q", s)
	}
	return id, nil
}
