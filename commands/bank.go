package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/iov-one/htlc/app"
	"github.com/iov-one/htlc/coin"
	"github.com/iov-one/htlc/errors"
	"github.com/spf13/cobra"
)

const flagGenesis = "genesis"

func (c *cli) initCmd() *cobra.Command {
	var genesis string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config and load the genesis file",
		Args:  inputArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(c.home, 0755); err != nil {
				return errors.Wrap(errors.ErrInput, err.Error())
			}
			written, err := WriteConfig(c.home, c.cfg)
			if err != nil {
				return err
			}
			if written {
				c.logger.Info("Generated config file", "path", filepath.Join(c.home, configFile))
			}

			path := genesis
			if path == "" {
				path = filepath.Join(c.home, genesisFile)
			}
			var gen *app.Genesis
			if _, err := os.Stat(path); err == nil {
				if gen, err = app.LoadGenesis(path); err != nil {
					return err
				}
			} else {
				c.logger.Info("No genesis file, starting with an empty state", "path", path)
			}

			db, err := c.openStore()
			if err != nil {
				return err
			}
			latest, err := db.LatestVersion()
			db.Close()
			if err != nil {
				return err
			}
			if latest.Version > 0 {
				return errors.Wrapf(errors.ErrDuplicate, "state already initialized at version %d", latest.Version)
			}

			return c.withRuntime(func(ctx context.Context, rt *app.Runtime) error {
				if gen == nil {
					return nil
				}
				return rt.InitGenesis(ctx, gen.AppOptions)
			})
		},
	}
	cmd.Flags().StringVar(&genesis, flagGenesis, "", "genesis file, defaults to <home>/genesis.json")
	return cmd
}

func (c *cli) sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <from> <to> <coins>",
		Short: "Move coins between accounts, ie. to fund an instance",
		Args:  inputArgs(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := c.parseAddress(args[0])
			if err != nil {
				return errors.Wrap(err, "from")
			}
			to, err := c.parseAddress(args[1])
			if err != nil {
				return errors.Wrap(err, "to")
			}
			amount, err := coin.ParseCoins(args[2])
			if err != nil {
				return err
			}
			return c.withRuntime(func(ctx context.Context, rt *app.Runtime) error {
				return rt.Send(ctx, from, to, amount)
			})
		},
	}
}

type balanceResult struct {
	Address string     `json:"address"`
	Coins   coin.Coins `json:"coins"`
}

func (c *cli) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "Print all coins held by an address",
		Args:  inputArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := c.parseAddress(args[0])
			if err != nil {
				return err
			}
			return c.readRuntime(func(ctx context.Context, rt *app.Runtime) error {
				coins, err := rt.Balance(ctx, addr)
				if err != nil {
					return err
				}
				human, err := rt.API().HumanAddress(addr)
				if err != nil {
					return err
				}
				if coins == nil {
					coins = coin.Coins{}
				}
				return c.printJSON(balanceResult{Address: human, Coins: coins})
			})
		},
	}
}
