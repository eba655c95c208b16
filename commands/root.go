/*
Package commands implements the htlcd command line host.

Every command opens the state under <home>/data and runs in a single
transaction. Commands that change state commit a new version on success.
*/
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/app"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store/iavl"
	"github.com/iov-one/htlc/x/escrow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	dbm "github.com/tendermint/tendermint/libs/db"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	// FlagHome is the directory holding config, genesis and data.
	FlagHome = "home"
	// FlagTime pins the current time to the given unix second.
	FlagTime = "time"
	// FlagDebug reports the message of internal errors and their stack trace.
	FlagDebug = "debug"
)

type cli struct {
	v      *viper.Viper
	logOut io.Writer
	out    io.Writer
	home   string
	cfg    Config
	logger log.Logger
}

// NewRootCmd returns the htlcd command tree. Logs are written to logOut.
func NewRootCmd(logOut io.Writer) *cobra.Command {
	_, root := newCLI(logOut)
	return root
}

// Execute runs the command line with the given arguments and returns the
// process exit code. Failures are reported on errOut, which also receives
// the logs.
func Execute(args []string, out, errOut io.Writer) int {
	c, root := newCLI(errOut)
	root.SetOutput(out)
	root.SetArgs(args)
	return report(errOut, root.Execute(), c.v.GetBool(FlagDebug))
}

// report writes err the way a caller of an entry point sees it, as a code
// and a log, and returns the exit code. Fatal errors exit with 2.
func report(w io.Writer, err error, debug bool) int {
	if err == nil {
		return 0
	}
	code, msg := errors.ABCIInfo(err, debug)
	exit := 1
	if escrow.IsFatal(err) {
		fmt.Fprintf(w, "FATAL (code %d): %s\n", code, msg)
		exit = 2
	} else {
		fmt.Fprintf(w, "Error (code %d): %s\n", code, msg)
	}
	if debug {
		fmt.Fprintf(w, "%+v\n", err)
	}
	return exit
}

func newCLI(logOut io.Writer) (*cli, *cobra.Command) {
	c := &cli{
		v:      viper.New(),
		logOut: logOut,
	}
	root := &cobra.Command{
		Use:               "htlcd",
		Short:             "Hash time locked escrow host",
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              inputArgs(cobra.NoArgs),
		PersistentPreRunE: c.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.Wrapf(errors.ErrInput, "%s: %s", cmd.CommandPath(), err)
	})
	root.PersistentFlags().String(FlagHome, defaultHome(), "directory for config, genesis and data")
	root.PersistentFlags().Int64(FlagTime, 0, "unix time used as the current time, 0 uses the wall clock")
	root.PersistentFlags().Bool(FlagDebug, false, "report internal error messages with a stack trace")
	c.v.BindPFlag(FlagHome, root.PersistentFlags().Lookup(FlagHome))
	c.v.BindPFlag(FlagTime, root.PersistentFlags().Lookup(FlagTime))
	c.v.BindPFlag(FlagDebug, root.PersistentFlags().Lookup(FlagDebug))

	root.AddCommand(
		c.initCmd(),
		c.sendCmd(),
		c.balanceCmd(),
		c.instantiateCmd(),
		c.claimCmd(),
		c.refundCmd(),
		c.executeCmd(),
		c.queryCmd(),
		c.showCmd(),
		c.listCmd(),
		versionCmd(),
	)
	return c, root
}

// inputArgs reports argument errors as invalid input.
func inputArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return errors.Wrapf(errors.ErrInput, "%s: %s", cmd.CommandPath(), err)
		}
		return nil
	}
}

func defaultHome() string {
	return filepath.Join(os.ExpandEnv("$HOME"), ".htlcd")
}

func (c *cli) setup(cmd *cobra.Command, args []string) error {
	c.out = cmd.OutOrStdout()
	c.home = c.v.GetString(FlagHome)
	cfg, err := LoadConfig(c.v, c.home)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger, err = newLogger(c.logOut, cfg.LogLevel)
	return err
}

func (c *cli) clock() app.Clock {
	if unix := c.v.GetInt64(FlagTime); unix > 0 {
		return func() time.Time { return time.Unix(unix, 0).UTC() }
	}
	return time.Now
}

func (c *cli) api() app.Bech32API {
	return app.Bech32API{Prefix: c.cfg.Bech32Prefix}
}

func (c *cli) openStore() (*iavl.CommitStore, error) {
	dir := filepath.Join(c.home, dataDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return iavl.NewCommitStore(dbm.DBBackendType(c.cfg.DBBackend), dir, c.cfg.DBName, c.cfg.CacheSize)
}

// withRuntime runs fn on the persisted state and commits when it succeeds.
func (c *cli) withRuntime(fn func(context.Context, *app.Runtime) error) error {
	return c.run(true, fn)
}

// readRuntime runs fn on the persisted state without committing.
func (c *cli) readRuntime(fn func(context.Context, *app.Runtime) error) error {
	return c.run(false, fn)
}

func (c *cli) run(commit bool, fn func(context.Context, *app.Runtime) error) error {
	db, err := c.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	metrics, err := app.NewMetrics(reg)
	if err != nil {
		return err
	}
	rt := app.NewRuntime(db, c.api(), c.clock(), metrics)
	ctx := htlc.WithLogger(context.Background(), c.logger)
	if err := fn(ctx, rt); err != nil {
		return err
	}
	c.logMetrics(reg)
	if !commit {
		return nil
	}

	id, err := db.Commit()
	if err != nil {
		return err
	}
	c.logger.Debug("state committed", "version", id.Version, "hash", fmt.Sprintf("%X", id.Hash))
	return nil
}

// logMetrics writes the counters collected during the command.
func (c *cli) logMetrics(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		c.logger.Error("cannot gather metrics", "err", err)
		return
	}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			keyvals := []interface{}{"metric", f.GetName(), "value", m.GetCounter().GetValue()}
			for _, l := range m.GetLabel() {
				keyvals = append(keyvals, l.GetName(), l.GetValue())
			}
			c.logger.Debug("metric", keyvals...)
		}
	}
}

// parseAddress accepts the bech32 form of the configured network or any
// prefixed form understood by htlc.ParseAddress (hex:, cond:, bech32:).
func (c *cli) parseAddress(s string) (htlc.Address, error) {
	if strings.Contains(s, ":") {
		return htlc.ParseAddress(s)
	}
	return c.api().CanonicalAddress(s)
}

func (c *cli) printJSON(v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrHuman, err.Error())
	}
	_, err = fmt.Fprintln(c.out, string(raw))
	return err
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  inputArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), htlc.Version())
			return err
		},
	}
}
