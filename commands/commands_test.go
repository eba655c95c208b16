package commands

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/app"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/htlctest"
	"github.com/iov-one/htlc/x/escrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type node struct {
	t      *testing.T
	home   string
	buyer  htlc.Address
	seller htlc.Address
	secret []byte
}

// newNode creates a home directory with a genesis file funding the buyer.
func newNode(t *testing.T) (*node, func()) {
	home, err := ioutil.TempDir("", "htlcd-")
	require.NoError(t, err)

	n := &node{
		t:      t,
		home:   home,
		buyer:  htlctest.RandomAddr(t),
		seller: htlctest.RandomAddr(t),
		secret: make([]byte, 32),
	}
	copy(n.secret, "mysecret")

	genesis := fmt.Sprintf(`{
		"chain_id": "test-htlc",
		"app_options": {
			"cash": [{"address": "%s", "coins": ["1000 ucosm"]}]
		}
	}`, n.buyer)
	require.NoError(t, ioutil.WriteFile(filepath.Join(home, genesisFile), []byte(genesis), 0600))
	return n, func() { os.RemoveAll(home) }
}

func (n *node) run(args ...string) (string, error) {
	cmd := NewRootCmd(ioutil.Discard)
	var out bytes.Buffer
	cmd.SetOutput(&out)
	cmd.SetArgs(append(args, "--"+FlagHome, n.home))
	err := cmd.Execute()
	return out.String(), err
}

func (n *node) mustRun(args ...string) string {
	n.t.Helper()
	out, err := n.run(args...)
	require.NoError(n.t, err, "%+v", err)
	return out
}

func (n *node) human(a htlc.Address) string {
	return htlctest.Bech32(n.t, app.DefaultPrefix, a)
}

func (n *node) secretHash() string {
	sum := sha256.Sum256(n.secret)
	return hex.EncodeToString(sum[:])
}

func (n *node) instantiate(funds string) uint64 {
	n.t.Helper()
	out := n.mustRun("instantiate", n.human(n.buyer),
		"--buyer", n.human(n.buyer),
		"--seller", n.human(n.seller),
		"--expiration", "1000",
		"--value", "500",
		"--secret-hash", n.secretHash(),
		"--funds", funds,
	)
	var res instantiateResult
	require.NoError(n.t, json.Unmarshal([]byte(out), &res))
	return res.ID
}

func (n *node) balance(a htlc.Address) string {
	n.t.Helper()
	var res balanceResult
	require.NoError(n.t, json.Unmarshal([]byte(n.mustRun("balance", n.human(a))), &res))
	return res.Coins.String()
}

func TestInitOnce(t *testing.T) {
	n, cleanup := newNode(t)
	defer cleanup()

	n.mustRun("init")
	_, err := os.Stat(filepath.Join(n.home, configFile))
	require.NoError(t, err)
	assert.Equal(t, "1000ucosm", n.balance(n.buyer))

	_, err = n.run("init")
	assert.True(t, errors.ErrDuplicate.Is(err))
}

func TestClaimFlow(t *testing.T) {
	n, cleanup := newNode(t)
	defer cleanup()
	n.mustRun("init")

	id := n.instantiate("500ucosm")
	assert.Equal(t, uint64(1), id)
	assert.Equal(t, "500ucosm", n.balance(n.buyer))

	wrong := strings.Repeat("ab", 32)
	_, err := n.run("claim", "1", wrong)
	assert.True(t, escrow.ErrSecretMismatch.Is(err))

	_, err = n.run("claim", "1", "not-a-preimage")
	assert.True(t, escrow.ErrInvalidPreimageLength.Is(err))

	out := n.mustRun("claim", "1", hex.EncodeToString(n.secret))
	var res executeResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Messages, 1)
	assert.Equal(t, n.human(n.seller), res.Messages[0].ToAddress)
	assert.Len(t, res.MsgHash, 64)
	echoed, err := escrow.DecodeHandleMsg(res.Msg)
	require.NoError(t, err)
	assert.Equal(t, escrow.ClaimMsg{Secret: hex.EncodeToString(n.secret)}, echoed)
	assert.Equal(t, "500ucosm", n.balance(n.seller))

	_, err = n.run("refund", "1", "--"+FlagTime, "2000")
	assert.True(t, escrow.ErrNothingToRefund.Is(err))

	var info app.InstanceInfo
	require.NoError(t, json.Unmarshal([]byte(n.mustRun("show", "1")), &info))
	assert.Equal(t, n.seller, info.State.Seller)
	assert.Equal(t, htlc.UnixTime(1000), info.State.Expiration)
	assert.Empty(t, info.Balance)

	_, err = n.run("query", "1", "{}")
	assert.True(t, escrow.ErrUnsupportedQuery.Is(err))
}

func TestRefundFlow(t *testing.T) {
	n, cleanup := newNode(t)
	defer cleanup()
	n.mustRun("init")

	n.instantiate("")
	instance := n.human(app.InstanceAddress(1))
	n.mustRun("send", n.human(n.buyer), instance, "300ucosm")
	assert.Equal(t, "300ucosm", n.balance(app.InstanceAddress(1)))

	_, err := n.run("refund", "1", "--"+FlagTime, "999")
	assert.True(t, escrow.ErrNotYetExpired.Is(err))

	out := n.mustRun("execute", "1", `{"type":"escrow/RefundMsg","value":{}}`, "--"+FlagTime, "1000")
	var res executeResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, n.human(n.buyer), res.Messages[0].ToAddress)
	assert.Equal(t, "1000ucosm", n.balance(n.buyer))
}

func TestInstantiateFromJSON(t *testing.T) {
	n, cleanup := newNode(t)
	defer cleanup()
	n.mustRun("init")

	msg := fmt.Sprintf(`{"buyer":%q,"seller":%q,"expiration":1000,"value":"500","secret_hash":%q}`,
		n.human(n.buyer), n.human(n.seller), strings.Repeat("a", 63))
	_, err := n.run("instantiate", n.human(n.buyer), "--msg", msg)
	assert.True(t, escrow.ErrInvalidCommitment.Is(err))

	var list []*app.Instance
	require.NoError(t, json.Unmarshal([]byte(n.mustRun("list")), &list))
	assert.Empty(t, list)

	msg = fmt.Sprintf(`{"buyer":%q,"seller":%q,"expiration":1000,"value":"500","secret_hash":%q}`,
		n.human(n.buyer), n.human(n.seller), n.secretHash())
	var created instantiateResult
	require.NoError(t, json.Unmarshal([]byte(n.mustRun("instantiate", n.human(n.buyer), "--msg", msg)), &created))
	echoed, err := escrow.DecodeInitMsg(created.Msg)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), echoed.Value)
	assert.Equal(t, htlc.UnixTime(1000), echoed.Expiration)
	assert.Equal(t, n.secretHash(), echoed.SecretHash)

	require.NoError(t, json.Unmarshal([]byte(n.mustRun("list", "--creator", n.human(n.buyer))), &list))
	require.Len(t, list, 1)
	assert.Equal(t, n.buyer, list[0].Creator)
}

func TestVersion(t *testing.T) {
	n, cleanup := newNode(t)
	defer cleanup()
	assert.Equal(t, htlc.Version()+"\n", n.mustRun("version"))
}

func TestUsageErrors(t *testing.T) {
	n, cleanup := newNode(t)
	defer cleanup()

	cases := map[string]struct {
		args    []string
		wantLog string
	}{
		"missing arguments": {
			args:    []string{"claim"},
			wantLog: "Error (code 14): htlcd claim: accepts 2 arg(s), received 0: invalid input",
		},
		"unknown flag": {
			args:    []string{"--bogus"},
			wantLog: "Error (code 14): htlcd: unknown flag: --bogus: invalid input",
		},
		"unknown subcommand flag": {
			args:    []string{"show", "1", "--bogus"},
			wantLog: "Error (code 14): htlcd show: unknown flag: --bogus: invalid input",
		},
		"unknown command": {
			args:    []string{"bogus"},
			wantLog: `Error (code 14): htlcd: unknown command "bogus" for "htlcd": invalid input`,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var out, errOut bytes.Buffer
			code := Execute(append(tc.args, "--"+FlagHome, n.home), &out, &errOut)
			assert.Equal(t, 1, code)
			assert.Equal(t, tc.wantLog+"\n", errOut.String())
		})
	}
}

func TestExecuteWithoutCommand(t *testing.T) {
	n, cleanup := newNode(t)
	defer cleanup()

	var out, errOut bytes.Buffer
	assert.Equal(t, 0, Execute([]string{"--" + FlagHome, n.home}, &out, &errOut))
	assert.Contains(t, out.String(), "Usage:")
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, 0, report(&buf, nil, true))
	assert.Empty(t, buf.String())

	internal := errors.Wrap(io.EOF, "cannot read genesis")
	assert.Equal(t, 1, report(&buf, internal, false))
	assert.Equal(t, "Error (code 1): internal error\n", buf.String())

	buf.Reset()
	assert.Equal(t, 1, report(&buf, internal, true))
	assert.True(t, strings.HasPrefix(buf.String(), "Error (code 1): cannot read genesis: EOF\ncannot read genesis: EOF\n"), buf.String())
	assert.Contains(t, buf.String(), "commands_test.go")

	buf.Reset()
	assert.Equal(t, 2, report(&buf, errors.Wrap(escrow.ErrUninitialized, "load"), false))
	assert.Equal(t, "FATAL (code 110): load: escrow not initialized\n", buf.String())
}
