package chain

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/nspcc-dev/neo-go/pkg/config/netmode"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
)

// validUntilIncrement bounds how many blocks a built transaction stays valid.
const validUntilIncrement = 240

// TxBuilder assembles, signs, and broadcasts transactions from invocation
// simulations.
type TxBuilder struct {
	client  *Client
	network netmode.Magic
}

// NewTxBuilder creates a transaction builder for the client's network.
func NewTxBuilder(client *Client, networkID uint32) *TxBuilder {
	return &TxBuilder{
		client:  client,
		network: netmode.Magic(networkID),
	}
}

// BuildAndSignTx turns a successful invocation simulation into a signed
// transaction. The expiry height is read from the node immediately before
// building, so callers serialising writes get a fresh slot each time.
func (b *TxBuilder) BuildAndSignTx(ctx context.Context, sim *InvokeResult, acc *wallet.Account, scope transaction.WitnessScope) (*transaction.Transaction, error) {
	script, err := base64.StdEncoding.DecodeString(sim.Script)
	if err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}

	sysFee, err := strconv.ParseInt(sim.GasConsumed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse gas consumed %q: %w", sim.GasConsumed, err)
	}

	height, err := b.client.GetBlockCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("get block count: %w", err)
	}

	tx := transaction.New(script, sysFee)
	tx.Nonce = randomNonce()
	tx.ValidUntilBlock = height + validUntilIncrement
	tx.Signers = []transaction.Signer{{
		Account: acc.ScriptHash(),
		Scopes:  scope,
	}}

	// Witness placeholder so the node can size the network fee.
	tx.Scripts = []transaction.Witness{{
		InvocationScript:   []byte{},
		VerificationScript: acc.Contract.Script,
	}}

	unsigned := tx.Bytes()
	netFee, err := b.client.CalculateNetworkFee(ctx, base64.StdEncoding.EncodeToString(unsigned))
	if err != nil {
		return nil, fmt.Errorf("calculate network fee: %w", err)
	}
	tx.NetworkFee = netFee

	tx.Scripts = nil
	if err := acc.SignTx(b.network, tx); err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	return tx, nil
}

// BroadcastTx submits a signed transaction and returns its 0x hash.
func (b *TxBuilder) BroadcastTx(ctx context.Context, tx *transaction.Transaction) (string, error) {
	raw := tx.Bytes()
	if _, err := b.client.SendRawTransaction(ctx, base64.StdEncoding.EncodeToString(raw)); err != nil {
		return "", fmt.Errorf("broadcast transaction: %w", err)
	}
	return "0x" + tx.Hash().StringLE(), nil
}

func randomNonce() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(buf[:])
}
