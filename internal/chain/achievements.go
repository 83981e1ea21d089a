package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/wallet"

	"github.com/taskchain/backend/internal/app/metrics"
	"github.com/taskchain/backend/pkg/logger"
)

// ErrNothingToClaim is returned when a claim is attempted with no milestone
// rewards available at call time.
var ErrNothingToClaim = errors.New("no milestone rewards available to claim")

// Status mirrors the on-chain achievement counters for one owner address.
// The chain is the only authority for these numbers; nothing here is cached.
type Status struct {
	Address           string `json:"user_address"`
	CompletedTasks    int64  `json:"completed_tasks_on_chain"`
	ClaimedMilestone  int64  `json:"claimed_tasks_milestone_on_chain"`
	TasksPerMilestone int64  `json:"tasks_per_nft"`
	ClaimableCount    int64  `json:"claimable_nfts"`
	IsClaimable       bool   `json:"is_claim_available"`
}

// ClaimableCount computes how many milestone rewards an owner can claim given
// the on-chain counters.
func ClaimableCount(completed, claimed, perMilestone int64) int64 {
	if perMilestone <= 0 {
		return 0
	}
	return completed/perMilestone - claimed/perMilestone
}

// Achievements binds the achievement contract: view calls for the counters
// and signed transactions for recording completions and claiming rewards.
type Achievements struct {
	client       *Client
	builder      *TxBuilder
	contractHash string
	account      *wallet.Account
	log          *logger.Logger

	// writeMu serialises build+sign+broadcast for the signing key so two
	// concurrent writes cannot race the node for the same transaction slot.
	writeMu sync.Mutex
}

// NewAchievements creates the contract binding. privateKeyHex is the
// server-held owner key used to sign every write.
func NewAchievements(client *Client, contractHash, privateKeyHex string, log *logger.Logger) (*Achievements, error) {
	if contractHash == "" {
		return nil, fmt.Errorf("contract hash required")
	}

	account, err := AccountFromPrivateKey(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	if log == nil {
		log = logger.NewDefault("chain")
	}

	return &Achievements{
		client:       client,
		builder:      NewTxBuilder(client, client.NetworkID()),
		contractHash: contractHash,
		account:      account,
		log:          log,
	}, nil
}

// =============================================================================
// View Calls
// =============================================================================

// ReadStatus returns the achievement counters for an owner address together
// with the derived claimable count.
func (a *Achievements) ReadStatus(ctx context.Context, ownerAddress string) (Status, error) {
	hash, err := ParseAddress(ownerAddress)
	if err != nil {
		return Status{}, err
	}
	addrParam := NewHash160Param(FormatScriptHash(hash))

	completed, err := a.viewInteger(ctx, "completedTasks", []ContractParam{addrParam})
	if err != nil {
		return Status{}, err
	}
	claimed, err := a.viewInteger(ctx, "claimedTasksMilestone", []ContractParam{addrParam})
	if err != nil {
		return Status{}, err
	}
	perMilestone, err := a.viewInteger(ctx, "TASKS_PER_NFT", nil)
	if err != nil {
		return Status{}, err
	}

	claimable := ClaimableCount(completed, claimed, perMilestone)
	return Status{
		Address:           ownerAddress,
		CompletedTasks:    completed,
		ClaimedMilestone:  claimed,
		TasksPerMilestone: perMilestone,
		ClaimableCount:    claimable,
		IsClaimable:       claimable > 0,
	}, nil
}

func (a *Achievements) viewInteger(ctx context.Context, method string, params []ContractParam) (int64, error) {
	if params == nil {
		params = []ContractParam{}
	}
	result, err := a.client.InvokeFunction(ctx, a.contractHash, method, params)
	if err != nil {
		return 0, fmt.Errorf("invoke %s: %w", method, err)
	}
	value, err := firstStackInteger(result, method)
	if err != nil {
		return 0, err
	}
	return value.Int64(), nil
}

// =============================================================================
// Write Calls
// =============================================================================

// RecordCompletion records one completed task for the owner address on-chain.
func (a *Achievements) RecordCompletion(ctx context.Context, ownerAddress string) (TxResult, error) {
	hash, err := ParseAddress(ownerAddress)
	if err != nil {
		return TxResult{}, err
	}

	result, err := a.writeInvoke(ctx, "markTaskCompleted", []ContractParam{
		NewHash160Param(FormatScriptHash(hash)),
	})
	if err != nil {
		return result, err
	}

	a.log.WithField("owner", ownerAddress).WithField("tx_hash", result.TxHash).
		Info("recorded task completion on-chain")
	return result, nil
}

// ClaimMilestone claims all currently available milestone rewards for the
// owner address. The claimability re-check and the transaction are not
// atomic; a concurrent completion or claim can change the outcome, and the
// contract remains the final arbiter.
func (a *Achievements) ClaimMilestone(ctx context.Context, ownerAddress string) (TxResult, error) {
	status, err := a.ReadStatus(ctx, ownerAddress)
	if err != nil {
		return TxResult{}, err
	}
	if !status.IsClaimable {
		return TxResult{}, ErrNothingToClaim
	}

	hash, err := ParseAddress(ownerAddress)
	if err != nil {
		return TxResult{}, err
	}

	result, err := a.writeInvoke(ctx, "claimAchievementNFT", []ContractParam{
		NewHash160Param(FormatScriptHash(hash)),
	})
	if err != nil {
		return result, err
	}

	a.log.WithField("owner", ownerAddress).WithField("tx_hash", result.TxHash).
		Info("claimed milestone rewards")
	return result, nil
}

// MintBadge mints a badge token directly to the recipient address.
func (a *Achievements) MintBadge(ctx context.Context, recipientAddress, tokenURI string) (TxResult, error) {
	hash, err := ParseAddress(recipientAddress)
	if err != nil {
		return TxResult{}, err
	}

	result, err := a.writeInvoke(ctx, "mintNft", []ContractParam{
		NewHash160Param(FormatScriptHash(hash)),
		NewStringParam(tokenURI),
	})
	if err != nil {
		return result, err
	}

	a.log.WithField("recipient", recipientAddress).WithField("tx_hash", result.TxHash).
		Info("minted badge")
	return result, nil
}

// writeInvoke simulates, builds, signs, broadcasts, and confirms one
// state-changing invocation under the write lock.
func (a *Achievements) writeInvoke(ctx context.Context, method string, params []ContractParam) (result TxResult, err error) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	start := time.Now()
	defer func() {
		status := result.VMState
		if err != nil {
			status = "error"
		}
		if status == "" {
			status = "not_sent"
		}
		metrics.RecordChainTransaction(method, strings.ToLower(status), time.Since(start))
	}()

	signers := []Signer{{
		Account: FormatScriptHash(a.account.ScriptHash()),
		Scopes:  "CalledByEntry",
	}}

	sim, err := a.client.InvokeFunctionWithSigners(ctx, a.contractHash, method, params, signers)
	if err != nil {
		return TxResult{}, fmt.Errorf("invoke %s: %w", method, err)
	}
	if sim.State != "HALT" {
		return TxResult{}, fmt.Errorf("%s failed: %s", method, sim.Exception)
	}

	tx, err := a.builder.BuildAndSignTx(ctx, sim, a.account, transaction.CalledByEntry)
	if err != nil {
		return TxResult{}, fmt.Errorf("build %s transaction: %w", method, err)
	}

	txHash, err := a.builder.BroadcastTx(ctx, tx)
	if err != nil {
		return TxResult{}, err
	}

	result = TxResult{TxHash: txHash, VMState: "SENT"}

	waitCtx, cancel := context.WithTimeout(ctx, DefaultTxWaitTimeout)
	defer cancel()

	appLog, err := a.client.WaitForApplicationLog(waitCtx, txHash, DefaultPollInterval)
	if err != nil {
		// The transaction is already broadcast; its fate stays unresolved
		// from the caller's perspective.
		return result, fmt.Errorf("wait for %s execution: %w", method, err)
	}

	result.AppLog = appLog
	if len(appLog.Executions) > 0 {
		result.VMState = appLog.Executions[0].VMState
		if result.VMState != "HALT" {
			return result, fmt.Errorf("%s reverted with state %s", method, result.VMState)
		}
	}

	return result, nil
}
