package achievements

import (
	"context"
	"errors"
	"fmt"
	"testing"

	core "github.com/taskchain/backend/internal/app/core/service"
	"github.com/taskchain/backend/internal/chain"
)

const validAddress = "0x7c5280557c44e10d0d63a1f241293d3f85a80e35"

type fakeGateway struct {
	status   chain.Status
	result   chain.TxResult
	err      error
	mints    []string
	tokenURI string
}

func (f *fakeGateway) ReadStatus(context.Context, string) (chain.Status, error) {
	return f.status, f.err
}

func (f *fakeGateway) RecordCompletion(context.Context, string) (chain.TxResult, error) {
	return f.result, f.err
}

func (f *fakeGateway) ClaimMilestone(context.Context, string) (chain.TxResult, error) {
	return f.result, f.err
}

func (f *fakeGateway) MintBadge(_ context.Context, recipient, tokenURI string) (chain.TxResult, error) {
	f.mints = append(f.mints, recipient)
	f.tokenURI = tokenURI
	return f.result, f.err
}

func TestStatus(t *testing.T) {
	gw := &fakeGateway{status: chain.Status{
		Address:           validAddress,
		CompletedTasks:    10,
		ClaimedMilestone:  5,
		TasksPerMilestone: 5,
		ClaimableCount:    1,
		IsClaimable:       true,
	}}
	svc := New(gw, nil)

	status, err := svc.Status(context.Background(), validAddress)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.ClaimableCount != 1 || !status.IsClaimable {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestStatusRejectsBadAddress(t *testing.T) {
	svc := New(&fakeGateway{}, nil)

	for _, addr := range []string{"", "   ", "not-an-address", "0xzz"} {
		if _, err := svc.Status(context.Background(), addr); !core.IsValidationError(err) {
			t.Errorf("address %q: expected validation error, got %v", addr, err)
		}
	}
}

func TestStatusWrapsGatewayFailure(t *testing.T) {
	gw := &fakeGateway{err: errors.New("rpc timeout")}
	svc := New(gw, nil)

	_, err := svc.Status(context.Background(), validAddress)
	if !core.IsDependencyFailure(err) {
		t.Fatalf("expected dependency failure, got %v", err)
	}
}

func TestClaim(t *testing.T) {
	gw := &fakeGateway{result: chain.TxResult{TxHash: "0xabc", VMState: "HALT"}}
	svc := New(gw, nil)

	result, err := svc.Claim(context.Background(), validAddress)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if result.TxHash != "0xabc" {
		t.Errorf("expected tx hash 0xabc, got %q", result.TxHash)
	}
}

func TestClaimNothingToClaimPassesThrough(t *testing.T) {
	gw := &fakeGateway{err: chain.ErrNothingToClaim}
	svc := New(gw, nil)

	_, err := svc.Claim(context.Background(), validAddress)
	if !errors.Is(err, chain.ErrNothingToClaim) {
		t.Fatalf("expected ErrNothingToClaim unchanged, got %v", err)
	}
	if core.IsDependencyFailure(err) {
		t.Error("nothing-to-claim must not read as a dependency failure")
	}
}

func TestClaimNothingToClaimWrapped(t *testing.T) {
	gw := &fakeGateway{err: fmt.Errorf("claim for %s: %w", validAddress, chain.ErrNothingToClaim)}
	svc := New(gw, nil)

	_, err := svc.Claim(context.Background(), validAddress)
	if !errors.Is(err, chain.ErrNothingToClaim) {
		t.Fatalf("wrapped sentinel must still match, got %v", err)
	}
	if core.IsDependencyFailure(err) {
		t.Error("wrapped nothing-to-claim must not read as a dependency failure")
	}
}

func TestMintDisabledByDefault(t *testing.T) {
	gw := &fakeGateway{}
	svc := New(gw, nil)

	_, err := svc.Mint(context.Background(), validAddress, "ipfs://badge")
	if !core.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(gw.mints) != 0 {
		t.Error("disabled mint must not reach the gateway")
	}
}

func TestMintUsesDefaultBadgeURI(t *testing.T) {
	gw := &fakeGateway{result: chain.TxResult{TxHash: "0xdef"}}
	svc := New(gw, nil, WithDirectMint(true), WithDefaultBadgeURI("ipfs://default"))

	if _, err := svc.Mint(context.Background(), validAddress, ""); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if gw.tokenURI != "ipfs://default" {
		t.Errorf("expected default token uri, got %q", gw.tokenURI)
	}

	if _, err := svc.Mint(context.Background(), validAddress, "ipfs://custom"); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if gw.tokenURI != "ipfs://custom" {
		t.Errorf("explicit token uri must win, got %q", gw.tokenURI)
	}
}

func TestMintRequiresSomeURI(t *testing.T) {
	svc := New(&fakeGateway{}, nil, WithDirectMint(true))

	_, err := svc.Mint(context.Background(), validAddress, "  ")
	if !core.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
