// Package achievements exposes the on-chain achievement counters and the
// milestone claim flow to the HTTP layer.
package achievements

import (
	"context"
	"errors"
	"fmt"
	"strings"

	core "github.com/taskchain/backend/internal/app/core/service"
	"github.com/taskchain/backend/internal/chain"
	"github.com/taskchain/backend/pkg/logger"
)

// Gateway is the chain-side contract binding the service drives. It is
// satisfied by chain.Achievements.
type Gateway interface {
	ReadStatus(ctx context.Context, ownerAddress string) (chain.Status, error)
	RecordCompletion(ctx context.Context, ownerAddress string) (chain.TxResult, error)
	ClaimMilestone(ctx context.Context, ownerAddress string) (chain.TxResult, error)
	MintBadge(ctx context.Context, recipientAddress, tokenURI string) (chain.TxResult, error)
}

// Service validates addresses and delegates to the chain gateway. Counters
// are always read through to the chain so responses can never go stale.
type Service struct {
	gateway         Gateway
	allowDirectMint bool
	defaultBadgeURI string
	log             *logger.Logger
}

// Option configures the service.
type Option func(*Service)

// WithDirectMint enables the unrestricted badge mint operation.
func WithDirectMint(allow bool) Option {
	return func(s *Service) { s.allowDirectMint = allow }
}

// WithDefaultBadgeURI sets the token URI used when a mint request omits one.
func WithDefaultBadgeURI(uri string) Option {
	return func(s *Service) { s.defaultBadgeURI = uri }
}

// New creates the achievements service.
func New(gateway Gateway, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.NewDefault("achievements")
	}
	svc := &Service{gateway: gateway, log: log}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Status reads the live achievement counters for an owner address.
func (s *Service) Status(ctx context.Context, address string) (chain.Status, error) {
	if err := s.checkAddress("address", address); err != nil {
		return chain.Status{}, err
	}
	status, err := s.gateway.ReadStatus(ctx, address)
	if err != nil {
		return chain.Status{}, core.NewDependencyError("chain", err)
	}
	return status, nil
}

// RecordCompletion pushes one completed task onto the owner's on-chain
// counter.
func (s *Service) RecordCompletion(ctx context.Context, address string) (chain.TxResult, error) {
	if err := s.checkAddress("address", address); err != nil {
		return chain.TxResult{}, err
	}
	result, err := s.gateway.RecordCompletion(ctx, address)
	if err != nil {
		return chain.TxResult{}, core.NewDependencyError("chain", err)
	}
	s.log.With("tx", result.TxHash).With("owner", address).Info("completion recorded on chain")
	return result, nil
}

// Claim submits a milestone claim for an owner address. It returns
// chain.ErrNothingToClaim unchanged when the counters show no claimable
// reward, so the handler can map it to a client error rather than a
// dependency failure.
func (s *Service) Claim(ctx context.Context, address string) (chain.TxResult, error) {
	if err := s.checkAddress("address", address); err != nil {
		return chain.TxResult{}, err
	}
	result, err := s.gateway.ClaimMilestone(ctx, address)
	if err != nil {
		if errors.Is(err, chain.ErrNothingToClaim) {
			return chain.TxResult{}, err
		}
		return chain.TxResult{}, core.NewDependencyError("chain", err)
	}
	s.log.With("tx", result.TxHash).With("owner", address).Info("milestone reward claimed")
	return result, nil
}

// Mint mints a badge directly to a recipient, bypassing the milestone
// counters. The operation is disabled unless explicitly enabled in
// configuration.
func (s *Service) Mint(ctx context.Context, recipient, tokenURI string) (chain.TxResult, error) {
	if !s.allowDirectMint {
		return chain.TxResult{}, fmt.Errorf("direct minting is disabled: %w", core.ErrForbidden)
	}
	if err := s.checkAddress("recipient", recipient); err != nil {
		return chain.TxResult{}, err
	}
	if strings.TrimSpace(tokenURI) == "" {
		tokenURI = s.defaultBadgeURI
	}
	if tokenURI == "" {
		return chain.TxResult{}, core.RequiredError("token_uri")
	}
	result, err := s.gateway.MintBadge(ctx, recipient, tokenURI)
	if err != nil {
		return chain.TxResult{}, core.NewDependencyError("chain", err)
	}
	s.log.With("tx", result.TxHash).With("recipient", recipient).Info("badge minted")
	return result, nil
}

func (s *Service) checkAddress(field, address string) error {
	if strings.TrimSpace(address) == "" {
		return core.RequiredError(field)
	}
	if err := chain.ValidateAddress(address); err != nil {
		return core.NewValidationError(field, err.Error())
	}
	return nil
}
