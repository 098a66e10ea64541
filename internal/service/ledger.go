package service

import (
	"github.com/lfreitas/escrowmarket/internal/domain"
	"github.com/lfreitas/escrowmarket/internal/ledger"
)

// MintRequest represents the input for crediting newly created units.
type MintRequest struct {
	Asset  string
	To     string
	UnitID int64
	Amount int64
}

// SetApprovalRequest represents an owner granting or revoking an
// operator's right to move their units.
type SetApprovalRequest struct {
	Asset    string
	Owner    string
	Operator string
	Approved bool
}

// FundRequest represents the input for crediting a value account.
type FundRequest struct {
	Owner  string
	Amount int64
}

// LedgerService is the admin surface over the in-memory ledgers: minting
// units, granting approvals, funding value accounts, and balance queries.
// It exists so the binary can be exercised end to end; a deployment backed
// by a real asset ledger would not mount it.
type LedgerService struct {
	assets *ledger.MemoryAssetLedger
	values *ledger.MemoryValueLedger
}

// NewLedgerService creates a new LedgerService over the given ledgers.
func NewLedgerService(assets *ledger.MemoryAssetLedger, values *ledger.MemoryValueLedger) *LedgerService {
	return &LedgerService{assets: assets, values: values}
}

// Mint validates the request and credits the units.
func (s *LedgerService) Mint(req MintRequest) error {
	asset, err := parseAddress("asset", req.Asset)
	if err != nil {
		return err
	}
	to, err := parseAddress("to", req.To)
	if err != nil {
		return err
	}
	if req.UnitID < 0 {
		return &domain.ValidationError{Message: "unit_id must be non-negative"}
	}
	if req.Amount <= 0 {
		return &domain.ValidationError{Message: "amount must be a positive integer"}
	}

	s.assets.Mint(asset, to, req.UnitID, req.Amount)
	return nil
}

// SetApproval validates the request and records the approval.
func (s *LedgerService) SetApproval(req SetApprovalRequest) error {
	asset, err := parseAddress("asset", req.Asset)
	if err != nil {
		return err
	}
	owner, err := parseAddress("owner", req.Owner)
	if err != nil {
		return err
	}
	operator, err := parseAddress("operator", req.Operator)
	if err != nil {
		return err
	}

	s.assets.SetApproval(asset, owner, operator, req.Approved)
	return nil
}

// Fund validates the request and credits the value account.
func (s *LedgerService) Fund(req FundRequest) error {
	owner, err := parseAddress("owner", req.Owner)
	if err != nil {
		return err
	}
	if req.Amount <= 0 {
		return &domain.ValidationError{Message: "amount must be a positive integer"}
	}

	s.values.Credit(owner, req.Amount)
	return nil
}

// AssetBalance returns the owner's balance of a unit.
func (s *LedgerService) AssetBalance(asset, owner string, unitID int64) (int64, error) {
	assetAddr, err := parseAddress("asset", asset)
	if err != nil {
		return 0, err
	}
	ownerAddr, err := parseAddress("owner", owner)
	if err != nil {
		return 0, err
	}
	return s.assets.BalanceOf(assetAddr, ownerAddr, unitID), nil
}

// ValueBalance returns the owner's value account balance.
func (s *LedgerService) ValueBalance(owner string) (int64, error) {
	ownerAddr, err := parseAddress("owner", owner)
	if err != nil {
		return 0, err
	}
	return s.values.BalanceOf(ownerAddr), nil
}
