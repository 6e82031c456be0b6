// Package domain holds the Chain Manager's core types: the data that
// flows between the Facade, the Workers, the Adapters, and the
// Notification Bus. Nothing in this package talks to a process, a
// socket, or a file — it is pure data plus the small amount of
// validation that belongs to the data itself.
package domain

import (
	"fmt"
	"time"
)

// EVMType identifies which EVM implementation a chain runs.
type EVMType string

const (
	EVMGeth    EVMType = "geth"
	EVMGanache EVMType = "ganache"
)

func (t EVMType) Valid() bool {
	return t == EVMGeth || t == EVMGanache
}

// ChainStatus is the Chain Worker's state machine position, per
// spec §4.4.
type ChainStatus string

const (
	StatusInitializing      ChainStatus = "initializing"
	StatusActive            ChainStatus = "active"
	StatusSnapshotTaking    ChainStatus = "snapshot_taking"
	StatusSnapshotReverting ChainStatus = "snapshot_reverting"
	StatusTerminating       ChainStatus = "terminating"
	StatusStopped           ChainStatus = "stopped"
	StatusFailed            ChainStatus = "failed"
)

// Live reports whether the worker is expected to still own its ports,
// its data directory, and a running EVM process.
func (s ChainStatus) Live() bool {
	switch s {
	case StatusStopped, StatusFailed:
		return false
	default:
		return true
	}
}

// Account is a pre-funded address on a chain. PrivKey is populated
// only for chains where the Account Provisioner controls key
// generation (Ganache); Geth-provisioned accounts are unlocked inside
// the EVM process and never leave it.
type Account struct {
	Address string `json:"address"`
	Balance string `json:"balance"` // decimal wei, string to avoid precision loss over JSON
	PrivKey string `json:"privKey,omitempty"`
}

// ChainConfig is the immutable-after-start request describing one
// chain, per spec §3. Fields left zero-valued at submission are
// filled in by the Resource Allocator.
type ChainConfig struct {
	ID                string  `json:"id,omitempty"`
	Type              EVMType `json:"type"`
	AccountsRequested int     `json:"accountsRequested"`
	BlockMineTimeMs   int     `json:"blockMineTimeMs"`
	NetworkID         int     `json:"networkId"`
	DBPath            string  `json:"dbPath,omitempty"`
	HTTPPort          int     `json:"httpPort,omitempty"`
	WSPort            int     `json:"wsPort,omitempty"`
	CleanOnStop       bool    `json:"cleanOnStop"`
	OutputLogPath     string  `json:"outputLogPath,omitempty"`
	SnapshotID        string  `json:"snapshotId,omitempty"`
	Subscriber        string  `json:"subscriber,omitempty"`
}

// WithDefaults returns a copy of cfg with spec-mandated defaults
// applied (accounts_requested default 1, network_id default 999).
func (c ChainConfig) WithDefaults() ChainConfig {
	if c.AccountsRequested == 0 {
		c.AccountsRequested = 1
	}
	if c.NetworkID == 0 {
		c.NetworkID = 999
	}
	return c
}

// Validate performs the synchronous validation spec §7 kind 1 demands:
// bad chain type or negative counts are rejected before a worker is
// ever spawned.
func (c ChainConfig) Validate() error {
	if !c.Type.Valid() {
		return fmt.Errorf("%w: chain type %q", ErrValidation, c.Type)
	}
	if c.AccountsRequested < 0 {
		return fmt.Errorf("%w: accounts_requested must be >= 0", ErrValidation)
	}
	if c.BlockMineTimeMs < 0 {
		return fmt.Errorf("%w: block_mine_time_ms must be >= 0", ErrValidation)
	}
	if c.NetworkID < 0 {
		return fmt.Errorf("%w: network_id must be >= 0", ErrValidation)
	}
	return nil
}

// ChainHandle is the public view of a live or terminal chain, exposed
// via Facade.details, per spec §3.
type ChainHandle struct {
	ID       string      `json:"id"`
	Type     EVMType     `json:"type"`
	Status   ChainStatus `json:"status"`
	Accounts []Account   `json:"accounts"`
	Coinbase string      `json:"coinbase"`
	RPCURL   string      `json:"rpcUrl"`
	WSURL    string      `json:"wsUrl"`
}

// SnapshotDetails identifies one archive-based snapshot, per spec §3.
type SnapshotDetails struct {
	ID          string    `json:"id"`
	ChainType   EVMType   `json:"chainType"`
	Description string    `json:"description"`
	Path        string    `json:"path"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Transient reports whether this snapshot is archive-only (no index
// row), per spec §3's lifecycle rule for empty descriptions.
func (s SnapshotDetails) Transient() bool {
	return s.Description == ""
}
