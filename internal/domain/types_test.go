package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEVMType_Valid(t *testing.T) {
	assert.True(t, EVMGeth.Valid())
	assert.True(t, EVMGanache.Valid())
	assert.False(t, EVMType("parity").Valid())
}

func TestChainStatus_Live(t *testing.T) {
	assert.True(t, StatusActive.Live())
	assert.True(t, StatusInitializing.Live())
	assert.True(t, StatusSnapshotTaking.Live())
	assert.False(t, StatusStopped.Live())
	assert.False(t, StatusFailed.Live())
}

func TestChainConfig_WithDefaults(t *testing.T) {
	cfg := ChainConfig{Type: EVMGeth}.WithDefaults()
	assert.Equal(t, 1, cfg.AccountsRequested)
	assert.Equal(t, 999, cfg.NetworkID)

	explicit := ChainConfig{Type: EVMGeth, AccountsRequested: 5, NetworkID: 31337}.WithDefaults()
	assert.Equal(t, 5, explicit.AccountsRequested)
	assert.Equal(t, 31337, explicit.NetworkID)
}

func TestChainConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     ChainConfig
		wantErr error
	}{
		{"valid geth", ChainConfig{Type: EVMGeth}, nil},
		{"valid ganache", ChainConfig{Type: EVMGanache}, nil},
		{"bad type", ChainConfig{Type: "parity"}, ErrValidation},
		{"negative accounts", ChainConfig{Type: EVMGeth, AccountsRequested: -1}, ErrValidation},
		{"negative block mine time", ChainConfig{Type: EVMGeth, BlockMineTimeMs: -1}, ErrValidation},
		{"negative network id", ChainConfig{Type: EVMGeth, NetworkID: -1}, ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tc.wantErr))
		})
	}
}

func TestSnapshotDetails_Transient(t *testing.T) {
	assert.True(t, SnapshotDetails{}.Transient())
	assert.False(t, SnapshotDetails{Description: "pre-deploy"}.Transient())
}
