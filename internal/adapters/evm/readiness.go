package evm

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/chaind/chain-manager/internal/domain"
)

// waitReady polls eth_blockNumber on url with the backoff sequence
// spec §4.3 specifies, until it succeeds or ctx is done. ctx carries
// the kill_timeout deadline; callers set it via context.WithTimeout.
func waitReady(ctx context.Context, url string) error {
	var delay time.Duration
	for {
		client, err := rpc.DialContext(ctx, url)
		if err == nil {
			var blockNum string
			callErr := client.CallContext(ctx, &blockNum, "eth_blockNumber")
			client.Close()
			if callErr == nil {
				return nil
			}
		}

		delay = nextProbeDelay(delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %s never became ready", domain.ErrStartTimeout, url)
		case <-timer.C:
		}
	}
}

// waitReadyOrCrash races waitReady against the process exiting first.
// An exit before the first readiness success is classified as
// ErrPortInUseAtLaunch: spec §4.1 makes the EVM Adapter's Start the
// authoritative surface for a bind race the Allocator's advisory probe
// lost, and in practice that is by far the most common reason a
// freshly launched geth/ganache process dies before ever answering
// eth_blockNumber.
func waitReadyOrCrash(ctx context.Context, url string, exited <-chan struct{}) error {
	readyErr := make(chan error, 1)
	go func() { readyErr <- waitReady(ctx, url) }()

	select {
	case err := <-readyErr:
		return err
	case <-exited:
		return fmt.Errorf("%w: process exited before the readiness probe ever succeeded", domain.ErrPortInUseAtLaunch)
	}
}

// rpcCall opens a short-lived client against url and issues one call,
// used by mining toggles and Ganache's internal snapshot commands.
func rpcCall(ctx context.Context, url, method string, result interface{}, args ...interface{}) error {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return fmt.Errorf("evm: dialing %s: %w", url, err)
	}
	defer client.Close()
	return client.CallContext(ctx, result, method, args...)
}
