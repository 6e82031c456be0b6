// Hand-maintained stand-in for Wire's generated output; see InitApp.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package app

import (
	"github.com/chaind/chain-manager/internal/config"
)

// InitApp is wire.go's InitApp, hand-maintained to the same signature
// since the wire binary has not been run in this environment. New
// does the actual provider-graph assembly; this indirection exists so
// callers (internal/cli) depend on InitApp regardless of whether it
// was produced by `go generate` or by hand.
func InitApp(rt *config.Runtime) (*App, error) {
	return New(rt)
}
