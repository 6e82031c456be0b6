// Package config loads the Chain Manager's operator-provided
// configuration, per spec §6. Precedence (highest first): explicit
// Cobra flags, CHAIND_* environment variables, a chaind.toml file,
// then the defaults set here.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// PortRange is an inclusive [Low, High] TCP port range.
type PortRange struct {
	Low  int
	High int
}

// Runtime is the fully-resolved configuration consumed by every other
// component. It is constructed once at boot and passed explicitly,
// never read from a package-level global.
type Runtime struct {
	BasePath         string
	SnapshotBasePath string
	SnapshotDBPath   string
	KillTimeoutMs    int
	FrontURL         string
	EVMPortRange     PortRange

	GethExecutable      string
	GethPasswordFile    string
	GanacheExecutable   string
	GanacheWrapperScript string

	MetricsAddr string
	LogLevel    string
}

// SetupViper builds a viper instance with the chaind.toml file lookup,
// CHAIND_* environment binding, and defaults wired in, following the
// same shape as the teacher's SetupViper: config file read first
// (ignored if absent), environment automatic, flags bound last so
// they win.
func SetupViper(cmd *cobra.Command) *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("chaind")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/chaind")

	v.SetEnvPrefix("CHAIND")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("base_path", "/tmp/chains")
	v.SetDefault("snapshot_base_path", "/tmp/snapshots")
	v.SetDefault("snapshot_db_path", "/tmp/db/snapshots")
	v.SetDefault("kill_timeout_ms", 180_000)
	v.SetDefault("front_url", "localhost")
	v.SetDefault("evm_port_range_low", 8500)
	v.SetDefault("evm_port_range_high", 8600)
	v.SetDefault("geth_executable", "geth")
	v.SetDefault("geth_password_file", "")
	v.SetDefault("ganache_executable", "ganache-cli")
	v.SetDefault("ganache_wrapper_script", "")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("log_level", "info")

	_ = v.ReadInConfig()

	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil {
				panic(err)
			}
		})
	}

	return v
}

// Load resolves a Runtime from v, validating the port range.
func Load(v *viper.Viper) (*Runtime, error) {
	rt := &Runtime{
		BasePath:         v.GetString("base_path"),
		SnapshotBasePath: v.GetString("snapshot_base_path"),
		SnapshotDBPath:   v.GetString("snapshot_db_path"),
		KillTimeoutMs:    v.GetInt("kill_timeout_ms"),
		FrontURL:         v.GetString("front_url"),
		EVMPortRange: PortRange{
			Low:  v.GetInt("evm_port_range_low"),
			High: v.GetInt("evm_port_range_high"),
		},
		GethExecutable:       v.GetString("geth_executable"),
		GethPasswordFile:     v.GetString("geth_password_file"),
		GanacheExecutable:    v.GetString("ganache_executable"),
		GanacheWrapperScript: v.GetString("ganache_wrapper_script"),
		MetricsAddr:          v.GetString("metrics_addr"),
		LogLevel:             v.GetString("log_level"),
	}

	if rt.EVMPortRange.Low <= 0 || rt.EVMPortRange.High < rt.EVMPortRange.Low {
		return nil, fmt.Errorf("invalid evm_port_range [%d, %d]", rt.EVMPortRange.Low, rt.EVMPortRange.High)
	}
	if rt.KillTimeoutMs <= 0 {
		return nil, fmt.Errorf("kill_timeout_ms must be > 0, got %d", rt.KillTimeoutMs)
	}
	rt.BasePath = filepath.Clean(rt.BasePath)
	rt.SnapshotBasePath = filepath.Clean(rt.SnapshotBasePath)
	rt.SnapshotDBPath = filepath.Clean(rt.SnapshotDBPath)

	return rt, nil
}
