package evidence

import (
	"github.com/baserisk/scanguard/internal/config"
	"github.com/baserisk/scanguard/internal/model"
	"github.com/baserisk/scanguard/internal/providers"
)

// Clients bundles the provider clients the registry wires executors against.
// A nil/unconfigured client's tools are simply left unregistered.
type Clients struct {
	RPC      *providers.RPCClient
	Explorer *providers.ExplorerClient
	Dex      *providers.DexClient
	Honeypot *providers.HoneypotClient
	Holders  *providers.HoldersClient
}

// network is fixed: the scanner targets a single EVM-compatible network
// (Base), so DEX pair lookups never need a per-scan chain parameter.
const network = "base"

// explorerChainID is Base mainnet's chain id, pinned per spec.
const explorerChainID = "8453"

// BuildClients constructs the provider clients BuildRegistry wires into
// executors, leaving a client nil wherever its configuration is absent.
func BuildClients(cfg config.Config) Clients {
	clients := Clients{
		RPC: providers.NewRPCClient(cfg.ChainRPCURL),
		Dex: providers.NewDexClient(cfg.DexBaseURL),
	}

	// The honeypot API key is optional: the client omits it when empty.
	clients.Honeypot = providers.NewHoneypotClient(cfg.HoneypotBaseURL, cfg.HoneypotAPIKey)
	if cfg.ExplorerConfigured() {
		clients.Explorer = providers.NewExplorerClient(cfg.ExplorerBaseURL, cfg.ExplorerAPIKey, explorerChainID)
	}
	if cfg.HoldersConfigured() {
		clients.Holders = providers.NewHoldersClient(cfg.HoldersBaseURL, cfg.HoldersToken)
	}

	return clients
}

// BuildRegistry constructs the closed tool registry, registering only the
// executors whose backing provider is configured. The pipeline's plan merge
// is responsible for not proposing steps the registry can't serve; Execute
// falls back to an unavailable item regardless, as a second line of defense.
func BuildRegistry(cfg config.Config, clients Clients) *Registry {
	registry := NewRegistry()

	registry.Register(model.ToolRPCBytecode, NewBytecodeExecutor(clients.RPC))
	registry.Register(model.ToolRPCErc20Metadata, NewErc20MetadataExecutor(clients.RPC))
	registry.Register(model.ToolDexscreenerPairs, NewDexExecutor(clients.Dex, network))
	registry.Register(model.ToolLPV2LockStatus, NewLPLockExecutor(clients.RPC))
	registry.Register(model.ToolHoneypotSimulation, NewHoneypotExecutor(clients.Honeypot))

	if cfg.ExplorerConfigured() {
		registry.Register(model.ToolBasescanSourceInfo, NewSourceInfoExecutor(clients.Explorer))
		registry.Register(model.ToolBasescanCreation, NewCreationExecutor(clients.Explorer))
		registry.Register(model.ToolContractOwnerStatus, NewOwnerExecutor(clients.RPC))
		registry.Register(model.ToolCapabilityScan, NewCapabilityExecutor())
	}

	if cfg.HoldersConfigured() {
		registry.Register(model.ToolHoldersTopHolders, NewHoldersExecutor(clients.Holders, cfg.HoldersArchiveN, cfg.HoldersMinRows, string(cfg.HoldersMode)))
	}

	return registry
}
