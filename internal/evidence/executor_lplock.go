package evidence

import (
	"context"
	"math/big"

	"github.com/baserisk/scanguard/internal/analyze"
	"github.com/baserisk/scanguard/internal/model"
	"github.com/baserisk/scanguard/internal/providers"
)

// LPLockData is the evidence payload for lp_v2_lockStatus.
type LPLockData struct {
	PairAddress    string `json:"pairAddress,omitempty"`
	IsV2Like       bool   `json:"isV2Like"`
	BurnedPct      string `json:"burnedPct"`
	DeployerPct    string `json:"deployerPct"`
	Classification string `json:"classification"`
	Confidence     string `json:"confidence"`
	Reason         string `json:"reason"`
}

type lpLockExecutor struct {
	rpc *providers.RPCClient
}

func NewLPLockExecutor(rpc *providers.RPCClient) Executor {
	return &lpLockExecutor{rpc: rpc}
}

func (e *lpLockExecutor) Execute(ctx context.Context, _ string, ledger *model.Ledger) model.EvidenceItem {
	pairAddress, deployerAddress, err := e.prerequisites(ledger)
	if err != "" {
		return unavailable(model.ToolLPV2LockStatus, err)
	}

	reserves := e.rpc.Call(ctx, pairAddress, analyze.SelectorGetReserves)
	if reserves.Err != "" {
		item := unavailable(model.ToolLPV2LockStatus, reserves.Err)
		item.SourceURL = reserves.SourceURL
		return item
	}
	if !analyze.IsV2Reserves(reserves.Hex) {
		item := unavailable(model.ToolLPV2LockStatus, "pair does not expose V2-style reserves")
		item.SourceURL = reserves.SourceURL
		return item
	}

	zeroBalHex := e.rpc.Call(ctx, pairAddress, analyze.BalanceOfCallData(analyze.ZeroAddress))
	deadBalHex := e.rpc.Call(ctx, pairAddress, analyze.BalanceOfCallData(analyze.DeadAddress))
	supplyHex := e.rpc.Call(ctx, pairAddress, analyze.SelectorTotalSupply)

	zeroBal, err := analyze.HexToBigInt(zeroBalHex.Hex)
	if err != nil {
		zeroBal = big.NewInt(0)
	}
	deadBal, err := analyze.HexToBigInt(deadBalHex.Hex)
	if err != nil {
		deadBal = big.NewInt(0)
	}
	totalSupply, supplyErr := analyze.HexToBigInt(supplyHex.Hex)
	if supplyErr != nil || totalSupply.Sign() == 0 {
		item := unavailable(model.ToolLPV2LockStatus, "could not read LP token total supply")
		item.SourceURL = reserves.SourceURL
		return item
	}

	hasDeployer := deployerAddress != ""
	deployerBal := big.NewInt(0)
	if hasDeployer {
		deployerBalHex := e.rpc.Call(ctx, pairAddress, analyze.BalanceOfCallData(deployerAddress))
		if parsed, err := analyze.HexToBigInt(deployerBalHex.Hex); err == nil {
			deployerBal = parsed
		}
	}

	result := analyze.InferLPLock(zeroBal, deadBal, deployerBal, totalSupply, hasDeployer)

	item := ok(model.ToolLPV2LockStatus, "LP lock inference", LPLockData{
		PairAddress:    pairAddress,
		IsV2Like:       result.IsV2Like,
		BurnedPct:      result.BurnedPct,
		DeployerPct:    result.DeployerPct,
		Classification: result.Classification,
		Confidence:     result.Confidence,
		Reason:         result.Reason,
	})
	item.SourceURL = reserves.SourceURL
	return item
}

func (e *lpLockExecutor) prerequisites(ledger *model.Ledger) (pairAddress, deployerAddress string, errMsg string) {
	dexItem, ok := ledger.ByTool(model.ToolDexscreenerPairs)
	if !ok || dexItem.Status != model.EvidenceStatusOK {
		return "", "", "no DEX pair data available to locate the LP pair"
	}
	dexData, isDexData := dexItem.Data.(DexPairsData)
	if !isDexData || dexData.BestPairAddr == "" {
		return "", "", "no best pair found in DEX pair data"
	}

	if creationItem, found := ledger.ByTool(model.ToolBasescanCreation); found && creationItem.Status == model.EvidenceStatusOK {
		if creationData, isCreationData := creationItem.Data.(CreationData); isCreationData {
			deployerAddress = creationData.DeployerAddress
		}
	}

	return dexData.BestPairAddr, deployerAddress, ""
}
