package evidence

import (
	"context"

	"github.com/baserisk/scanguard/internal/model"
	"github.com/baserisk/scanguard/internal/providers"
)

// HoneypotData is the evidence payload for honeypot_getSimulation.
type HoneypotData struct {
	SimulationSucceeded bool    `json:"simulationSucceeded"`
	IsHoneypot          bool    `json:"isHoneypot"`
	HoneypotReason      string  `json:"honeypotReason,omitempty"`
	BuyTaxPct           float64 `json:"buyTaxPct"`
	SellTaxPct          float64 `json:"sellTaxPct"`
	TransferTaxPct      float64 `json:"transferTaxPct"`
	BuyGasEstimate      int64   `json:"buyGasEstimate"`
	SellGasEstimate     int64   `json:"sellGasEstimate"`
	PairAddress         string  `json:"pairAddress,omitempty"`
	Router              string  `json:"router,omitempty"`
}

type honeypotExecutor struct {
	client *providers.HoneypotClient
}

func NewHoneypotExecutor(client *providers.HoneypotClient) Executor {
	return &honeypotExecutor{client: client}
}

func (e *honeypotExecutor) Execute(ctx context.Context, tokenAddress string, _ *model.Ledger) model.EvidenceItem {
	sim := e.client.Simulate(ctx, tokenAddress)
	if sim.Err != "" {
		item := unavailable(model.ToolHoneypotSimulation, sim.Err)
		item.SourceURL = sim.SourceURL
		return item
	}

	item := ok(model.ToolHoneypotSimulation, "Honeypot simulation", HoneypotData{
		SimulationSucceeded: sim.SimulationSucceeded,
		IsHoneypot:          sim.IsHoneypot,
		HoneypotReason:      sim.HoneypotReason,
		BuyTaxPct:           sim.BuyTaxPct,
		SellTaxPct:          sim.SellTaxPct,
		TransferTaxPct:      sim.TransferTaxPct,
		BuyGasEstimate:      sim.BuyGasEstimate,
		SellGasEstimate:     sim.SellGasEstimate,
		PairAddress:         sim.PairAddress,
		Router:              sim.Router,
	})
	item.SourceURL = sim.SourceURL
	return item
}
