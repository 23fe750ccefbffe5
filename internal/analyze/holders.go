package analyze

import (
	"github.com/shopspring/decimal"
)

const (
	maxCommonScale    = 36
	maxDisplayDecimals = 18
)

func init() {
	decimal.DivisionPrecision = maxCommonScale
}

// HolderAmount is one holder's raw balance as returned by the provider,
// in whatever unit its fetch method produces (base-unit integer for
// token_holders, already human-scaled for balance_updates).
type HolderAmount struct {
	Address   string
	RawAmount string
}

// HolderShare is one holder's computed supply share.
type HolderShare struct {
	Address          string
	RawAmount        string
	PctOfSupply      *string // nil unless fetchMethod=="token_holders" and totalSupply/decimals are known
	RelativeSharePct string  // always defined: share of the returned top-N set
}

// HoldersAnalysis is the full holder supply-percent computation for a scan.
type HoldersAnalysis struct {
	Shares  []HolderShare
	Top5Pct *string
	Top10Pct *string
}

// ComputeHolderShares scales holder balances and totalSupply to a common
// decimal representation (shopspring/decimal, capped at maxCommonScale
// fractional digits internally) and derives per-holder supply percentages.
// totalSupply/decimals may be nil/unknown, in which case PctOfSupply is left
// nil for every holder but RelativeSharePct is still computed.
func ComputeHolderShares(totalSupply *string, decimals *int, fetchMethod string, holders []HolderAmount) HoldersAnalysis {
	amounts := make([]decimal.Decimal, len(holders))
	sum := decimal.Zero
	for i, h := range holders {
		amt, err := decimal.NewFromString(h.RawAmount)
		if err != nil {
			amt = decimal.Zero
		}
		amounts[i] = amt
		sum = sum.Add(amt)
	}

	canComputeAbsolute := fetchMethod == "token_holders" && totalSupply != nil && decimals != nil
	var supplyHuman decimal.Decimal
	if canComputeAbsolute {
		raw, err := decimal.NewFromString(*totalSupply)
		if err != nil {
			canComputeAbsolute = false
		} else {
			supplyHuman = raw.Shift(-int32(*decimals))
			if supplyHuman.Sign() == 0 {
				canComputeAbsolute = false
			}
		}
	}

	shares := make([]HolderShare, len(holders))
	for i, h := range holders {
		share := HolderShare{Address: h.Address, RawAmount: h.RawAmount}

		if !sum.IsZero() {
			rel := amounts[i].Div(sum).Mul(decimal.NewFromInt(100)).Truncate(maxDisplayDecimals)
			relStr := rel.String()
			share.RelativeSharePct = relStr
		} else {
			share.RelativeSharePct = "0"
		}

		if canComputeAbsolute {
			// amounts[i] is still base-unit here (token_holders rows are raw
			// on-chain integers, same scale totalSupply had before supplyHuman
			// shifted it down) so it must be shifted by the same decimals
			// before dividing into the human-scaled supply.
			amtHuman := amounts[i].Shift(-int32(*decimals))
			pct := amtHuman.Div(supplyHuman).Mul(decimal.NewFromInt(100)).Truncate(maxDisplayDecimals)
			pctStr := pct.String()
			share.PctOfSupply = &pctStr
		}

		shares[i] = share
	}

	analysis := HoldersAnalysis{Shares: shares}
	analysis.Top5Pct = sumPct(shares, 5)
	analysis.Top10Pct = sumPct(shares, 10)
	return analysis
}

func sumPct(shares []HolderShare, n int) *string {
	if n > len(shares) {
		n = len(shares)
	}
	total := decimal.Zero
	for i := 0; i < n; i++ {
		if shares[i].PctOfSupply == nil {
			return nil
		}
		v, err := decimal.NewFromString(*shares[i].PctOfSupply)
		if err != nil {
			return nil
		}
		total = total.Add(v)
	}
	result := total.Truncate(maxDisplayDecimals).String()
	return &result
}
