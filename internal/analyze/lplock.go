package analyze

import "math/big"

const minReservesHexLen = 194

// LPLockResult is the classified outcome of the LP lock inference.
type LPLockResult struct {
	IsV2Like       bool
	BurnedPct      string
	DeployerPct    string
	Classification string // "locked", "unlocked", "unknown"
	Confidence     string // "high", "medium", "low"
	Reason         string
}

// IsV2Reserves reports whether a getReserves() hex blob looks like a
// standard V2-style pair (reserve0, reserve1, blockTimestampLast packed).
func IsV2Reserves(reservesHex string) bool {
	trimmed := reservesHex
	if len(trimmed) >= 2 && trimmed[:2] == "0x" {
		trimmed = trimmed[2:]
	}
	return len(trimmed) >= minReservesHexLen
}

// InferLPLock classifies LP lock status from burned-supply and
// deployer-held-supply ratios. zeroBalance/deadBalance/deployerBalance and
// totalSupply are raw on-chain integers (already parsed via HexToBigInt).
// hasDeployer indicates whether a deployer address was available to check.
func InferLPLock(zeroBalance, deadBalance, deployerBalance, totalSupply *big.Int, hasDeployer bool) LPLockResult {
	burned := new(big.Int).Add(zeroBalance, deadBalance)

	result := LPLockResult{
		IsV2Like:    true,
		BurnedPct:   PctFixed4(burned, totalSupply),
		DeployerPct: "0.0000",
	}

	burnedMeetsThreshold := thresholdMet(burned, totalSupply, 95)

	if burnedMeetsThreshold {
		result.Classification = "locked"
		result.Confidence = "high"
		result.Reason = "burned/dead balance is at least 95% of total supply"
		return result
	}

	if hasDeployer {
		result.DeployerPct = PctFixed4(deployerBalance, totalSupply)
		if thresholdMet(deployerBalance, totalSupply, 20) {
			result.Classification = "unlocked"
			result.Confidence = "medium"
			result.Reason = "deployer address holds at least 20% of total supply"
			return result
		}
	}

	result.Classification = "unknown"
	result.Confidence = "low"
	result.Reason = "neither burned-supply nor deployer-held-supply thresholds were met"
	return result
}

// thresholdMet reports whether num/den*100 >= pct, computed without float
// rounding as num*100 >= pct*den.
func thresholdMet(num, den *big.Int, pct int64) bool {
	if den.Sign() == 0 {
		return false
	}
	lhs := new(big.Int).Mul(num, big.NewInt(100))
	rhs := new(big.Int).Mul(den, big.NewInt(pct))
	return lhs.Cmp(rhs) >= 0
}
