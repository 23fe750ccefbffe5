package analyze

import (
	"encoding/json"
	"strings"
)

// Capabilities are the boolean risk flags derived from an ABI's function
// names.
type Capabilities struct {
	MintPossible     bool `json:"mintPossible"`
	CanBlacklist     bool `json:"canBlacklist"`
	CanPause         bool `json:"canPause"`
	CanSetFees       bool `json:"canSetFees"`
	HasTradingToggle bool `json:"hasTradingToggle"`
	UpgradeableProxy bool `json:"upgradeableProxy"`
}

type abiEntry struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ScanCapabilities parses a JSON ABI array and flags capability substrings
// in function names. isProxy is carried through from the source-info lookup
// verbatim, since proxy detection is not derivable from the ABI alone.
func ScanCapabilities(abiJSON string, isProxy bool) Capabilities {
	caps := Capabilities{UpgradeableProxy: isProxy}

	var entries []abiEntry
	if err := json.Unmarshal([]byte(abiJSON), &entries); err != nil {
		return caps
	}

	for _, e := range entries {
		if e.Type != "function" {
			continue
		}
		name := strings.ToLower(e.Name)

		if strings.Contains(name, "mint") {
			caps.MintPossible = true
		}
		if strings.Contains(name, "blacklist") || strings.Contains(name, "blocklist") {
			caps.CanBlacklist = true
		}
		if strings.Contains(name, "pause") || strings.Contains(name, "unpause") {
			caps.CanPause = true
		}
		if strings.Contains(name, "setfee") || strings.Contains(name, "tax") ||
			strings.Contains(name, "settax") || strings.Contains(name, "setbuy") || strings.Contains(name, "setsell") {
			caps.CanSetFees = true
		}
		if strings.Contains(name, "trading") || strings.Contains(name, "enabletrading") || strings.Contains(name, "disabletrading") {
			caps.HasTradingToggle = true
		}
	}

	return caps
}

// HasOwnerFunction reports whether the ABI exposes a no-argument owner()
// view function.
func HasOwnerFunction(abiJSON string) bool {
	var entries []abiEntry
	if err := json.Unmarshal([]byte(abiJSON), &entries); err != nil {
		return false
	}
	for _, e := range entries {
		if e.Type == "function" && strings.ToLower(e.Name) == "owner" {
			return true
		}
	}
	return false
}
