package analyze

import "testing"

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestComputeHolderShares_TokenHoldersWithKnownSupply(t *testing.T) {
	totalSupply := strPtr("1000")
	decimals := intPtr(0)

	holders := []HolderAmount{
		{Address: "0xaaa", RawAmount: "500"},
		{Address: "0xbbb", RawAmount: "300"},
		{Address: "0xccc", RawAmount: "200"},
	}

	got := ComputeHolderShares(totalSupply, decimals, "token_holders", holders)

	if len(got.Shares) != 3 {
		t.Fatalf("expected 3 shares, got %d", len(got.Shares))
	}
	for i, want := range []string{"50", "30", "20"} {
		if got.Shares[i].PctOfSupply == nil || *got.Shares[i].PctOfSupply != want {
			t.Errorf("share %d: PctOfSupply = %v, want %s", i, got.Shares[i].PctOfSupply, want)
		}
	}
	if got.Top5Pct == nil || *got.Top5Pct != "100" {
		t.Fatalf("expected Top5Pct 100, got %v", got.Top5Pct)
	}
	if got.Top10Pct == nil || *got.Top10Pct != "100" {
		t.Fatalf("expected Top10Pct 100, got %v", got.Top10Pct)
	}
}

func TestComputeHolderShares_TokenHoldersWithNonZeroDecimals(t *testing.T) {
	// totalSupply and RawAmount are both base-unit integers at 18 decimals:
	// 1000 tokens total supply, holders owning 500/300/200 tokens.
	totalSupply := strPtr("1000000000000000000000")
	decimals := intPtr(18)

	holders := []HolderAmount{
		{Address: "0xaaa", RawAmount: "500000000000000000000"},
		{Address: "0xbbb", RawAmount: "300000000000000000000"},
		{Address: "0xccc", RawAmount: "200000000000000000000"},
	}

	got := ComputeHolderShares(totalSupply, decimals, "token_holders", holders)

	for i, want := range []string{"50", "30", "20"} {
		if got.Shares[i].PctOfSupply == nil || *got.Shares[i].PctOfSupply != want {
			t.Errorf("share %d: PctOfSupply = %v, want %s", i, got.Shares[i].PctOfSupply, want)
		}
	}
}

func TestComputeHolderShares_RelativeShareAlwaysComputed(t *testing.T) {
	holders := []HolderAmount{
		{Address: "0xaaa", RawAmount: "1"},
		{Address: "0xbbb", RawAmount: "3"},
	}

	got := ComputeHolderShares(nil, nil, "balance_updates", holders)

	if got.Shares[0].PctOfSupply != nil || got.Shares[1].PctOfSupply != nil {
		t.Fatalf("expected PctOfSupply nil without a known total supply, got %+v", got.Shares)
	}
	if got.Shares[0].RelativeSharePct != "25" {
		t.Errorf("expected 25%% relative share, got %s", got.Shares[0].RelativeSharePct)
	}
	if got.Shares[1].RelativeSharePct != "75" {
		t.Errorf("expected 75%% relative share, got %s", got.Shares[1].RelativeSharePct)
	}
	if got.Top5Pct != nil || got.Top10Pct != nil {
		t.Fatalf("expected nil top-N totals when PctOfSupply is unknown, got %+v / %+v", got.Top5Pct, got.Top10Pct)
	}
}

func TestComputeHolderShares_ZeroTotalSupplyFallsBackToUnknown(t *testing.T) {
	totalSupply := strPtr("0")
	decimals := intPtr(18)
	holders := []HolderAmount{{Address: "0xaaa", RawAmount: "100"}}

	got := ComputeHolderShares(totalSupply, decimals, "token_holders", holders)

	if got.Shares[0].PctOfSupply != nil {
		t.Fatalf("expected nil PctOfSupply for zero total supply, got %v", *got.Shares[0].PctOfSupply)
	}
}

func TestComputeHolderShares_UnparsableAmountTreatedAsZero(t *testing.T) {
	holders := []HolderAmount{
		{Address: "0xaaa", RawAmount: "not-a-number"},
		{Address: "0xbbb", RawAmount: "100"},
	}

	got := ComputeHolderShares(nil, nil, "balance_updates", holders)

	if got.Shares[0].RelativeSharePct != "0" {
		t.Errorf("expected unparsable amount to contribute 0, got %s", got.Shares[0].RelativeSharePct)
	}
	if got.Shares[1].RelativeSharePct != "100" {
		t.Errorf("expected sole valid amount to hold 100%% relative share, got %s", got.Shares[1].RelativeSharePct)
	}
}

func TestComputeHolderShares_EmptyHolderSet(t *testing.T) {
	got := ComputeHolderShares(nil, nil, "balance_updates", nil)

	if len(got.Shares) != 0 {
		t.Fatalf("expected no shares, got %d", len(got.Shares))
	}
	if got.Top5Pct != nil || got.Top10Pct != nil {
		t.Fatalf("expected nil top-N totals for an empty holder set")
	}
}

func TestComputeHolderShares_FewerThanTenHoldersCapsTopN(t *testing.T) {
	totalSupply := strPtr("100")
	decimals := intPtr(0)
	holders := []HolderAmount{
		{Address: "0xaaa", RawAmount: "40"},
		{Address: "0xbbb", RawAmount: "30"},
	}

	got := ComputeHolderShares(totalSupply, decimals, "token_holders", holders)

	if got.Top10Pct == nil || *got.Top10Pct != "70" {
		t.Fatalf("expected Top10Pct to sum only the 2 available holders, got %v", got.Top10Pct)
	}
}
