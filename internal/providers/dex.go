package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const dexTimeout = 10 * time.Second

// DexClient wraps the DEX aggregator's token-pairs REST endpoint.
type DexClient struct {
	baseURL string
}

func NewDexClient(baseURL string) *DexClient {
	return &DexClient{baseURL: baseURL}
}

type dexToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type dexPairRow struct {
	DexID         string   `json:"dexId"`
	PairAddress   string   `json:"pairAddress"`
	BaseToken     dexToken `json:"baseToken"`
	QuoteToken    dexToken `json:"quoteToken"`
	PriceUsd      string   `json:"priceUsd"`
	URL           string   `json:"url"`
	PairCreatedAt int64    `json:"pairCreatedAt"`
	Liquidity     struct {
		Usd float64 `json:"usd"`
	} `json:"liquidity"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Txns struct {
		H24 struct {
			Buys  int `json:"buys"`
			Sells int `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`
}

// Pair is one trading pair returned by the DEX aggregator.
type Pair struct {
	DexID           string
	PairAddress     string
	BaseToken       dexToken
	QuoteToken      dexToken
	LiquidityUsd    float64
	PriceUsd        string
	PriceChangeH24  float64
	VolumeH24       float64
	BuysH24         int
	SellsH24        int
	PairCreatedAt   int64
	URL             string
}

// PairsResult is the outcome of a DEX pairs lookup.
type PairsResult struct {
	Pairs     []Pair
	SourceURL string
	Err       string
}

func (c *DexClient) GetPairs(ctx context.Context, network, address string) PairsResult {
	endpoint := fmt.Sprintf("%s/token-pairs/v1/%s/%s", c.baseURL, network, address)
	result := PairsResult{SourceURL: endpoint}

	body, status, err := doJSON(ctx, http.MethodGet, endpoint, nil, nil, dexTimeout)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	if status >= 300 {
		result.Err = fmt.Sprintf("dex aggregator HTTP %d", status)
		return result
	}

	var rows []dexPairRow
	if err := json.Unmarshal(body, &rows); err != nil {
		result.Err = fmt.Sprintf("decoding dex response: %v", err)
		return result
	}

	result.Pairs = make([]Pair, 0, len(rows))
	for _, row := range rows {
		row.BaseToken.Address = strings.ToLower(row.BaseToken.Address)
		row.QuoteToken.Address = strings.ToLower(row.QuoteToken.Address)
		result.Pairs = append(result.Pairs, Pair{
			DexID:          row.DexID,
			PairAddress:    strings.ToLower(row.PairAddress),
			BaseToken:      row.BaseToken,
			QuoteToken:     row.QuoteToken,
			LiquidityUsd:   row.Liquidity.Usd,
			PriceUsd:       row.PriceUsd,
			PriceChangeH24: row.PriceChange.H24,
			VolumeH24:      row.Volume.H24,
			BuysH24:        row.Txns.H24.Buys,
			SellsH24:       row.Txns.H24.Sells,
			PairCreatedAt:  row.PairCreatedAt,
			URL:            row.URL,
		})
	}

	return result
}

// BestPair returns the pair with the highest USD liquidity, or false if the
// list is empty.
func (r PairsResult) BestPair() (Pair, bool) {
	if len(r.Pairs) == 0 {
		return Pair{}, false
	}
	best := r.Pairs[0]
	for _, p := range r.Pairs[1:] {
		if p.LiquidityUsd > best.LiquidityUsd {
			best = p
		}
	}
	return best, true
}
