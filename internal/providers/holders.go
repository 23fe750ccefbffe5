package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const holdersTimeout = 10 * time.Second

var (
	fastModeDays = []int{1, 2, 7}
	fullModeDays = []int{1, 2, 3, 7, 14, 30}
)

// HoldersClient wraps the indexed-holder GraphQL endpoint.
type HoldersClient struct {
	baseURL string
	token   string
}

func NewHoldersClient(baseURL, token string) *HoldersClient {
	return &HoldersClient{baseURL: baseURL, token: token}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlErrorEntry struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage     `json:"data"`
	Errors []graphqlErrorEntry `json:"errors"`
}

// HolderRow is one balance-holding address in the result set.
type HolderRow struct {
	Address string
	Balance string // decimal string, token-units or pre-divided depending on FetchMethod
}

// HoldersResult is the outcome of a top-holders lookup.
type HoldersResult struct {
	Rows        []HolderRow
	FetchMethod string // "token_holders" or "balance_updates"
	DateUsed    int    // days-ago that satisfied minRows, when FetchMethod == token_holders
	SourceURL   string
	Err         string
}

const tokenHoldersQuery = `
query TokenHolders($address: String!, $date: String!, $limit: Int!) {
  EVM {
    TokenHolders(
      tokenSmartContract: $address
      date: $date
      limit: $limit
      orderBy: {descending: Balance}
    ) {
      Holder { Address }
      Balance
      FirstDate
    }
  }
}`

const balanceUpdatesQuery = `
query BalanceUpdates($address: String!, $limit: Int!) {
  EVM {
    BalanceUpdates(
      tokenSmartContract: $address
      limit: $limit
      orderBy: {descendingByField: "sum_usd"}
    ) {
      BalanceUpdate { Address }
      sum_usd: sum(of: Amount_Usd)
      sum_balance: sum(of: BalanceUpdate_Amount)
    }
  }
}`

// GetTopHolders attempts TokenHolders at a sequence of past dates (governed
// by mode), stopping at the first date returning at least minRows rows. If
// the upstream signals a quota error, it reports unavailable without
// attempting the BalanceUpdates fallback; otherwise it falls back once the
// date sequence is exhausted.
func (c *HoldersClient) GetTopHolders(ctx context.Context, address string, limit, minRows int, mode string) HoldersResult {
	result := HoldersResult{SourceURL: c.baseURL}

	days := fastModeDays
	if mode == "full" {
		days = fullModeDays
	}

	for _, daysAgo := range days {
		date := time.Now().AddDate(0, 0, -daysAgo).Format("2006-01-02")
		rows, quotaErr, err := c.tokenHolders(ctx, address, date, limit)
		if err != "" {
			result.Err = err
			return result
		}
		if quotaErr {
			result.Err = "holders provider quota exceeded"
			return result
		}
		if len(rows) >= minRows {
			result.Rows = rows
			result.FetchMethod = "token_holders"
			result.DateUsed = daysAgo
			return result
		}
	}

	rows, quotaErr, err := c.balanceUpdates(ctx, address, limit)
	if err != "" {
		result.Err = err
		return result
	}
	if quotaErr {
		result.Err = "holders provider quota exceeded"
		return result
	}
	result.Rows = rows
	result.FetchMethod = "balance_updates"
	return result
}

func (c *HoldersClient) headers() map[string]string {
	if c.token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.token}
}

func (c *HoldersClient) tokenHolders(ctx context.Context, address, date string, limit int) ([]HolderRow, bool, string) {
	body, status, err := doJSON(ctx, http.MethodPost, c.baseURL, c.headers(), graphqlRequest{
		Query: tokenHoldersQuery,
		Variables: map[string]any{
			"address": address,
			"date":    date,
			"limit":   limit,
		},
	}, holdersTimeout)
	if err != nil {
		return nil, false, err.Error()
	}
	if status == 402 || status == 429 {
		return nil, true, ""
	}
	if status >= 300 {
		return nil, false, fmt.Sprintf("holders provider HTTP %d", status)
	}

	var parsed graphqlResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, false, fmt.Sprintf("decoding holders response: %v", err)
	}
	if quotaShaped(parsed.Errors) {
		return nil, true, ""
	}
	if len(parsed.Errors) > 0 {
		return nil, false, parsed.Errors[0].Message
	}

	var payload struct {
		EVM struct {
			TokenHolders []struct {
				Holder struct {
					Address string `json:"Address"`
				} `json:"Holder"`
				Balance string `json:"Balance"`
			} `json:"TokenHolders"`
		} `json:"EVM"`
	}
	if err := json.Unmarshal(parsed.Data, &payload); err != nil {
		return nil, false, fmt.Sprintf("decoding holders data: %v", err)
	}

	rows := make([]HolderRow, 0, len(payload.EVM.TokenHolders))
	for _, h := range payload.EVM.TokenHolders {
		rows = append(rows, HolderRow{Address: strings.ToLower(h.Holder.Address), Balance: h.Balance})
	}
	return rows, false, ""
}

func (c *HoldersClient) balanceUpdates(ctx context.Context, address string, limit int) ([]HolderRow, bool, string) {
	body, status, err := doJSON(ctx, http.MethodPost, c.baseURL, c.headers(), graphqlRequest{
		Query: balanceUpdatesQuery,
		Variables: map[string]any{
			"address": address,
			"limit":   limit,
		},
	}, holdersTimeout)
	if err != nil {
		return nil, false, err.Error()
	}
	if status == 402 || status == 429 {
		return nil, true, ""
	}
	if status >= 300 {
		return nil, false, fmt.Sprintf("holders provider HTTP %d", status)
	}

	var parsed graphqlResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, false, fmt.Sprintf("decoding holders response: %v", err)
	}
	if quotaShaped(parsed.Errors) {
		return nil, true, ""
	}
	if len(parsed.Errors) > 0 {
		return nil, false, parsed.Errors[0].Message
	}

	var payload struct {
		EVM struct {
			BalanceUpdates []struct {
				BalanceUpdate struct {
					Address string `json:"Address"`
				} `json:"BalanceUpdate"`
				SumBalance string `json:"sum_balance"`
			} `json:"BalanceUpdates"`
		} `json:"EVM"`
	}
	if err := json.Unmarshal(parsed.Data, &payload); err != nil {
		return nil, false, fmt.Sprintf("decoding holders data: %v", err)
	}

	rows := make([]HolderRow, 0, len(payload.EVM.BalanceUpdates))
	for _, b := range payload.EVM.BalanceUpdates {
		rows = append(rows, HolderRow{Address: strings.ToLower(b.BalanceUpdate.Address), Balance: b.SumBalance})
	}
	return rows, false, ""
}

func quotaShaped(errs []graphqlErrorEntry) bool {
	for _, e := range errs {
		lower := strings.ToLower(e.Message)
		if strings.Contains(lower, "quota") || strings.Contains(lower, "rate limit") || strings.Contains(lower, "payment required") {
			return true
		}
	}
	return false
}
