package reporting

import (
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"protocol-stats/internal/domain"
	"protocol-stats/internal/pipeline"
	"protocol-stats/internal/sources"
	"protocol-stats/internal/stats"
)

// Table is a rendered series: one header row and one row per point.
type Table struct {
	Header []string
	Rows   [][]string
}

// RenderCSV renders a table as CSV string.
func RenderCSV(t *Table) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(t.Header); err != nil {
		return "", err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// SeriesTable flattens a dashboard series into a table.
// Unavailable values are rendered as empty cells.
func SeriesTable(d *pipeline.Dashboard, name string) (*Table, error) {
	switch name {
	case stats.NameVolume:
		return cumulativeTable(d.Volume), nil
	case stats.NameVolumeFromActions:
		if d.VolumeFromActions == nil {
			return nil, notComputed(name)
		}
		return cumulativeTable(&d.VolumeFromActions.Series), nil
	case stats.NameFees:
		return cumulativeTable(d.Fees), nil
	case stats.NameSwapSources:
		return sourcesTable(d.SwapSources), nil
	case stats.NameFundingRates:
		return fundingTable(d.FundingRates), nil
	case stats.NameUsers:
		return usersTable(d.Users), nil
	case stats.NameTraders:
		if d.Traders == nil {
			return nil, notComputed(name)
		}
		return tradersTable(d.Traders.Points), nil
	case stats.NameReferrals:
		return referralsTable(d.Referrals), nil
	case stats.NamePoolAmounts:
		return poolAmountsTable(d.PoolAmounts), nil
	case stats.NamePool:
		return poolTable(d.Pool), nil
	case stats.NamePoolPerformance:
		if d.PoolPerformance == nil {
			return nil, notComputed(name)
		}
		return performanceTable(d.PoolPerformance.Points), nil
	case stats.NameYield:
		if d.Yield == nil {
			return nil, notComputed(name)
		}
		return yieldTable(d.Yield.Points), nil
	default:
		return nil, fmt.Errorf("unknown series %q", name)
	}
}

// ErrSeriesNotComputed is returned for series absent from a dashboard.
var ErrSeriesNotComputed = errors.New("series not computed")

func notComputed(name string) error {
	return fmt.Errorf("%s: %w", name, ErrSeriesNotComputed)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func optNum(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}

func ts(v int64) string {
	return strconv.FormatInt(v, 10)
}

func count(v int64) string {
	return strconv.FormatInt(v, 10)
}

// unionKeys returns the sorted union of the keys of every map.
func unionKeys(maps ...map[string]float64) []string {
	seen := make(map[string]struct{})
	for _, m := range maps {
		for k := range m {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cumulativeTable(s *stats.Series[*domain.CumulativePoint]) *Table {
	var points []*domain.CumulativePoint
	if s != nil {
		points = s.Points
	}

	fieldMaps := make([]map[string]float64, len(points))
	withAccounts := false
	for i, p := range points {
		fieldMaps[i] = p.Fields
		if p.UniqueAccounts != nil {
			withAccounts = true
		}
	}
	fields := unionKeys(fieldMaps...)

	t := &Table{Header: append(append([]string{"timestamp"}, fields...), "all", "cumulative", "moving_average_all")}
	if withAccounts {
		t.Header = append(t.Header, "unique_accounts")
	}

	for _, p := range points {
		row := []string{ts(p.Timestamp)}
		for _, f := range fields {
			row = append(row, num(p.Fields[f]))
		}
		row = append(row, num(p.All), num(p.Cumulative), optNum(p.MovingAverageAll))
		if withAccounts {
			cell := ""
			if p.UniqueAccounts != nil {
				cell = strconv.FormatUint(*p.UniqueAccounts, 10)
			}
			row = append(row, cell)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func sourcesTable(s *stats.SourceSeries) *Table {
	if s == nil {
		return &Table{Header: []string{"timestamp", "all"}}
	}

	columns := append([]string(nil), s.Sources...)
	for _, p := range s.Points {
		if _, ok := p.Sources[sources.Other]; ok {
			columns = append(columns, sources.Other)
			break
		}
	}

	t := &Table{Header: append(append([]string{"timestamp"}, columns...), "all")}
	for _, p := range s.Points {
		row := []string{ts(p.Timestamp)}
		for _, c := range columns {
			row = append(row, num(p.Sources[c]))
		}
		t.Rows = append(t.Rows, append(row, num(p.All)))
	}
	return t
}

func fundingTable(s *stats.Series[*domain.FundingRatePoint]) *Table {
	var points []*domain.FundingRatePoint
	if s != nil {
		points = s.Points
	}
	rateMaps := make([]map[string]float64, len(points))
	for i, p := range points {
		rateMaps[i] = p.Rates
	}
	symbols := unionKeys(rateMaps...)

	t := &Table{Header: append([]string{"timestamp"}, symbols...)}
	for _, p := range points {
		row := []string{ts(p.Timestamp)}
		for _, sym := range symbols {
			v, ok := p.Rates[sym]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, num(v))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func usersTable(s *stats.Series[*domain.UserPoint]) *Table {
	t := &Table{Header: []string{
		"timestamp", "unique_count", "unique_sum", "new_count", "new_swap_count", "new_margin_count",
		"new_mint_burn_count", "old_count", "old_percent", "cumulative_new_user_count",
		"action_count", "action_swap_count", "action_margin_count", "action_mint_burn_count",
	}}
	if s == nil {
		return t
	}
	for _, p := range s.Points {
		t.Rows = append(t.Rows, []string{
			ts(p.Timestamp), num(p.UniqueCount), num(p.UniqueSum), num(p.NewCount), num(p.NewSwapCount),
			num(p.NewMarginCount), num(p.NewMintBurnCount), num(p.OldCount), optNum(p.OldPercent),
			num(p.CumulativeNewUserCount), num(p.ActionCount), num(p.ActionSwapCount),
			num(p.ActionMarginCount), num(p.ActionMintBurnCount),
		})
	}
	return t
}

func tradersTable(points []*domain.TraderPoint) *Table {
	t := &Table{Header: []string{
		"timestamp", "long_open_interest", "short_open_interest", "open_interest", "profit", "loss",
		"profit_cumulative", "loss_cumulative", "pnl", "pnl_cumulative",
		"current_pnl_cumulative", "current_profit_cumulative", "current_loss_cumulative",
	}}
	for _, p := range points {
		t.Rows = append(t.Rows, []string{
			ts(p.Timestamp), num(p.LongOpenInterest), num(p.ShortOpenInterest), num(p.OpenInterest),
			num(p.Profit), num(p.Loss), num(p.ProfitCumulative), num(p.LossCumulative),
			num(p.PnL), num(p.PnLCumulative), num(p.CurrentPnLCumulative),
			num(p.CurrentProfitCumulative), num(p.CurrentLossCumulative),
		})
	}
	return t
}

func referralsTable(s *stats.Series[*domain.ReferralPoint]) *Table {
	t := &Table{Header: []string{
		"timestamp", "volume", "volume_cumulative", "total_rebate_usd", "total_rebate_usd_cumulative",
		"discount_usd", "discount_usd_cumulative", "referrer_rebate_usd",
		"referrers_count", "referrers_count_cumulative", "referral_codes_count",
		"referral_codes_count_cumulative", "referrals_count", "referrals_count_cumulative",
	}}
	if s == nil {
		return t
	}
	for _, p := range s.Points {
		t.Rows = append(t.Rows, []string{
			ts(p.Timestamp), num(p.Volume), num(p.VolumeCumulative), num(p.TotalRebateUSD),
			num(p.TotalRebateUSDCumulative), num(p.DiscountUSD), num(p.DiscountUSDCumulative),
			num(p.ReferrerRebateUSD), count(p.ReferrersCount), count(p.ReferrersCountCumulative),
			count(p.ReferralCodesCount), count(p.ReferralCodesCountCumulative),
			count(p.ReferralsCount), count(p.ReferralsCountCumulative),
		})
	}
	return t
}

func poolAmountsTable(s *stats.PoolAmountSeries) *Table {
	if s == nil {
		return &Table{Header: []string{"timestamp", "all"}}
	}
	t := &Table{Header: append(append([]string{"timestamp"}, s.Tokens...), "all")}
	for _, p := range s.Points {
		row := []string{ts(p.Timestamp)}
		for _, token := range s.Tokens {
			row = append(row, num(p.Tokens[token]))
		}
		t.Rows = append(t.Rows, append(row, num(p.All)))
	}
	return t
}

func poolTable(s *stats.Series[*domain.PoolPoint]) *Table {
	t := &Table{Header: []string{
		"timestamp", "aum", "supply", "price",
		"distributed_usd_per_unit", "distributed_eth_per_unit",
		"cumulative_distributed_usd_per_unit", "cumulative_distributed_eth_per_unit",
		"supply_change", "aum_change",
	}}
	if s == nil {
		return t
	}
	for _, p := range s.Points {
		t.Rows = append(t.Rows, []string{
			ts(p.Timestamp), optNum(p.AUM), optNum(p.Supply), optNum(p.Price),
			num(p.DistributedUSDPerUnit), num(p.DistributedETHPerUnit),
			num(p.CumulativeDistributedUSDPerUnit), num(p.CumulativeDistributedETHPerUnit),
			num(p.SupplyChange), num(p.AUMChange),
		})
	}
	return t
}

func performanceSetCells(s domain.PerformanceSet) []string {
	return []string{optNum(s.Raw), optNum(s.WithFees), optNum(s.WithDistributedUSD), optNum(s.WithDistributedETH)}
}

func performanceSetHeader(prefix string) []string {
	return []string{prefix + "_raw", prefix + "_with_fees", prefix + "_with_distributed_usd", prefix + "_with_distributed_eth"}
}

func performanceTable(points []*domain.BenchmarkPoint) *Table {
	priceMaps := make([]map[string]float64, len(points))
	for i, p := range points {
		priceMaps[i] = p.AssetPrices
	}
	assets := unionKeys(priceMaps...)

	header := []string{
		"timestamp", "token_price", "token_plus_fees", "token_plus_distributed_usd", "token_plus_distributed_eth",
		"index_price", "stable_weight",
	}
	header = append(header, performanceSetHeader("index")...)
	for _, a := range assets {
		lower := strings.ToLower(a)
		header = append(header, "price_"+lower, "lp_price_"+lower)
		header = append(header, performanceSetHeader("lp_"+lower)...)
	}

	t := &Table{Header: header}
	for _, p := range points {
		row := []string{
			ts(p.Timestamp), optNum(p.TokenPrice), optNum(p.TokenPlusFees),
			optNum(p.TokenPlusDistributedUSD), optNum(p.TokenPlusDistributedETH),
			num(p.IndexPrice), num(p.StableWeight),
		}
		row = append(row, performanceSetCells(p.Index)...)
		for _, a := range assets {
			row = append(row, num(p.AssetPrices[a]), num(p.LPPrices[a]))
			row = append(row, performanceSetCells(p.LP[a])...)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func yieldTable(points []*domain.YieldPoint) *Table {
	t := &Table{Header: []string{"timestamp", "apr", "usage", "average_apr", "average_usage"}}
	for _, p := range points {
		t.Rows = append(t.Rows, []string{
			ts(p.Timestamp), optNum(p.APR), optNum(p.Usage), optNum(p.AverageAPR), optNum(p.AverageUsage),
		})
	}
	return t
}
