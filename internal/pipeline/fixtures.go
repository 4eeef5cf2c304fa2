package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/shopspring/decimal"

	"protocol-stats/internal/chain"
	"protocol-stats/internal/domain"
	"protocol-stats/internal/storage"
)

// FixtureStart is the first bucket of generated fixtures (2021-09-01 00:00:00 UTC).
const FixtureStart int64 = 1630454400

// FixtureOptions controls fixture generation.
type FixtureOptions struct {
	Start int64 // first bucket, Unix seconds
	Days  int   // number of daily buckets
	Seed  int64 // random seed, same seed gives the same fixtures
}

// DefaultFixtureOptions returns 30 days from FixtureStart.
func DefaultFixtureOptions() FixtureOptions {
	return FixtureOptions{Start: FixtureStart, Days: 30, Seed: 1}
}

// fixtureGen builds records for one network.
type fixtureGen struct {
	net *chain.Network
	rng *rand.Rand
	in  *Inputs
	ids map[string]int
}

// scaled encodes v as a fixed-point integer string with the given decimals.
func scaled(v float64, decimals int32) string {
	return decimal.NewFromFloat(v).Shift(decimals).Round(0).String()
}

func plain(v float64) string {
	return decimal.NewFromFloat(v).Round(0).String()
}

func (g *fixtureGen) add(series string, ts int64, source string, fields map[string]string) {
	g.ids[series]++
	g.in.Records[series] = append(g.in.Records[series], &domain.RawRecord{
		Network:   g.net.Name,
		Series:    series,
		ID:        fmt.Sprintf("%s-%06d", series, g.ids[series]),
		Timestamp: ts,
		Source:    source,
		Fields:    fields,
	})
}

// around returns v scaled by a random factor in [1-spread, 1+spread].
func (g *fixtureGen) around(v, spread float64) float64 {
	return v * (1 + spread*(2*g.rng.Float64()-1))
}

// GenerateFixtures builds deterministic demo inputs for every raw series and
// the benchmark prices of the network defaults.
func GenerateFixtures(net *chain.Network, opts FixtureOptions) *Inputs {
	if opts.Days <= 0 {
		opts.Days = DefaultFixtureOptions().Days
	}
	g := &fixtureGen{
		net: net,
		rng: rand.New(rand.NewSource(opts.Seed)),
		in: &Inputs{
			Network: net.Name,
			Records: make(map[string][]*domain.RawRecord),
			Prices:  make(map[string][]*domain.PricePoint),
		},
		ids: make(map[string]int),
	}

	tokens := sortedKeys(net.TokenSymbols)
	routers := sortedKeys(net.SwapSources)
	if len(routers) > 5 {
		routers = routers[:5]
	}
	routers = append(routers, "0x00000000000000000000000000000000000000aa")

	prices := map[string]float64{"BTC": 45000, "ETH": 3200, "AVAX": 70}
	symbols := PriceSymbols(net.QueryDefaults())

	var (
		aum, supply                   = 2_000_000.0, 2_000_000.0
		uniqueCum                     = 0.0
		profitCum, lossCum            = 0.0, 0.0
		refVolumeCum, rebateCum, dCum = 0.0, 0.0, 0.0
		referrersCum, codesCum, refs  = 0.0, 0.0, 0.0
		funding                       = make(map[string]float64, len(tokens))
	)

	for day := 0; day < opts.Days; day++ {
		ts := opts.Start + int64(day)*domain.SecondsPerDay

		for _, symbol := range symbols {
			prices[symbol] = g.around(prices[symbol], 0.04)
			g.in.Prices[symbol] = append(g.in.Prices[symbol], &domain.PricePoint{
				Symbol: symbol, Timestamp: ts, Price: prices[symbol],
			})
		}

		margin, swap := g.around(3_000_000, 0.3), g.around(800_000, 0.3)
		liquidation := g.around(50_000, 0.5)
		mint, burn := g.around(200_000, 0.4), g.around(150_000, 0.4)
		g.add(domain.SeriesVolumeStats, ts, "", map[string]string{
			"margin":      scaled(margin, 30),
			"liquidation": scaled(liquidation, 30),
			"swap":        scaled(swap, 30),
			"mint":        scaled(mint, 30),
			"burn":        scaled(burn, 30),
		})

		actions := []string{"IncreasePosition-Long", "DecreasePosition-Short", "Swap", "BuyUSDG", "SellUSDG", "LiquidatePosition-Long"}
		for i := 0; i < 12; i++ {
			g.add(domain.SeriesVolumeActions, ts+int64(i)*3600, "", map[string]string{
				"action":  actions[g.rng.Intn(len(actions))],
				"volume":  scaled(g.around(40_000, 0.8), 30),
				"account": fmt.Sprintf("0x%040x", g.rng.Intn(40)),
			})
		}

		marginFee := margin * 0.001
		g.add(domain.SeriesFeeStats, ts, "", map[string]string{
			"margin":               scaled(marginFee, 30),
			"marginAndLiquidation": scaled(marginFee+liquidation*0.01, 30),
			"swap":                 scaled(swap*0.003, 30),
			"mint":                 scaled(mint*0.003, 30),
			"burn":                 scaled(burn*0.003, 30),
		})

		supply = g.around(supply, 0.02)
		aum = supply * g.around(1.0+0.002*float64(day), 0.01)
		g.add(domain.SeriesPoolStats, ts, "", map[string]string{
			"aumInUsdg":      scaled(aum, 18),
			"elpSupply":      scaled(supply, 18),
			"distributedUsd": scaled(marginFee*0.7, 30),
			"distributedEth": scaled(marginFee*0.7/prices["ETH"], 18),
		})

		for _, router := range routers {
			for hour := int64(0); hour < 24; hour += 8 {
				g.add(domain.SeriesSwapSources, ts+hour*3600, router, map[string]string{
					"swap": scaled(g.around(swap/float64(3*len(routers)), 0.6), 30),
				})
			}
		}

		for _, token := range tokens {
			start := funding[token]
			end := start + g.around(8, 0.5)
			funding[token] = end
			g.add(domain.SeriesFundingRates, ts, token, map[string]string{
				"startFundingRate": plain(start),
				"endFundingRate":   plain(end),
				"startTimestamp":   plain(float64(ts)),
				"endTimestamp":     plain(float64(ts + domain.SecondsPerDay - 1)),
			})

			g.add(domain.SeriesTokenPoolStats, ts, token, map[string]string{
				"poolAmountUsd": scaled(g.around(aum/float64(len(tokens)), 0.2), 30),
			})
		}

		swapUsers, marginUsers, mintBurnUsers := g.rng.Intn(40)+10, g.rng.Intn(80)+20, g.rng.Intn(15)+5
		unique := float64(swapUsers + marginUsers + mintBurnUsers)
		newUsers := float64(g.rng.Intn(int(unique)/2 + 1))
		uniqueCum += newUsers
		g.add(domain.SeriesUserStats, ts, "", map[string]string{
			"uniqueCount":                   plain(unique),
			"uniqueSwapCount":               plain(float64(swapUsers)),
			"uniqueMarginCount":             plain(float64(marginUsers)),
			"uniqueMintBurnCount":           plain(float64(mintBurnUsers)),
			"uniqueCountCumulative":         plain(uniqueCum),
			"uniqueSwapCountCumulative":     plain(uniqueCum * 0.3),
			"uniqueMarginCountCumulative":   plain(uniqueCum * 0.6),
			"uniqueMintBurnCountCumulative": plain(uniqueCum * 0.1),
			"actionCount":                   plain(unique * 3),
			"actionSwapCount":               plain(float64(swapUsers * 2)),
			"actionMarginCount":             plain(float64(marginUsers * 4)),
			"actionMintBurnCount":           plain(float64(mintBurnUsers)),
		})

		profit, loss := g.around(60_000, 0.6), g.around(55_000, 0.6)
		profitCum += profit
		lossCum += loss
		g.add(domain.SeriesTradingStats, ts, "", map[string]string{
			"profit":            scaled(profit, 30),
			"loss":              scaled(loss, 30),
			"profitCumulative":  scaled(profitCum, 30),
			"lossCumulative":    scaled(lossCum, 30),
			"longOpenInterest":  scaled(g.around(4_000_000, 0.2), 30),
			"shortOpenInterest": scaled(g.around(3_000_000, 0.2), 30),
		})

		refVolume := margin * 0.1
		rebate, discount := refVolume*0.0002, refVolume*0.0001
		refVolumeCum += refVolume
		rebateCum += rebate
		dCum += discount
		newReferrers, newCodes, newRefs := float64(g.rng.Intn(3)), float64(g.rng.Intn(4)), float64(g.rng.Intn(10))
		referrersCum += newReferrers
		codesCum += newCodes
		refs += newRefs
		g.add(domain.SeriesReferralStats, ts, "", map[string]string{
			"volume":                       scaled(refVolume, 30),
			"volumeCumulative":             scaled(refVolumeCum, 30),
			"totalRebateUsd":               scaled(rebate, 30),
			"totalRebateUsdCumulative":     scaled(rebateCum, 30),
			"discountUsd":                  scaled(discount, 30),
			"discountUsdCumulative":        scaled(dCum, 30),
			"referrersCount":               plain(newReferrers),
			"referrersCountCumulative":     plain(referrersCum),
			"referralCodesCount":           plain(newCodes),
			"referralCodesCountCumulative": plain(codesCum),
			"referralsCount":               plain(newRefs),
			"referralsCountCumulative":     plain(refs),
		})
	}

	return g.in
}

// LoadFixtures populates the stores with generated inputs.
func LoadFixtures(ctx context.Context, records storage.RawRecordStore, prices storage.PriceStore, in *Inputs) error {
	for _, series := range domain.AllSeries {
		if err := records.InsertBulk(ctx, in.Records[series]); err != nil {
			return fmt.Errorf("load %s fixtures: %w", series, err)
		}
	}
	for _, symbol := range sortedKeys(in.Prices) {
		if err := prices.InsertBulk(ctx, in.Prices[symbol]); err != nil {
			return fmt.Errorf("load %s price fixtures: %w", symbol, err)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
