package stats

import (
	"math"

	"protocol-stats/internal/domain"
	"protocol-stats/internal/metrics"
	"protocol-stats/internal/normalization"
)

var traderFields = []string{
	"profit", "loss", "profitCumulative", "lossCumulative", "longOpenInterest", "shortOpenInterest",
}

// TraderSeries is the trader PnL series with its extremes.
type TraderSeries struct {
	Series[*domain.TraderPoint]
	Stats domain.TraderStats `json:"stats"`
}

// Traders builds the trader profit/loss and open interest series (1e30).
// Losses are reported as negative values.
func Traders(records []*domain.RawRecord, cfg domain.QueryConfig) (*TraderSeries, error) {
	records, err := prepare(records, cfg)
	if err != nil {
		return nil, err
	}
	records = lastPerBucket(records, cfg.BucketPeriod)

	var currentPnL, currentProfit, currentLoss float64

	points := make([]*domain.TraderPoint, 0, len(records))
	pnls := make([]float64, 0, len(records))
	for _, r := range records {
		f := normalization.NormalizeRecord(r, normalization.Scale30, traderFields...)

		profit, loss := f["profit"], f["loss"]
		pnl := profit - loss
		currentProfit += profit
		currentLoss -= loss
		currentPnL += pnl

		points = append(points, &domain.TraderPoint{
			Timestamp:               r.Timestamp,
			LongOpenInterest:        f["longOpenInterest"],
			ShortOpenInterest:       f["shortOpenInterest"],
			OpenInterest:            f["longOpenInterest"] + f["shortOpenInterest"],
			Profit:                  profit,
			Loss:                    -loss,
			ProfitCumulative:        f["profitCumulative"],
			LossCumulative:          -f["lossCumulative"],
			PnL:                     pnl,
			PnLCumulative:           f["profitCumulative"] - f["lossCumulative"],
			CurrentPnLCumulative:    currentPnL,
			CurrentProfitCumulative: currentProfit,
			CurrentLossCumulative:   currentLoss,
		})
		pnls = append(pnls, pnl)
	}

	return &TraderSeries{
		Series: Series[*domain.TraderPoint]{
			Name:    NameTraders,
			Points:  points,
			Summary: metrics.Summarize("pnl", pnls),
		},
		Stats: traderStats(points),
	}, nil
}

func traderStats(points []*domain.TraderPoint) domain.TraderStats {
	if len(points) == 0 {
		return domain.TraderStats{}
	}

	maxProfit, maxLoss := points[0].Profit, points[0].Loss
	maxPnL, minPnL := points[0].PnL, points[0].PnL
	maxCum, minCum := points[0].CurrentPnLCumulative, points[0].CurrentPnLCumulative
	for _, p := range points[1:] {
		maxProfit = math.Max(maxProfit, p.Profit)
		maxLoss = math.Min(maxLoss, p.Loss)
		maxPnL = math.Max(maxPnL, p.PnL)
		minPnL = math.Min(minPnL, p.PnL)
		maxCum = math.Max(maxCum, p.CurrentPnLCumulative)
		minCum = math.Min(minCum, p.CurrentPnLCumulative)
	}

	last := points[len(points)-1]
	return domain.TraderStats{
		MaxProfit:                      maxProfit,
		MaxLoss:                        maxLoss,
		MaxProfitLoss:                  math.Max(maxProfit, -maxLoss),
		CurrentProfitCumulative:        last.CurrentProfitCumulative,
		CurrentLossCumulative:          last.CurrentLossCumulative,
		MaxCurrentCumulativeProfitLoss: math.Max(last.CurrentProfitCumulative, -last.CurrentLossCumulative),
		MaxAbsPnL:                      math.Max(math.Abs(maxPnL), math.Abs(minPnL)),
		MaxAbsCumulativePnL:            math.Max(math.Abs(maxCum), math.Abs(minCum)),
	}
}
