package pipeline

import (
	"errors"
	"fmt"
	"log"
	"time"

	"protocol-stats/internal/chain"
	"protocol-stats/internal/domain"
	"protocol-stats/internal/lookup"
	"protocol-stats/internal/observability"
	"protocol-stats/internal/stats"
)

// Dashboard holds every computed series of one network for one query.
type Dashboard struct {
	Network     string             `json:"network"`
	Config      domain.QueryConfig `json:"config"`
	GeneratedAt time.Time          `json:"generatedAt"`

	Volume            *stats.Series[*domain.CumulativePoint]  `json:"volume"`
	VolumeFromActions *stats.ActionVolumeSeries               `json:"volumeActions"`
	TotalActionVolume float64                                 `json:"totalActionVolume"`
	Fees              *stats.Series[*domain.CumulativePoint]  `json:"fees"`
	SwapSources       *stats.SourceSeries                     `json:"swapSources"`
	FundingRates      *stats.Series[*domain.FundingRatePoint] `json:"fundingRates"`
	Users             *stats.Series[*domain.UserPoint]        `json:"users"`
	Traders           *stats.TraderSeries                     `json:"traders"`
	Referrals         *stats.Series[*domain.ReferralPoint]    `json:"referrals"`
	PoolAmounts       *stats.PoolAmountSeries                 `json:"poolAmounts"`
	Pool              *stats.Series[*domain.PoolPoint]        `json:"pool"`
	PoolPerformance   *stats.Series[*domain.BenchmarkPoint]   `json:"poolPerformance"`
	Yield             *stats.YieldSeries                      `json:"yield"`

	Coverage *CoverageResult `json:"coverage"`
	Warnings []string        `json:"warnings,omitempty"`
}

// SeriesSummary is the headline of one series.
type SeriesSummary struct {
	Name    string         `json:"name"`
	Points  int            `json:"points"`
	Summary domain.Summary `json:"summary"`
}

// Series returns a computed series by name. Reports false for unknown or
// uncomputed series.
func (d *Dashboard) Series(name string) (any, bool) {
	var s any
	switch name {
	case stats.NameVolume:
		s = d.Volume
	case stats.NameVolumeFromActions:
		s = d.VolumeFromActions
	case stats.NameFees:
		s = d.Fees
	case stats.NameSwapSources:
		s = d.SwapSources
	case stats.NameFundingRates:
		s = d.FundingRates
	case stats.NameUsers:
		s = d.Users
	case stats.NameTraders:
		s = d.Traders
	case stats.NameReferrals:
		s = d.Referrals
	case stats.NamePoolAmounts:
		s = d.PoolAmounts
	case stats.NamePool:
		s = d.Pool
	case stats.NamePoolPerformance:
		if d.PoolPerformance == nil {
			return nil, false
		}
		s = d.PoolPerformance
	case stats.NameYield:
		s = d.Yield
	default:
		return nil, false
	}
	return s, true
}

// Summaries returns the headline of every computed series in stats.Names order.
func (d *Dashboard) Summaries() []SeriesSummary {
	var out []SeriesSummary
	add := func(name string, points int, summary domain.Summary) {
		out = append(out, SeriesSummary{Name: name, Points: points, Summary: summary})
	}

	add(stats.NameVolume, d.Volume.Len(), d.Volume.Summary)
	add(stats.NameVolumeFromActions, d.VolumeFromActions.Len(), d.VolumeFromActions.Summary)
	add(stats.NameFees, d.Fees.Len(), d.Fees.Summary)
	add(stats.NameSwapSources, d.SwapSources.Len(), d.SwapSources.Summary)
	add(stats.NameFundingRates, d.FundingRates.Len(), d.FundingRates.Summary)
	add(stats.NameUsers, d.Users.Len(), d.Users.Summary)
	add(stats.NameTraders, d.Traders.Len(), d.Traders.Summary)
	add(stats.NameReferrals, d.Referrals.Len(), d.Referrals.Summary)
	add(stats.NamePoolAmounts, d.PoolAmounts.Len(), d.PoolAmounts.Summary)
	add(stats.NamePool, d.Pool.Len(), d.Pool.Summary)
	if d.PoolPerformance != nil {
		add(stats.NamePoolPerformance, d.PoolPerformance.Len(), d.PoolPerformance.Summary)
	}
	add(stats.NameYield, d.Yield.Len(), d.Yield.Summary)
	return out
}

// Runner computes dashboards from loaded inputs.
type Runner struct {
	logger  *log.Logger
	metrics *observability.Metrics
	clock   func() time.Time
}

// NewRunner creates a runner. metrics may be nil.
func NewRunner(logger *log.Logger, m *observability.Metrics) *Runner {
	return &Runner{
		logger:  logger,
		metrics: m,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (r *Runner) WithClock(clock func() time.Time) *Runner {
	r.clock = clock
	return r
}

// Run computes every series. Configuration and ordering errors abort the run.
// Missing benchmark prices only drop the pool performance series, with a warning.
func (r *Runner) Run(in *Inputs, net *chain.Network, cfg domain.QueryConfig) (*Dashboard, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	d := &Dashboard{Network: net.Name, Config: cfg, GeneratedAt: r.clock()}
	rec := in.Records

	var err error
	steps := []struct {
		name string
		run  func() (int, error)
	}{
		{stats.NameVolume, func() (int, error) {
			d.Volume, err = stats.Volume(rec[domain.SeriesVolumeStats], cfg)
			if err != nil {
				return 0, err
			}
			return d.Volume.Len(), nil
		}},
		{stats.NameVolumeFromActions, func() (int, error) {
			d.VolumeFromActions, err = stats.VolumeFromActions(rec[domain.SeriesVolumeActions], cfg)
			d.TotalActionVolume = stats.TotalVolume(rec[domain.SeriesVolumeActions])
			if err != nil {
				return 0, err
			}
			return d.VolumeFromActions.Len(), nil
		}},
		{stats.NameFees, func() (int, error) {
			d.Fees, err = stats.Fees(rec[domain.SeriesFeeStats], cfg)
			if err != nil {
				return 0, err
			}
			return d.Fees.Len(), nil
		}},
		{stats.NameSwapSources, func() (int, error) {
			d.SwapSources, err = stats.SwapSources(rec[domain.SeriesSwapSources], net, cfg)
			if err != nil {
				return 0, err
			}
			return d.SwapSources.Len(), nil
		}},
		{stats.NameFundingRates, func() (int, error) {
			d.FundingRates, err = stats.FundingRates(rec[domain.SeriesFundingRates], net, cfg)
			if err != nil {
				return 0, err
			}
			return d.FundingRates.Len(), nil
		}},
		{stats.NameUsers, func() (int, error) {
			d.Users, err = stats.Users(rec[domain.SeriesUserStats], cfg)
			if err != nil {
				return 0, err
			}
			return d.Users.Len(), nil
		}},
		{stats.NameTraders, func() (int, error) {
			d.Traders, err = stats.Traders(rec[domain.SeriesTradingStats], cfg)
			if err != nil {
				return 0, err
			}
			return d.Traders.Len(), nil
		}},
		{stats.NameReferrals, func() (int, error) {
			d.Referrals, err = stats.Referrals(rec[domain.SeriesReferralStats], cfg)
			if err != nil {
				return 0, err
			}
			return d.Referrals.Len(), nil
		}},
		{stats.NamePoolAmounts, func() (int, error) {
			d.PoolAmounts, err = stats.PoolAmounts(rec[domain.SeriesTokenPoolStats], net, cfg)
			if err != nil {
				return 0, err
			}
			return d.PoolAmounts.Len(), nil
		}},
		{stats.NamePool, func() (int, error) {
			d.Pool, err = stats.Pool(rec[domain.SeriesPoolStats], cfg)
			if err != nil {
				return 0, err
			}
			return d.Pool.Len(), nil
		}},
		{stats.NamePoolPerformance, func() (int, error) {
			d.PoolPerformance, err = stats.PoolPerformance(d.Pool, d.Fees, in.Prices, cfg)
			if errors.Is(err, lookup.ErrNoPriceData) {
				d.Warnings = append(d.Warnings, fmt.Sprintf("%s skipped: %v", stats.NamePoolPerformance, err))
				r.logger.Printf("WARN: %s skipped for %s: %v", stats.NamePoolPerformance, net.Name, err)
				d.PoolPerformance, err = nil, nil
			}
			if err != nil {
				return 0, err
			}
			return d.PoolPerformance.Len(), nil
		}},
		{stats.NameYield, func() (int, error) {
			d.Yield, err = stats.Yield(d.Fees, d.Pool, d.Volume, cfg)
			if err != nil {
				return 0, err
			}
			if r.metrics != nil {
				r.metrics.RecordSuppressed(net.Name, d.Yield.Suppressed)
			}
			return d.Yield.Len(), nil
		}},
	}

	for _, step := range steps {
		t0 := time.Now()
		points, stepErr := step.run()
		if r.metrics != nil {
			r.metrics.RecordSeries(net.Name, step.name, points, time.Since(t0).Seconds(), stepErr)
		}
		if stepErr != nil {
			r.recordRun("error", started)
			return nil, fmt.Errorf("%s: %w", step.name, stepErr)
		}
	}

	d.Coverage = CheckCoverage(in, cfg)
	for _, c := range d.Coverage.Checks {
		if !c.Pass {
			r.logger.Printf("WARN: coverage check %q failed: %s (threshold %s)", c.Name, c.Actual, c.Threshold)
		}
	}

	r.recordRun("ok", started)
	r.logger.Printf("Computed %d series for %s from %d records", len(stats.Names), net.Name, in.RecordCount())
	return d, nil
}

func (r *Runner) recordRun(status string, started time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordPipelineRun("dashboard", status, time.Since(started).Seconds())
	if status == "ok" {
		r.metrics.LastSuccessfulPipeline.SetToCurrentTime()
	}
}
