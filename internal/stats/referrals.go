package stats

import (
	"protocol-stats/internal/domain"
	"protocol-stats/internal/metrics"
	"protocol-stats/internal/normalization"
)

var referralAmountFields = []string{
	"volume", "volumeCumulative",
	"totalRebateUsd", "totalRebateUsdCumulative",
	"discountUsd", "discountUsdCumulative",
}

var referralCountFields = []string{
	"referrersCount", "referrersCountCumulative",
	"referralCodesCount", "referralCodesCountCumulative",
	"referralsCount", "referralsCountCumulative",
}

// Referrals builds the referral program series. Amounts are 1e30, counts are plain integers.
func Referrals(records []*domain.RawRecord, cfg domain.QueryConfig) (*Series[*domain.ReferralPoint], error) {
	records, err := prepare(records, cfg)
	if err != nil {
		return nil, err
	}
	records = lastPerBucket(records, cfg.BucketPeriod)

	points := make([]*domain.ReferralPoint, 0, len(records))
	volumes := make([]float64, 0, len(records))
	for _, r := range records {
		a := normalization.NormalizeRecord(r, normalization.Scale30, referralAmountFields...)
		c := normalization.NormalizeRecord(r, normalization.Scale0, referralCountFields...)

		points = append(points, &domain.ReferralPoint{
			Timestamp:                    r.Timestamp,
			Volume:                       a["volume"],
			VolumeCumulative:             a["volumeCumulative"],
			TotalRebateUSD:               a["totalRebateUsd"],
			TotalRebateUSDCumulative:     a["totalRebateUsdCumulative"],
			DiscountUSD:                  a["discountUsd"],
			DiscountUSDCumulative:        a["discountUsdCumulative"],
			ReferrerRebateUSD:            a["totalRebateUsd"] - a["discountUsd"],
			ReferrersCount:               int64(c["referrersCount"]),
			ReferrersCountCumulative:     int64(c["referrersCountCumulative"]),
			ReferralCodesCount:           int64(c["referralCodesCount"]),
			ReferralCodesCountCumulative: int64(c["referralCodesCountCumulative"]),
			ReferralsCount:               int64(c["referralsCount"]),
			ReferralsCountCumulative:     int64(c["referralsCountCumulative"]),
		})
		volumes = append(volumes, a["volume"])
	}

	return &Series[*domain.ReferralPoint]{
		Name:    NameReferrals,
		Points:  points,
		Summary: metrics.Summarize("volume", volumes),
	}, nil
}
