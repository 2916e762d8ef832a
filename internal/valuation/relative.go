package valuation

import (
	"github.com/equitylens/backend/internal/quant"
)

// PeerMultiple is one comparable company's valuation multiples.
type PeerMultiple struct {
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name"`
	Sector    string   `json:"sector,omitempty"`
	Industry  string   `json:"industry,omitempty"`
	Price     *float64 `json:"price"`
	MarketCap *float64 `json:"market_cap"`
	PE        *float64 `json:"pe"`
	PB        *float64 `json:"pb"`
	PEG       *float64 `json:"peg"`
}

// CompanyMultiples are the subject company's own multiples and the per-share
// figures the implied prices are built from.
type CompanyMultiples struct {
	PE            *float64 `json:"pe"`
	PB            *float64 `json:"pb"`
	PEG           *float64 `json:"peg"`
	EPS           *float64 `json:"-"`
	BookValue     *float64 `json:"-"`
	RevenueGrowth *float64 `json:"-"`
}

// MultipleSet holds one multiple per valuation basis.
type MultipleSet struct {
	PE  *float64 `json:"pe"`
	PB  *float64 `json:"pb"`
	PEG *float64 `json:"peg"`
}

// ImpliedPrices are the peer-median-multiple price estimates.
type ImpliedPrices struct {
	PEBasedPrice           *float64 `json:"pe_based_price"`
	PBBasedPrice           *float64 `json:"pb_based_price"`
	PEGBasedPrice          *float64 `json:"peg_based_price"`
	CompositeFairPrice     *float64 `json:"composite_fair_price"`
	CompositeUpsidePercent *float64 `json:"composite_upside_percent"`
}

// MultipleComparison contrasts company multiples with the peer medians.
type MultipleComparison struct {
	Company                MultipleSet `json:"company"`
	IndustryMedian         MultipleSet `json:"industry_median"`
	PremiumDiscountPercent MultipleSet `json:"premium_discount_percent"`
}

// RelativeValuation is the peer-multiple section of the valuation payload.
type RelativeValuation struct {
	Peers              []PeerMultiple     `json:"peers"`
	PeerMedians        MultipleSet        `json:"peer_medians"`
	CompanyMultiples   MultipleSet        `json:"company_multiples"`
	ImpliedPrices      ImpliedPrices      `json:"implied_prices"`
	MultipleComparison MultipleComparison `json:"industry_multiple_comparison"`
}

// BuildRelative derives peer medians, implied prices, and premium/discount
// figures. PE and PB implied prices need positive EPS and book value; the
// PEG-implied price additionally needs positive revenue growth. The
// composite fair price averages whichever implied prices resolved.
func BuildRelative(company CompanyMultiples, peers []PeerMultiple, marketPrice *float64) RelativeValuation {
	medians := MultipleSet{
		PE:  medianOf(peers, func(p PeerMultiple) *float64 { return p.PE }),
		PB:  medianOf(peers, func(p PeerMultiple) *float64 { return p.PB }),
		PEG: medianOf(peers, func(p PeerMultiple) *float64 { return p.PEG }),
	}

	companySet := MultipleSet{PE: company.PE, PB: company.PB, PEG: company.PEG}

	var peImplied, pbImplied, pegImplied *float64
	if company.EPS != nil && *company.EPS > 0 && medians.PE != nil {
		v := *company.EPS * *medians.PE
		peImplied = &v
	}
	if company.BookValue != nil && *company.BookValue > 0 && medians.PB != nil {
		v := *company.BookValue * *medians.PB
		pbImplied = &v
	}
	growth := quant.NormalizeRate(company.RevenueGrowth)
	if company.EPS != nil && *company.EPS > 0 && growth != nil && *growth > 0 && medians.PEG != nil {
		impliedPE := *medians.PEG * (*growth * 100)
		v := *company.EPS * impliedPE
		pegImplied = &v
	}

	var sum float64
	var n int
	for _, p := range []*float64{peImplied, pbImplied, pegImplied} {
		if p != nil {
			sum += *p
			n++
		}
	}
	var composite, compositeUpside *float64
	if n > 0 {
		v := sum / float64(n)
		composite = &v
		if marketPrice != nil && *marketPrice > 0 {
			u := (v - *marketPrice) / *marketPrice * 100
			compositeUpside = &u
		}
	}

	return RelativeValuation{
		Peers:            peers,
		PeerMedians:      medians,
		CompanyMultiples: companySet,
		ImpliedPrices: ImpliedPrices{
			PEBasedPrice:           peImplied,
			PBBasedPrice:           pbImplied,
			PEGBasedPrice:          pegImplied,
			CompositeFairPrice:     composite,
			CompositeUpsidePercent: compositeUpside,
		},
		MultipleComparison: MultipleComparison{
			Company:        companySet,
			IndustryMedian: medians,
			PremiumDiscountPercent: MultipleSet{
				PE:  premiumDiscount(company.PE, medians.PE),
				PB:  premiumDiscount(company.PB, medians.PB),
				PEG: premiumDiscount(company.PEG, medians.PEG),
			},
		},
	}
}

func medianOf(peers []PeerMultiple, pick func(PeerMultiple) *float64) *float64 {
	vals := make([]*float64, 0, len(peers))
	for _, p := range peers {
		vals = append(vals, pick(p))
	}
	return quant.MedianOfPtrs(vals)
}

func premiumDiscount(company, industry *float64) *float64 {
	if company == nil || industry == nil || *industry == 0 {
		return nil
	}
	v := (*company - *industry) / *industry * 100
	return &v
}
