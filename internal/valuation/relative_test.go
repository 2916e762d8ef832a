package valuation

import (
	"math"
	"testing"

	"github.com/equitylens/backend/internal/quant"
)

func TestBuildRelative(t *testing.T) {
	peers := []PeerMultiple{
		{Symbol: "AAA", PE: quant.Ptr(20), PB: quant.Ptr(3), PEG: quant.Ptr(1.5)},
		{Symbol: "BBB", PE: quant.Ptr(25), PB: quant.Ptr(4), PEG: quant.Ptr(2.0)},
		{Symbol: "CCC", PE: quant.Ptr(30), PB: quant.Ptr(5), PEG: quant.Ptr(2.5)},
	}
	company := CompanyMultiples{
		PE:            quant.Ptr(28),
		PB:            quant.Ptr(4),
		PEG:           quant.Ptr(2.2),
		EPS:           quant.Ptr(6),
		BookValue:     quant.Ptr(40),
		RevenueGrowth: quant.Ptr(0.10),
	}

	rv := BuildRelative(company, peers, quant.Ptr(150))

	if rv.PeerMedians.PE == nil || *rv.PeerMedians.PE != 25 {
		t.Fatalf("median PE = %v, want 25", rv.PeerMedians.PE)
	}

	// implied PE price: eps 6 * median 25 = 150
	if got := rv.ImpliedPrices.PEBasedPrice; got == nil || math.Abs(*got-150) > 1e-9 {
		t.Errorf("pe implied = %v, want 150", got)
	}
	// implied PB price: bv 40 * median 4 = 160
	if got := rv.ImpliedPrices.PBBasedPrice; got == nil || math.Abs(*got-160) > 1e-9 {
		t.Errorf("pb implied = %v, want 160", got)
	}
	// implied PEG price: eps 6 * (median peg 2.0 * growth 10) = 120
	if got := rv.ImpliedPrices.PEGBasedPrice; got == nil || math.Abs(*got-120) > 1e-9 {
		t.Errorf("peg implied = %v, want 120", got)
	}
	// composite: (150+160+120)/3
	if got := rv.ImpliedPrices.CompositeFairPrice; got == nil || math.Abs(*got-143.333333) > 1e-4 {
		t.Errorf("composite = %v, want ~143.33", got)
	}
	if got := rv.ImpliedPrices.CompositeUpsidePercent; got == nil || math.Abs(*got-(-4.444444)) > 1e-4 {
		t.Errorf("composite upside = %v, want ~-4.44", got)
	}

	// premium vs median PE: (28-25)/25*100 = 12
	if got := rv.MultipleComparison.PremiumDiscountPercent.PE; got == nil || math.Abs(*got-12) > 1e-9 {
		t.Errorf("pe premium = %v, want 12", got)
	}
}

func TestBuildRelative_NegativeEPS(t *testing.T) {
	peers := []PeerMultiple{{Symbol: "AAA", PE: quant.Ptr(20), PB: quant.Ptr(3)}}
	company := CompanyMultiples{
		EPS:       quant.Ptr(-2),
		BookValue: quant.Ptr(40),
	}

	rv := BuildRelative(company, peers, nil)

	if rv.ImpliedPrices.PEBasedPrice != nil {
		t.Error("negative eps should suppress the pe-implied price")
	}
	if rv.ImpliedPrices.PEGBasedPrice != nil {
		t.Error("negative eps should suppress the peg-implied price")
	}
	if rv.ImpliedPrices.PBBasedPrice == nil {
		t.Error("pb-implied price should survive a negative eps")
	}
	if rv.ImpliedPrices.CompositeUpsidePercent != nil {
		t.Error("no market price means no composite upside")
	}
}

func TestBuildRelative_NoPeers(t *testing.T) {
	rv := BuildRelative(CompanyMultiples{EPS: quant.Ptr(5)}, nil, quant.Ptr(100))

	if rv.PeerMedians.PE != nil {
		t.Error("no peers means no median")
	}
	if rv.ImpliedPrices.CompositeFairPrice != nil {
		t.Error("no peers means no composite fair price")
	}
}
