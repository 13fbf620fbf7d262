package lottery

import (
	"math/big"
	"testing"
)

func TestBucketFundingIsAdditive(t *testing.T) {
	bucket := NewPrizeBucket()
	bucket.CreditBase(big.NewInt(10))
	bucket.CreditBase(big.NewInt(10))
	bucket.CreditAux("USDX", big.NewInt(10))
	bucket.CreditAux("USDX", big.NewInt(10))
	if bucket.Base.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("base %s, want 20", bucket.Base)
	}
	if bucket.AuxAmounts["USDX"].Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("aux %s, want 20", bucket.AuxAmounts["USDX"])
	}
	if len(bucket.AuxAssets) != 1 {
		t.Fatalf("asset registered %d times", len(bucket.AuxAssets))
	}
}

func TestBucketDrainCapsBaseAndEmptiesAux(t *testing.T) {
	bucket := NewPrizeBucket()
	bucket.CreditBase(big.NewInt(10))
	bucket.CreditAux("USDX", big.NewInt(1000))
	bucket.CreditAux("GEM", big.NewInt(7))

	paidBase, auxPaid := bucket.Drain(big.NewInt(1000))
	if paidBase.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("paid base %s, want 10 (capped by bucket)", paidBase)
	}
	if len(auxPaid) != 2 {
		t.Fatalf("aux payouts %d, want 2", len(auxPaid))
	}
	total := map[string]*big.Int{}
	for _, p := range auxPaid {
		total[p.Token] = p.Amount
	}
	if total["USDX"].Cmp(big.NewInt(1000)) != 0 || total["GEM"].Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("unexpected aux payouts %v", auxPaid)
	}
	if bucket.Base.Sign() != 0 {
		t.Fatalf("base %s after drain, want 0", bucket.Base)
	}
	if len(bucket.AuxAssets) != 0 || len(bucket.AuxAmounts) != 0 {
		t.Fatalf("aux holdings not cleared: %v %v", bucket.AuxAssets, bucket.AuxAmounts)
	}
}

func TestBucketDrainPaysRequestedWhenCovered(t *testing.T) {
	bucket := NewPrizeBucket()
	bucket.CreditBase(big.NewInt(500))
	paidBase, _ := bucket.Drain(big.NewInt(100))
	if paidBase.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("paid base %s, want 100", paidBase)
	}
	if bucket.Base.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("base %s after drain, want 400", bucket.Base)
	}
}
