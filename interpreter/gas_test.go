// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package interpreter

import (
	"testing"

	"github.com/go-evmcore/evmcore"
)

func TestCallGas_PreEIP150ForwardsFullRequest(t *testing.T) {
	got := callGas(evmcore.R00_Frontier, 10_000, 0, 5_000, true)
	if got != 5_000 {
		t.Fatalf("got %d, want 5000", got)
	}
}

func TestCallGas_PreEIP150CapsAtAvailable(t *testing.T) {
	got := callGas(evmcore.R00_Frontier, 10_000, 0, 50_000, true)
	if got != 10_000 {
		t.Fatalf("got %d, want 10000 (capped at available)", got)
	}
}

func TestCallGas_EIP150CapsAt63of64ths(t *testing.T) {
	got := callGas(evmcore.R02_TangerineWhistle, 6400, 0, 6400, true)
	want := evmcore.Gas(6400 - 6400/64)
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestCallGas_EIP150HonoursLowerExplicitRequest(t *testing.T) {
	got := callGas(evmcore.R02_TangerineWhistle, 6400, 0, 100, true)
	if got != 100 {
		t.Fatalf("got %d, want 100", got)
	}
}

func TestCallGas_NegativeAvailableAfterBaseReturnsZero(t *testing.T) {
	got := callGas(evmcore.R02_TangerineWhistle, 100, 200, 50, true)
	if got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}

func TestLegacySstoreCost_ZeroToNonZeroIsSet(t *testing.T) {
	cost, refund := legacySstoreCost(evmcore.Word{}, evmcore.Word{31: 1})
	if cost != gasSstoreSetEIP2200 || refund != 0 {
		t.Fatalf("got cost=%d refund=%d", cost, refund)
	}
}

func TestLegacySstoreCost_NonZeroToZeroRefunds(t *testing.T) {
	cost, refund := legacySstoreCost(evmcore.Word{31: 1}, evmcore.Word{})
	if cost != gasSstoreResetEIP2200 || refund != gasSstoreClearsRefundEIP2200 {
		t.Fatalf("got cost=%d refund=%d", cost, refund)
	}
}

func TestLegacySstoreCost_NonZeroToNonZeroIsReset(t *testing.T) {
	cost, refund := legacySstoreCost(evmcore.Word{31: 1}, evmcore.Word{31: 2})
	if cost != gasSstoreResetEIP2200 || refund != 0 {
		t.Fatalf("got cost=%d refund=%d", cost, refund)
	}
}

func TestSstoreCost_DispatchesByRevision(t *testing.T) {
	pre, _ := sstoreCost(evmcore.R07_Istanbul, evmcore.StorageAdded, false)
	post, _ := sstoreCost(evmcore.R09_Berlin, evmcore.StorageAdded, false)
	if pre != gasSstoreSetEIP2200 {
		t.Fatalf("pre-Berlin cost = %d, want %d", pre, gasSstoreSetEIP2200)
	}
	if post != gasColdSloadEIP2929+gasSstoreSetEIP2200 {
		t.Fatalf("Berlin+ cold cost = %d, want %d", post, gasColdSloadEIP2929+gasSstoreSetEIP2200)
	}
}

func TestSstoreCostEIP2929_WarmAccessSkipsColdSurcharge(t *testing.T) {
	cost, _ := sstoreCostEIP2929(evmcore.R09_Berlin, evmcore.StorageAdded, true)
	if cost != gasSstoreSetEIP2200 {
		t.Fatalf("got %d, want %d", cost, gasSstoreSetEIP2200)
	}
}

func TestSstoreCostEIP2929_LondonUsesReducedClearRefund(t *testing.T) {
	_, refund := sstoreCostEIP2929(evmcore.R10_London, evmcore.StorageDeleted, true)
	if refund != gasSstoreClearsRefundEIP3529 {
		t.Fatalf("got refund %d, want %d (EIP-3529 reduced clearing refund)", refund, gasSstoreClearsRefundEIP3529)
	}
}

func TestExpByteCost_RepricedAtSpuriousDragon(t *testing.T) {
	if got := expByteCost(evmcore.R02_TangerineWhistle); got != gasExpByte {
		t.Fatalf("pre-EIP160: got %d, want %d", got, gasExpByte)
	}
	if got := expByteCost(evmcore.R03_SpuriousDragon); got != gasExpByteEIP160 {
		t.Fatalf("post-EIP160: got %d, want %d", got, gasExpByteEIP160)
	}
}

func TestColdAccountSurcharge_OnlyChargedWhenColdAndBerlinPlus(t *testing.T) {
	if got := coldAccountSurcharge(evmcore.R09_Berlin, false); got != gasColdAccountAccessEIP2929-gasWarmStorageReadEIP2929 {
		t.Fatalf("cold Berlin+: got %d", got)
	}
	if got := coldAccountSurcharge(evmcore.R09_Berlin, true); got != 0 {
		t.Fatalf("warm Berlin+ should be free, got %d", got)
	}
	if got := coldAccountSurcharge(evmcore.R07_Istanbul, false); got != 0 {
		t.Fatalf("pre-Berlin has no cold surcharge, got %d", got)
	}
}
