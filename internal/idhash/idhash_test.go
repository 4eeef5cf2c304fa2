package idhash

import (
	"strings"
	"testing"
)

func TestComputeRecordID(t *testing.T) {
	tests := []struct {
		name      string
		network   string
		series    string
		source    string
		timestamp int64
		wantLen   int // hash length should be 64
	}{
		{
			name:      "unsourced series",
			network:   "arbitrum",
			series:    "fee_stats",
			source:    "",
			timestamp: 1630454400,
			wantLen:   64,
		},
		{
			name:      "sourced series",
			network:   "avalanche",
			series:    "swap_sources",
			source:    "0x1111111254fb6c44bac0bed2854e76f90643097d",
			timestamp: 1630483200,
			wantLen:   64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeRecordID(tt.network, tt.series, tt.source, tt.timestamp)

			if len(got) != tt.wantLen {
				t.Errorf("ComputeRecordID() length = %d, want %d", len(got), tt.wantLen)
			}

			// Verify determinism: same inputs should produce same output
			got2 := ComputeRecordID(tt.network, tt.series, tt.source, tt.timestamp)
			if got != got2 {
				t.Errorf("ComputeRecordID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeRecordID_DifferentInputs(t *testing.T) {
	base := ComputeRecordID("arbitrum", "fee_stats", "", 1000)

	if base == ComputeRecordID("avalanche", "fee_stats", "", 1000) {
		t.Error("Different network should produce different hash")
	}
	if base == ComputeRecordID("arbitrum", "pool_stats", "", 1000) {
		t.Error("Different series should produce different hash")
	}
	if base == ComputeRecordID("arbitrum", "fee_stats", "BTC", 1000) {
		t.Error("Different source should produce different hash")
	}
	if base == ComputeRecordID("arbitrum", "fee_stats", "", 2000) {
		t.Error("Different timestamp should produce different hash")
	}
}

func TestComputeDigest(t *testing.T) {
	// SHA256 of the empty input
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := ComputeDigest(nil); got != want {
		t.Errorf("ComputeDigest(nil) = %s, want %s", got, want)
	}

	if ComputeDigest([]byte("a")) == ComputeDigest([]byte("b")) {
		t.Error("Different content should produce different digest")
	}
}

func TestComputeETag(t *testing.T) {
	tag := ComputeETag([]byte("body"))

	if len(tag) != 34 {
		t.Errorf("ComputeETag() length = %d, want 34", len(tag))
	}
	if !strings.HasPrefix(tag, `"`) || !strings.HasSuffix(tag, `"`) {
		t.Errorf("ComputeETag() = %s, want quoted value", tag)
	}
	if tag != ComputeETag([]byte("body")) {
		t.Error("ComputeETag() not deterministic")
	}
}
