package analyze

import "testing"

func TestDecodeOwnerStatus(t *testing.T) {
	t.Run("no owner function", func(t *testing.T) {
		got := DecodeOwnerStatus(false, "")
		if got.HasOwnerFunction {
			t.Fatal("expected HasOwnerFunction to be false")
		}
		if got.Owner != nil || got.Renounced {
			t.Fatalf("expected zero-value owner/renounced, got %+v", got)
		}
	})

	t.Run("decode failure", func(t *testing.T) {
		got := DecodeOwnerStatus(true, "0x1234")
		if !got.HasOwnerFunction {
			t.Fatal("expected HasOwnerFunction to be true")
		}
		if got.Owner != nil {
			t.Fatalf("expected nil owner on decode failure, got %v", *got.Owner)
		}
	})

	t.Run("owner held by a real address", func(t *testing.T) {
		word := "0x0000000000000000000000001111111111111111111111111111111111111111"
		got := DecodeOwnerStatus(true, word)
		if !got.HasOwnerFunction {
			t.Fatal("expected HasOwnerFunction to be true")
		}
		if got.Owner == nil || *got.Owner != "0x1111111111111111111111111111111111111111" {
			t.Fatalf("unexpected owner: %+v", got.Owner)
		}
		if got.Renounced {
			t.Fatal("expected Renounced to be false for a non-burn address")
		}
	})

	t.Run("owner renounced to dead address", func(t *testing.T) {
		word := "0x000000000000000000000000000000000000000000000000000000000000dead"
		got := DecodeOwnerStatus(true, word)
		if got.Owner == nil || *got.Owner != DeadAddress {
			t.Fatalf("unexpected owner: %+v", got.Owner)
		}
		if !got.Renounced {
			t.Fatal("expected Renounced to be true for the dead address")
		}
	})

	t.Run("owner renounced to zero address", func(t *testing.T) {
		word := "0x0000000000000000000000000000000000000000000000000000000000000000"
		got := DecodeOwnerStatus(true, word)
		if got.Owner == nil || *got.Owner != ZeroAddress {
			t.Fatalf("unexpected owner: %+v", got.Owner)
		}
		if !got.Renounced {
			t.Fatal("expected Renounced to be true for the zero address")
		}
	})
}
