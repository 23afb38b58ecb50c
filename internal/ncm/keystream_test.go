package ncm

import "testing"

// TestKeystreamDeterministic pins down the keystream formula of spec.md
// §4.2/§8 scenario 2: keystream bytes for key "hello" must match a fixed
// reference sequence, independently of how the table is built internally.
func TestKeystreamDeterministic(t *testing.T) {
	ks := newKeystream([]byte("hello"))

	buf := make([]byte, 8)
	ks.xor(buf, 0) // xor against zero plaintext recovers the keystream itself

	got := append([]byte(nil), buf...)

	// Re-derive the same keystream independently via the spec formula,
	// without going through newKeystream's precomputed table, and confirm
	// they agree -- this is the "pure function of (rc4_key, n)" invariant.
	var s [256]byte
	for i := range s {
		s[i] = byte(i)
	}
	key := []byte("hello")
	var j byte
	for i := 0; i < 256; i++ {
		j = s[i] + j + key[i%len(key)]
		s[i], s[j] = s[j], s[i]
	}
	want := make([]byte, 8)
	for n := range want {
		p := byte(n + 1)
		si := s[p]
		sj := s[p+si]
		want[n] = s[si+sj]
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keystream[%d] = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestKeystreamPureFunctionOfPosition(t *testing.T) {
	ks := newKeystream([]byte("some-rc4-key"))

	// keystream[n] must not depend on how it's read: reading byte-by-byte
	// or in one big chunk has to agree, since it's a pure function of n.
	whole := make([]byte, 300)
	ks.xor(whole, 0)

	ks2 := newKeystream([]byte("some-rc4-key"))
	piecewise := make([]byte, 300)
	for i := range piecewise {
		one := piecewise[i : i+1]
		ks2.xor(one, i)
	}

	for i := range whole {
		if whole[i] != piecewise[i] {
			t.Fatalf("keystream[%d] differs between whole-buffer and byte-at-a-time decrypt", i)
		}
	}
}

func TestKeystreamRoundTrip(t *testing.T) {
	ks := newKeystream([]byte("round-trip-key"))
	plain := []byte("the quick brown fox jumps over the lazy dog, 0123456789")

	cipherText := append([]byte(nil), plain...)
	ks.xor(cipherText, 42)

	ks2 := newKeystream([]byte("round-trip-key"))
	recovered := append([]byte(nil), cipherText...)
	ks2.xor(recovered, 42)

	if string(recovered) != string(plain) {
		t.Fatalf("round trip failed: got %q, want %q", recovered, plain)
	}
}
