package weapi

import "testing"

// TestEncryptWithKey_FixedVector pins spec.md §8 scenario 1: with the fixed
// PRESET_KEY/IV and a fixed secret_key, both the first-stage ciphertext (via
// params, since params is itself derived from it) and encSecKey must match
// values independently computed by a reference implementation (openssl enc
// for the two AES-CBC passes, plain big-integer modexp for the RSA step).
func TestEncryptWithKey_FixedVector(t *testing.T) {
	const (
		jsonBody = `{"username":"alice"}`
		wantParams    = "7TzFxM4LhOjisgsYbcBrs9P/B54UkmjbTfoukIlTAJH1KsYJflbqHarEDLahDhat"
		wantEncSecKey = "35701388baf89fed412e11269b9c76625d095ecaf17f03fa018abe19ea2d38b949debf242ee39a71ca1f6cda71b1b86a45aa909ee27f7e78e267d34e732f0de948206c3340a788d0003372183e2f753c1f78b66ac23d134ac1fc9b993156520ea826b8aa89a962d4491b4b8d7e08738e1da9b07aa39bf4a7ef0b1c210728cd52"
	)

	params, encSecKey, err := EncryptWithKey(jsonBody, []byte("0123456789abcdef"))
	if err != nil {
		t.Fatalf("EncryptWithKey: %v", err)
	}
	if params != wantParams {
		t.Errorf("params = %q, want %q", params, wantParams)
	}
	if encSecKey != wantEncSecKey {
		t.Errorf("encSecKey = %q, want %q", encSecKey, wantEncSecKey)
	}
	if len(encSecKey) != encSecKeyLen {
		t.Errorf("encSecKey length = %d, want %d", len(encSecKey), encSecKeyLen)
	}
}

func TestEncrypt_RandomKeyVariesPerCall(t *testing.T) {
	_, key1, err := Encrypt(`{"a":1}`)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	_, key2, err := Encrypt(`{"a":1}`)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if key1 == key2 {
		t.Fatal("encSecKey must vary across calls with a freshly random secret_key")
	}
}

func TestEncryptWithKey_RejectsWrongKeyLength(t *testing.T) {
	if _, _, err := EncryptWithKey(`{}`, []byte("short")); err == nil {
		t.Fatal("expected error for non-16-byte secret key")
	}
}
