package ncm

// keystream is the RC4-derived keystream NCM uses to mask its audio frames.
// It is not standard RC4 PRGA: keystream[n] is a pure function of the
// key-scheduled permutation S and the audio position n, with no running
// state advanced between bytes. Using a stock RC4 implementation here
// produces garbage audio.
type keystream struct {
	table [256]byte
}

// newKeystream runs the standard RC4 key-scheduling algorithm over key, then
// precomputes the position-indexed output table described in ncm's audio
// cipher: for index i (0-based), table[i] = S[(S[p]+S[(p+S[p])&0xff])&0xff]
// where p = (i+1)&0xff. Because p only depends on i mod 256, the keystream
// itself has period 256 and can be fully precomputed once per file.
func newKeystream(key []byte) *keystream {
	var s [256]byte
	for i := range s {
		s[i] = byte(i)
	}

	var j byte
	keyLen := len(key)
	for i := 0; i < 256; i++ {
		j = s[i] + j + key[i%keyLen]
		s[i], s[j] = s[j], s[i]
	}

	ks := &keystream{}
	for i := 0; i < 256; i++ {
		p := byte(i + 1)
		si := s[p]
		sj := s[p+si]
		ks.table[i] = s[si+sj]
	}
	return ks
}

// xor decrypts (or encrypts, the cipher is symmetric) buf in place, where
// offset is the byte position of buf[0] within the overall audio stream.
func (ks *keystream) xor(buf []byte, offset int) {
	for i := range buf {
		buf[i] ^= ks.table[(offset+i)&0xff]
	}
}
