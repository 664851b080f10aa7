package sign

import (
	"bytes"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	message := []byte("test message")
	sig := key.Sign(message)

	pk, ok := key.Public()
	if !ok {
		t.Errorf("bad PK?")
	}

	if !pk.Verify(message, sig) {
		t.Errorf("valid signature rejected")
	}

	wrongMessage := []byte("wrong message")
	if pk.Verify(wrongMessage, sig) {
		t.Errorf("signature of different message accepted")
	}
}

func TestNewKeyFromSeed(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, SeedSize)
	k1 := NewKeyFromSeed(seed)
	k2 := NewKeyFromSeed(seed)

	pk1, _ := k1.Public()
	pk2, _ := k2.Public()
	if !bytes.Equal(pk1, pk2) {
		t.Error("identical seeds produced different keys")
	}

	msg := []byte("test message")
	if !pk2.Verify(msg, k1.Sign(msg)) {
		t.Error("cross-verification of seeded keys failed")
	}
}

func TestVerifyMalformedInputs(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	pk, _ := key.Public()
	msg := []byte("test message")
	sig := key.Sign(msg)

	if pk.Verify(msg, sig[:10]) {
		t.Error("truncated signature accepted")
	}
	var short PublicKey = []byte{0x01}
	if short.Verify(msg, sig) {
		t.Error("verification with malformed public key succeeded")
	}
}
