package protocol

import (
	"bytes"
	"testing"

	"github.com/photochain-sys/photochain-go/crypto/sign"
)

func TestLogEntryRoundTrip(t *testing.T) {
	data, err := (&PutPhotoData{PhotoID: 7, PhotoHash: []byte("hash")}).Encode()
	if err != nil {
		t.Fatal(err)
	}
	e := &LogEntry{Opcode: OpPutPhoto, Data: data}
	b, err := e.Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeLogEntry(b)
	if err != nil {
		t.Fatal(err)
	}
	if got.Opcode != OpPutPhoto || !bytes.Equal(got.Data, data) {
		t.Fatal("decoded entry differs from original")
	}
	pd, err := DecodePutPhotoData(got.Data)
	if err != nil {
		t.Fatal(err)
	}
	if pd.PhotoID != 7 || !bytes.Equal(pd.PhotoHash, []byte("hash")) {
		t.Fatal("decoded payload differs from original")
	}
}

func TestDecodeLogEntryRejectsUnknownOpcode(t *testing.T) {
	data, _ := (RegisterData{}).Encode()
	e := &LogEntry{Opcode: OpCode(99), Data: data}
	b, err := e.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeLogEntry(b); err != ErrMalformedEntry {
		t.Fatalf("expected ErrMalformedEntry, got %v", err)
	}
}

func TestDecodeLogEntryRejectsGarbage(t *testing.T) {
	for _, b := range [][]byte{nil, {}, {'x'}, []byte("not an entry")} {
		if _, err := DecodeLogEntry(b); err != ErrMalformedEntry {
			t.Fatalf("input %q: expected ErrMalformedEntry, got %v", b, err)
		}
	}
}

func TestPayloadDecodeRejectsWrongShape(t *testing.T) {
	invite, _ := (&InviteDeviceData{PublicKey: []byte("pk")}).Encode()
	if _, err := DecodePutPhotoData(invite); err != ErrMalformedEntry {
		t.Fatalf("expected ErrMalformedEntry, got %v", err)
	}
	put, _ := (&PutPhotoData{PhotoID: 1, PhotoHash: []byte("h")}).Encode()
	if _, err := DecodeInviteDeviceData(put); err != ErrMalformedEntry {
		t.Fatalf("expected ErrMalformedEntry, got %v", err)
	}
	if _, err := DecodeRegisterData(put); err != ErrMalformedEntry {
		t.Fatalf("expected ErrMalformedEntry, got %v", err)
	}
}

func TestSignedEntryRoundTripAndVerify(t *testing.T) {
	key, err := sign.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	data, _ := (&PutPhotoData{PhotoID: 0, PhotoHash: []byte("h")}).Encode()
	e, err := NewSignedEntry(3, []byte("prev"), key, nil,
		LogEntry{Opcode: OpPutPhoto, Data: data})
	if err != nil {
		t.Fatal(err)
	}
	if !e.VerifySig() {
		t.Fatal("fresh signed entry failed verification")
	}

	b, err := e.Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeSignedLogEntry(b)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 3 || !bytes.Equal(got.PrevHash, []byte("prev")) {
		t.Fatal("decoded envelope differs from original")
	}
	if !got.VerifySig() {
		t.Fatal("decoded signed entry failed verification")
	}
}

func TestSignedEntryTamperDetected(t *testing.T) {
	key, err := sign.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	data, _ := (&PutPhotoData{PhotoID: 1, PhotoHash: []byte("h")}).Encode()
	e, err := NewSignedEntry(1, []byte("prev"), key, nil,
		LogEntry{Opcode: OpPutPhoto, Data: data})
	if err != nil {
		t.Fatal(err)
	}

	e.Version = 2
	if e.VerifySig() {
		t.Fatal("version tamper not detected")
	}
	e.Version = 1

	e.PrevHash = []byte("other")
	if e.VerifySig() {
		t.Fatal("prev hash tamper not detected")
	}
	e.PrevHash = []byte("prev")

	other, _ := (&PutPhotoData{PhotoID: 2, PhotoHash: []byte("h")}).Encode()
	e.Entry.Data = other
	if e.VerifySig() {
		t.Fatal("payload tamper not detected")
	}
}
