package auth

import "testing"

// TestScramSha256RFC7677Vector reproduces spec §8's canonical crypto-path
// test vector (username "user", password "pencil", fixed client nonce)
// end to end: client-first message, server challenge, client response, and
// server verifier acceptance must match the RFC 7677 example exactly.
func TestScramSha256RFC7677Vector(t *testing.T) {
	const clientNonce = "rOprNGfwEbeRWgbNEkqO"
	const challenge = "r=rOprNGfwEbeRWgbNEkqO%hvYDpWUa2RaTCAfuxFIlj)hNlF$k0,s=W22ZaJ0SNY7soEsUEjb6gQ==,i=4096"
	const wantResponse = "c=biws,r=rOprNGfwEbeRWgbNEkqO%hvYDpWUa2RaTCAfuxFIlj)hNlF$k0,p=dHzbZapWIk4jUhN+Ute9ytag9zjfMHgsqmmiz7AndVQ="
	const serverVerifier = "v=6rriTRBi23WpRR/wtup+mMhUZUn/dB5nLTJRsjl95G4="

	ex, err := NewExchange("user", "pencil", func() string { return clientNonce })
	if err != nil {
		t.Fatalf("NewExchange error: %v", err)
	}

	first, err := ex.FirstMessage()
	if err != nil {
		t.Fatalf("FirstMessage error: %v", err)
	}
	if want := "n,,n=user,r=" + clientNonce; first != want {
		t.Fatalf("FirstMessage = %q, want %q", first, want)
	}

	response, err := ex.Challenge(challenge)
	if err != nil {
		t.Fatalf("Challenge error: %v", err)
	}
	if response != wantResponse {
		t.Fatalf("response = %q, want %q", response, wantResponse)
	}
	if ex.Done() {
		t.Fatalf("exchange should not be done before the server verifier")
	}

	if _, err := ex.Challenge(serverVerifier); err != nil {
		t.Fatalf("final Challenge error: %v", err)
	}
	if !ex.Done() {
		t.Fatalf("exchange should be done after the server verifier")
	}
	if !ex.Valid() {
		t.Fatalf("exchange should be valid: server signature must match")
	}
}

func TestNewExchangeDefaultNonceGeneratorProducesNonEmptyFirstMessage(t *testing.T) {
	ex, err := NewExchange("user", "pencil", nil)
	if err != nil {
		t.Fatalf("NewExchange error: %v", err)
	}
	first, err := ex.FirstMessage()
	if err != nil {
		t.Fatalf("FirstMessage error: %v", err)
	}
	if first == "" || first == "n,,n=user,r=" {
		t.Fatalf("FirstMessage = %q, expected a random nonce appended", first)
	}
}
