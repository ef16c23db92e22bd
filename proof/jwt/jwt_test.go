package jwt

import (
	"os"
	"testing"

	"github.com/micro/go-clock/logical"
	"github.com/micro/go-clock/proof"
)

func TestSign(t *testing.T) {
	privKey, err := os.ReadFile("test/sample_key")
	if err != nil {
		t.Fatalf("Unable to read private key: %v", err)
	}

	j := NewProvider(
		proof.WithPrivateKey(string(privKey)),
	)

	st, err := j.Sign(logical.NewTime(10, 5))
	if err != nil {
		t.Fatalf("Sign returned %v error, expected nil", err)
	}
	if len(st.Proof) == 0 {
		t.Error("Sign returned an empty proof")
	}
}

func TestVerify(t *testing.T) {
	pubKey, err := os.ReadFile("test/sample_key.pub")
	if err != nil {
		t.Fatalf("Unable to read public key: %v", err)
	}
	privKey, err := os.ReadFile("test/sample_key")
	if err != nil {
		t.Fatalf("Unable to read private key: %v", err)
	}

	j := NewProvider(
		proof.WithPublicKey(string(pubKey)),
		proof.WithPrivateKey(string(privKey)),
	)

	t.Run("Valid proof", func(t *testing.T) {
		st, err := j.Sign(logical.NewTime(10, 5))
		if err != nil {
			t.Fatalf("Sign returned %v error, expected nil", err)
		}
		if err := j.Verify(st); err != nil {
			t.Errorf("Verify returned %v error, expected nil", err)
		}
	})

	t.Run("Tampered time", func(t *testing.T) {
		st, err := j.Sign(logical.NewTime(10, 5))
		if err != nil {
			t.Fatalf("Sign returned %v error, expected nil", err)
		}
		st.Time = logical.NewTime(99, 0)
		if err := j.Verify(st); err != proof.ErrInvalidProof {
			t.Errorf("Verify returned %v error, expected %v", err, proof.ErrInvalidProof)
		}
	})

	t.Run("Garbage proof", func(t *testing.T) {
		st := logical.SignedTime{
			Time:  logical.NewTime(10, 5),
			Proof: logical.Proof("not a jwt"),
		}
		if err := j.Verify(st); err != proof.ErrInvalidProof {
			t.Errorf("Verify returned %v error, expected %v", err, proof.ErrInvalidProof)
		}
	})
}
