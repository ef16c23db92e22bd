// Package jwt provides an RSA JWT proof provider
package jwt

import (
	"encoding/base64"

	"github.com/dgrijalva/jwt-go"
	"github.com/micro/go-clock/logical"
	"github.com/micro/go-clock/proof"
)

// timeClaims to be encoded in the JWT
type timeClaims struct {
	Seconds uint32 `json:"seconds"`
	Ordinal uint32 `json:"ordinal"`

	jwt.StandardClaims
}

// JWT implementation of the proof provider
type JWT struct {
	opts proof.Options
}

// NewProvider returns an initialized RS256 provider
func NewProvider(opts ...proof.Option) proof.Provider {
	return &JWT{
		opts: proof.NewOptions(opts...),
	}
}

// Sign encodes the time into a signed JWT
func (j *JWT) Sign(t logical.Time) (logical.SignedTime, error) {
	// decode the private key
	priv, err := base64.StdEncoding.DecodeString(j.opts.PrivateKey)
	if err != nil {
		return logical.SignedTime{}, err
	}

	// parse the private key
	key, err := jwt.ParseRSAPrivateKeyFromPEM(priv)
	if err != nil {
		return logical.SignedTime{}, proof.ErrNoSigningKey
	}

	// generate the JWT
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, timeClaims{
		t.Seconds(), t.Ordinal(), jwt.StandardClaims{},
	})
	signed, err := tok.SignedString(key)
	if err != nil {
		return logical.SignedTime{}, err
	}

	// the compact JWS is the proof
	return logical.SignedTime{
		Time:  t,
		Proof: logical.Proof(signed),
	}, nil
}

// Verify checks the JWT against the time it claims to prove
func (j *JWT) Verify(st logical.SignedTime) error {
	// decode the public key
	pub, err := base64.StdEncoding.DecodeString(j.opts.PublicKey)
	if err != nil {
		return err
	}

	// parse the proof
	res, err := jwt.ParseWithClaims(string(st.Proof), &timeClaims{}, func(token *jwt.Token) (interface{}, error) {
		return jwt.ParseRSAPublicKeyFromPEM(pub)
	})
	if err != nil {
		return proof.ErrInvalidProof
	}

	// validate the proof
	if !res.Valid {
		return proof.ErrInvalidProof
	}
	claims, ok := res.Claims.(*timeClaims)
	if !ok {
		return proof.ErrInvalidProof
	}

	// the proven time must be the carried time
	if claims.Seconds != st.Time.Seconds() || claims.Ordinal != st.Time.Ordinal() {
		return proof.ErrInvalidProof
	}

	return nil
}

// String returns JWT
func (j *JWT) String() string {
	return "jwt"
}
