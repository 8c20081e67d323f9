package dhparams

import (
	"encoding/asn1"
	"math/big"
)

// dhParameter mirrors the ASN.1 DHParameter structure PEM-encoded DH
// parameter files (openssl dhparam -out x.pem) carry: a SEQUENCE of prime
// P, generator G, and an optional privateValueLength.
type dhParameter struct {
	P                 *big.Int
	G                 *big.Int
	PrivateValueLength int `asn1:"optional"`
}

// parseDHParams decodes the DER payload of a "BEGIN DH PARAMETERS" PEM
// block into its prime and generator.
func parseDHParams(der []byte) (p, g *big.Int, err error) {
	var params dhParameter
	if _, err := asn1.Unmarshal(der, &params); err != nil {
		return nil, nil, err
	}
	return params.P, params.G, nil
}
