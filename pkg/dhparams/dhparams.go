// Package dhparams is a lazily-materialized cache of Diffie-Hellman
// parameter sets, keyed by key length, with an override list the
// operator can populate from PEM files on disk.
//
// Grounded on original_source/cpp/src/IceSSL/Util.cpp's DHParams class:
// four built-in parameter buckets (512/1024/2048/4096 bits) are
// materialized on first use rather than at startup, an override list
// sorted by ascending key length is consulted first, and Get returns the
// smallest override whose key length is at least the one requested,
// falling back to the nearest built-in bucket otherwise.
package dhparams

import (
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Params is a Diffie-Hellman parameter set: a safe prime P and generator G.
type Params struct {
	KeyLength int
	P         *big.Int
	G         *big.Int
}

// GenerateKey returns a fresh private exponent and the corresponding
// public value G^x mod P, for a caller that wants to perform an exchange
// directly using this parameter set.
func (p *Params) GenerateKey() (priv, pub *big.Int, err error) {
	priv, err = rand.Int(rand.Reader, p.P)
	if err != nil {
		return nil, nil, err
	}
	pub = new(big.Int).Exp(p.G, priv, p.P)
	return priv, pub, nil
}

// SharedSecret computes peerPub^priv mod P, the shared secret for a key
// pair generated by GenerateKey against a peer's public value.
func (p *Params) SharedSecret(priv, peerPub *big.Int) *big.Int {
	return new(big.Int).Exp(peerPub, priv, p.P)
}

type override struct {
	keyLength int
	params    *Params
}

// Cache lazily builds the builtin 512/1024/2048/4096-bit buckets on first
// request and holds any operator-supplied overrides loaded via Add.
type Cache struct {
	mu        sync.Mutex
	overrides []override // sorted ascending by keyLength

	builtin map[int]*Params
	group   singleflight.Group
}

// NewCache returns an empty cache; built-ins are materialized lazily.
func NewCache() *Cache {
	return &Cache{builtin: make(map[int]*Params)}
}

// Add loads a PEM-encoded DH parameter file and registers it as an
// override for keyLength, inserted in ascending order the way
// DHParams::add inserts into its ParamList.
func (c *Cache) Add(keyLength int, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("dhparams: read %s: %w", path, err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return fmt.Errorf("dhparams: %s: no PEM block found", path)
	}
	p, g, err := parseDHParams(block.Bytes)
	if err != nil {
		return fmt.Errorf("dhparams: %s: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := sort.Search(len(c.overrides), func(i int) bool { return c.overrides[i].keyLength >= keyLength })
	ov := override{keyLength: keyLength, params: &Params{KeyLength: keyLength, P: p, G: g}}
	c.overrides = append(c.overrides, override{})
	copy(c.overrides[i+1:], c.overrides[i:])
	c.overrides[i] = ov
	return nil
}

// Get returns the smallest override whose key length is at least
// keyLength; failing that, the nearest built-in bucket (one of
// 512/1024/2048/4096, rounded up, clamped to 4096 at the top end).
func (c *Cache) Get(keyLength int) (*Params, error) {
	c.mu.Lock()
	for _, ov := range c.overrides {
		if ov.keyLength >= keyLength {
			c.mu.Unlock()
			return ov.params, nil
		}
	}
	c.mu.Unlock()

	bucket := bucketFor(keyLength)
	v, err, _ := c.group.Do(fmt.Sprintf("builtin:%d", bucket), func() (interface{}, error) {
		c.mu.Lock()
		if p, ok := c.builtin[bucket]; ok {
			c.mu.Unlock()
			return p, nil
		}
		c.mu.Unlock()

		p, err := builtinParams(bucket)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.builtin[bucket] = p
		c.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Params), nil
}

// bucketFor picks the smallest built-in bucket that is >= keyLength,
// clamping to 4096 if the request exceeds every bucket, per spec §3's DH
// Parameter Table lookup semantics. This is a deliberate reversal of the
// original IceSSL::DHParams::get cascade (which instead picks the
// largest bucket <= keyLength, so a 1500-bit request there gets a
// weaker 1024-bit prime) — see DESIGN.md.
func bucketFor(keyLength int) int {
	switch {
	case keyLength <= 512:
		return 512
	case keyLength <= 1024:
		return 1024
	case keyLength <= 2048:
		return 2048
	default:
		return 4096
	}
}

func builtinParams(bucket int) (*Params, error) {
	hexP, ok := builtinHexP[bucket]
	if !ok {
		return nil, fmt.Errorf("dhparams: no builtin bucket for key length %d", bucket)
	}
	p, ok := new(big.Int).SetString(hexP, 16)
	if !ok {
		return nil, fmt.Errorf("dhparams: malformed builtin prime for bucket %d", bucket)
	}
	return &Params{KeyLength: bucket, P: p, G: big.NewInt(2)}, nil
}
