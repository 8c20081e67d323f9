package dhparams

import "testing"

func TestGetFallsBackToNearestBuiltinBucket(t *testing.T) {
	c := NewCache()

	cases := []struct {
		request int
		want    int
	}{
		{256, 512},
		{512, 512},
		{1000, 1024},
		{1024, 1024},
		{1500, 2048},
		{3000, 4096},
		{8192, 4096},
	}
	for _, tc := range cases {
		p, err := c.Get(tc.request)
		if err != nil {
			t.Fatalf("Get(%d): %v", tc.request, err)
		}
		if p.KeyLength != tc.want {
			t.Errorf("Get(%d).KeyLength = %d, want %d", tc.request, p.KeyLength, tc.want)
		}
	}
}

func TestGetMaterializesBucketOnce(t *testing.T) {
	c := NewCache()

	p1, err := c.Get(2048)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	p2, err := c.Get(2048)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p1 != p2 {
		t.Fatal("expected the same cached *Params instance on repeat Get")
	}
}

func TestGenerateKeyAndSharedSecretAgree(t *testing.T) {
	c := NewCache()
	p, err := c.Get(512)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	aPriv, aPub, err := p.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey (a): %v", err)
	}
	bPriv, bPub, err := p.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey (b): %v", err)
	}

	aSecret := p.SharedSecret(aPriv, bPub)
	bSecret := p.SharedSecret(bPriv, aPub)
	if aSecret.Cmp(bSecret) != 0 {
		t.Fatal("shared secrets disagree")
	}
}
