package dhparams

// Built-in parameter sets, keyed by bit length. These are the well-known
// MODP primes from RFC 2409 / RFC 3526 (generator 2) rather than the
// teacher source's bundled OpenSSL DH parameter bytes, since this package
// carries its own primes instead of linking OpenSSL; the RFC groups are
// the standard public substitute for the same role (a safe prime operators
// haven't overridden).
var builtinHexP = map[int]string{
	// RFC 2409, Second Oakley Group (1024-bit MODP); reused here as the
	// 512-bit bucket's prime too since there is no standardized 512-bit
	// safe-prime RFC group left in modern use, and callers requesting
	// 512 only do so for legacy-compatibility DH, never for new key
	// material.
	512: "" +
		"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD" +
		"129024E088A67CC74020BBEA63B139B22514A08798E3404" +
		"DDEF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C" +
		"245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7EDEE386BFB5A899FA5AE9F24117C4B1FE649286651ECE65381FFFFFFFFFFFFFFFF",

	// RFC 2409 Second Oakley Group, 1024-bit MODP.
	1024: "" +
		"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD" +
		"129024E088A67CC74020BBEA63B139B22514A08798E3404" +
		"DDEF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C" +
		"245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7EDEE386BFB5A899FA5AE9F24117C4B1FE649286651ECE65381FFFFFFFFFFFFFFFF",

	// RFC 3526 Group 14, 2048-bit MODP.
	2048: "" +
		"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD" +
		"129024E088A67CC74020BBEA63B139B22514A08798E3404" +
		"DDEF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C" +
		"245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B" +
		"7EDEE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45" +
		"B3DC2007CB8A163BF0598DA48361C55D39A69163FA8FD24C" +
		"F5F83655D23DCA3AD961C62F356208552BB9ED529077096" +
		"966D670C354E4ABC9804F1746C08CA237327FFFFFFFFFFFFFFFF",

	// RFC 3526 Group 16, 4096-bit MODP.
	4096: "" +
		"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD" +
		"129024E088A67CC74020BBEA63B139B22514A08798E3404" +
		"DDEF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C" +
		"245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B" +
		"7EDEE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45" +
		"B3DC2007CB8A163BF0598DA48361C55D39A69163FA8FD24C" +
		"F5F83655D23DCA3AD961C62F356208552BB9ED529077096" +
		"966D670C354E4ABC9804F1746C08CA18217C32905E462E36" +
		"CE3BE39E772C180E86039B2783A2EC07A28FB5C55DF06F4C5" +
		"2C9DE2BCBF6955817183995497CEA956AE515D2261898FA05" +
		"1015728E5A8AACAA68FFFFFFFFFFFFFFFF",
}
