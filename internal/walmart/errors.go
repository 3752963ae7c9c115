package walmart

import "errors"

var (
	// ErrNoPrivateKey is returned when neither WALMART_PRIVATE_KEY nor
	// WALMART_PRIVATE_KEY_PATH points at a key.
	ErrNoPrivateKey = errors.New("no Walmart private key configured: set WALMART_PRIVATE_KEY or WALMART_PRIVATE_KEY_PATH (see 'wmsync walmart keygen')")

	// ErrInvalidPrivateKey is returned when the key material is not an RSA private key.
	ErrInvalidPrivateKey = errors.New("invalid Walmart private key: expected an RSA key in PKCS#8 or PKCS#1 form")

	// ErrInvalidPublicKey is returned when the key material is not an RSA public key.
	ErrInvalidPublicKey = errors.New("invalid public key: expected base64 encoded DER")

	// ErrMissingConsumerID is returned when the signer has no consumer ID.
	ErrMissingConsumerID = errors.New("walmart consumer ID is required")

	// ErrNoIDs is returned when a lookup is called without identifiers.
	ErrNoIDs = errors.New("at least one item ID is required")

	// ErrEmptyQuery is returned when a search is called with a blank query.
	ErrEmptyQuery = errors.New("search query is required")

	// ErrStopWalk can be returned by a Walk callback to end pagination early
	// without an error.
	ErrStopWalk = errors.New("stop walk")
)
