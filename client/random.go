package client

// RandomData is one beacon as served by the public HTTP API. Tokens are kept
// in their textual form: the adapter only selects and forwards them.
type RandomData struct {
	Rnd               uint64 `json:"round"`
	Random            string `json:"randomness"`
	Sig               string `json:"signature"`
	PreviousSignature string `json:"previous_signature"`
}

// Round provides access to the round associated with this random data.
func (r RandomData) Round() uint64 {
	return r.Rnd
}

// Randomness exports the randomness token.
func (r RandomData) Randomness() string {
	return r.Random
}

// Signature provides the signature over this round's randomness.
func (r RandomData) Signature() string {
	return r.Sig
}

// RoundInfo is the metadata view of a beacon, without its randomness.
type RoundInfo struct {
	Round             uint64 `json:"round"`
	Signature         string `json:"signature"`
	PreviousSignature string `json:"previous_signature"`
}

// Info projects r onto its round metadata.
func (r RandomData) Info() RoundInfo {
	return RoundInfo{
		Round:             r.Rnd,
		Signature:         r.Sig,
		PreviousSignature: r.PreviousSignature,
	}
}
