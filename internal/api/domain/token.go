package domain

// TokenPair is what callers hold: a short-lived signed access token and the
// opaque refresh token it was minted alongside. The two halves always travel
// together; the refresh half is persisted (fingerprinted) before the pair is
// ever returned.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
