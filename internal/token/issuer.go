package token

import "time"

// Config carries the secrets and lifetimes of both token kinds.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Issuer binds the codec to the access and refresh configuration.
type Issuer struct {
	cfg Config
}

func NewIssuer(cfg Config) *Issuer {
	return &Issuer{cfg: cfg}
}

func (i *Issuer) AccessToken(c UserClaims) (string, error) {
	return Mint(c, i.cfg.AccessSecret, i.cfg.AccessTTL)
}

func (i *Issuer) RefreshToken(c UserClaims) (string, error) {
	return Mint(c, i.cfg.RefreshSecret, i.cfg.RefreshTTL)
}

func (i *Issuer) VerifyAccess(tok string) VerifyResult {
	return Verify(tok, i.cfg.AccessSecret)
}

func (i *Issuer) VerifyRefresh(tok string) VerifyResult {
	return Verify(tok, i.cfg.RefreshSecret)
}

func (i *Issuer) AccessTTL() time.Duration  { return i.cfg.AccessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.cfg.RefreshTTL }
