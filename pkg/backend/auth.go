package backend

import (
	"errors"

	"golang.org/x/oauth2"
)

// authSource marks token failures as ErrUnauthenticated so they are not
// confused with transport errors further up.
type authSource struct {
	src oauth2.TokenSource
}

func (a authSource) Token() (*oauth2.Token, error) {
	tok, err := a.src.Token()
	if err != nil {
		return nil, errors.Join(ErrUnauthenticated, err)
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, ErrUnauthenticated
	}
	return tok, nil
}

// StaticToken returns a token source for a fixed bearer token.
func StaticToken(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}
