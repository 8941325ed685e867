package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenLive(t *testing.T) {
	tests := []struct {
		name    string
		expired bool
		revoked bool
		live    bool
	}{
		{name: "both flags clear", expired: false, revoked: false, live: true},
		{name: "expired only", expired: true, revoked: false, live: false},
		{name: "revoked only", expired: false, revoked: true, live: false},
		{name: "both flags set", expired: true, revoked: true, live: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			token := Token{Expired: tc.expired, Revoked: tc.revoked}
			require.Equal(t, tc.live, token.Live())
		})
	}
}
