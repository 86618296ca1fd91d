package gamevault_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasforge/gamevault/pkg/gamevault"
)

func TestNormalizeWalletAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "lowercase address passes through",
			input: "0xabcdef0123456789abcdef0123456789abcdef01",
			want:  "0xabcdef0123456789abcdef0123456789abcdef01",
		},
		{
			name:  "mixed case is lowercased",
			input: "0xABCdef0123456789ABCDEF0123456789abcdef01",
			want:  "0xabcdef0123456789abcdef0123456789abcdef01",
		},
		{
			name:  "surrounding whitespace is trimmed",
			input: "  0xabcdef0123456789abcdef0123456789abcdef01\n",
			want:  "0xabcdef0123456789abcdef0123456789abcdef01",
		},
		{
			name:  "0X prefix is accepted",
			input: "0Xabcdef0123456789abcdef0123456789abcdef01",
			want:  "0xabcdef0123456789abcdef0123456789abcdef01",
		},
		{name: "empty", input: "", wantErr: true},
		{name: "missing prefix", input: "abcdef0123456789abcdef0123456789abcdef0101", wantErr: true},
		{name: "too short", input: "0xabc", wantErr: true},
		{name: "too long", input: "0xabcdef0123456789abcdef0123456789abcdef0123", wantErr: true},
		{name: "non-hex characters", input: "0xzzcdef0123456789abcdef0123456789abcdef01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gamevault.NormalizeWalletAddress(tt.input)
			if tt.wantErr {
				var validationErr *gamevault.ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, "wallet_address", validationErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsValidWalletAddress(t *testing.T) {
	assert.True(t, gamevault.IsValidWalletAddress("0xabcdef0123456789abcdef0123456789abcdef01"))
	assert.False(t, gamevault.IsValidWalletAddress("0xnothex"))
}
