package gather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lowercases scheme and host",
			in:   "HTTPS://Example.COM/News",
			want: "https://example.com/News",
		},
		{
			name: "strips default https port",
			in:   "https://example.com:443/a",
			want: "https://example.com/a",
		},
		{
			name: "strips default http port",
			in:   "http://example.com:80/a",
			want: "http://example.com/a",
		},
		{
			name: "keeps custom port",
			in:   "https://example.com:8443/a",
			want: "https://example.com:8443/a",
		},
		{
			name: "drops fragment",
			in:   "https://example.com/a#section-2",
			want: "https://example.com/a",
		},
		{
			name: "sorts query parameters",
			in:   "https://example.com/a?z=1&a=2",
			want: "https://example.com/a?a=2&z=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeURLEquivalentFormsCollide(t *testing.T) {
	t.Parallel()

	a, err := NormalizeURL("https://Example.com:443/story?b=2&a=1#top")
	require.NoError(t, err)
	b, err := NormalizeURL("https://example.com/story?a=1&b=2")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDomain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "example.com", Domain("https://Example.com/path"))
	assert.Equal(t, "news.example.com", Domain("http://news.example.com:8080/a"))
	assert.Equal(t, "unknown", Domain("not a url at all\x7f"))
	assert.Equal(t, "unknown", Domain("/relative/path"))
}

func TestValidateSeed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seed    string
		wantErr bool
	}{
		{"valid https", "https://example.com/news", false},
		{"valid http", "http://example.com", false},
		{"relative url", "/just/a/path", true},
		{"unsupported scheme", "ftp://example.com/file", true},
		{"missing host", "https:///path", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateSeed(tt.seed)
			if tt.wantErr {
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
