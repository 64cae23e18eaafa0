package credential

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
}

func noHelpers(string, ...string) (string, error) {
	return "", errors.New("helper unavailable")
}

func TestResolveOrder(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		env    map[string]string
		helper func(string, ...string) (string, error)
		want   string
		raises bool
	}{
		{
			name:  "explicit token wins over everything",
			token: "explicit",
			env: map[string]string{
				"HOMEBREW_GITHUB_API_TOKEN": "homebrew",
				"GITHUB_TOKEN":              "github",
				"GH_TOKEN":                  "gh",
			},
			helper: noHelpers,
			want:   "explicit",
		},
		{
			name: "all env vars set yields the first",
			env: map[string]string{
				"HOMEBREW_GITHUB_API_TOKEN": "homebrew",
				"GITHUB_TOKEN":              "github",
				"GH_TOKEN":                  "gh",
			},
			helper: noHelpers,
			want:   "homebrew",
		},
		{
			name: "GITHUB_TOKEN before GH_TOKEN",
			env: map[string]string{
				"GITHUB_TOKEN": "github",
				"GH_TOKEN":     "gh",
			},
			helper: noHelpers,
			want:   "github",
		},
		{
			name: "empty env values are skipped",
			env: map[string]string{
				"HOMEBREW_GITHUB_API_TOKEN": "",
				"GH_TOKEN":                  "gh",
			},
			helper: noHelpers,
			want:   "gh",
		},
		{
			name: "gh auth token helper",
			env:  map[string]string{},
			helper: func(name string, args ...string) (string, error) {
				if name == "gh" {
					return "from-gh-cli", nil
				}
				return "", errors.New("unavailable")
			},
			want: "from-gh-cli",
		},
		{
			name: "git credential store as last resort",
			env:  map[string]string{},
			helper: func(name string, args ...string) (string, error) {
				if name == "git" {
					return "protocol=https\nhost=github.com\nusername=x\npassword=from-store", nil
				}
				return "", errors.New("unavailable")
			},
			want: "from-store",
		},
		{
			name:   "all sources exhausted",
			env:    map[string]string{},
			helper: noHelpers,
			raises: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Resolver{
				Token:     tt.token,
				LookupEnv: envLookup(tt.env),
				RunHelper: tt.helper,
			}
			got, err := r.Resolve()
			if tt.raises {
				assert.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveHelperFailuresAreSwallowed(t *testing.T) {
	calls := 0
	r := &Resolver{
		LookupEnv: envLookup(map[string]string{"GH_TOKEN": "env-token"}),
		RunHelper: func(string, ...string) (string, error) {
			calls++
			return "", errors.New("should not be called")
		},
	}
	got, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "env-token", got)
	assert.Zero(t, calls, "env hit must short-circuit helper invocation")
}
