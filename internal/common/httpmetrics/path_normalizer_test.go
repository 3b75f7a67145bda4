package httpmetrics

import "testing"

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/auth/token", "/auth/token"},
		{"/auth/token/", "/auth/token"},
		{"/auth/signin", "/auth/signin"},
		{"/auth/signin/github", "/auth/signin/{provider}"},
		{"/auth/callback/some-new-idp", "/auth/callback/{provider}"},
		{"/auth/callback/a/b", "other"},
		{"/wp-login.php", "other"},
		{"/users/123/tokens", "other"},
	}
	for _, tc := range cases {
		if got := NormalizePath(tc.in); got != tc.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
