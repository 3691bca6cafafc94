package reliability

import "testing"

func TestIsRateLimited(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{200, false},
		{400, false},
		{429, true},
		{500, false},
	}
	for _, tc := range cases {
		if got := IsRateLimited(tc.code); got != tc.want {
			t.Fatalf("IsRateLimited(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestShouldTryNextModel(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{200, false},
		{201, false},
		{429, true},
		{500, true},
		{503, true},
		{400, true},
	}
	for _, tc := range cases {
		if got := ShouldTryNextModel(tc.code); got != tc.want {
			t.Fatalf("ShouldTryNextModel(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}
