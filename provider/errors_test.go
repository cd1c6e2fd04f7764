package provider

import "testing"

func TestClassifyStatus(t *testing.T) {
	cases := map[int]bool{
		429: true,
		500: true,
		503: true,
		404: false,
		400: false,
		401: false,
		200: false,
	}
	for status, want := range cases {
		if got := classifyStatus(status); got != want {
			t.Errorf("classifyStatus(%d) = %v, want %v", status, got, want)
		}
	}
}
