package helpers

import "testing"

func TestPlainLabel(t *testing.T) {
	cases := map[string]string{
		"Go Blog":                            "Go Blog",
		"<b>Go</b> Blog":                     "Go Blog",
		"<script>alert('x')</script>Release": "Release",
		"Tom & Jerry":                        "Tom & Jerry",
		"  spaced \n  out ":                  "spaced out",
		"":                                   "",
	}
	for in, want := range cases {
		if got := PlainLabel(in); got != want {
			t.Fatalf("PlainLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
