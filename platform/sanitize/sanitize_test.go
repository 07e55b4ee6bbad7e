package sanitize

import "testing"

func TestText(t *testing.T) {
	cases := map[string]string{
		"Acme <b>Corp</b>":                     "Acme Corp",
		"  Multi   \n space ":                  "Multi space",
		"&lt;script&gt;alert(1)&lt;/script&gt;": "alert(1)",
		"Fish &amp; Chips":                     "Fish & Chips",
	}

	for input, want := range cases {
		if got := Text(input); got != want {
			t.Fatalf("Text(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTextPtrDropsEmpty(t *testing.T) {
	blank := "<br/>"
	if TextPtr(&blank) != nil {
		t.Fatal("expected nil for markup-only input")
	}
	if TextPtr(nil) != nil {
		t.Fatal("expected nil for nil input")
	}
}
