package textutil

import "testing"

func TestFold(t *testing.T) {
	if Fold("  Sexual Content ") != Fold("sexual content") {
		t.Fatalf("expected case-insensitive equality, got %q vs %q", Fold("  Sexual Content "), Fold("sexual content"))
	}
	if Fold("") != "" {
		t.Fatal("expected empty fold for blank input")
	}
}

func TestFoldSet(t *testing.T) {
	set := FoldSet([]string{"Hentai", "ECCHI", " ", ""})
	if len(set) != 2 {
		t.Fatalf("expected two members, got %v", set)
	}
	if _, ok := set[Fold("ecchi")]; !ok {
		t.Fatalf("expected folded member, got %v", set)
	}
}

func TestTitle(t *testing.T) {
	cases := map[string]string{
		"NOT_YET_RELEASED": "Not Yet Released",
		"RELEASING":        "Releasing",
		"":                 "",
	}
	for input, want := range cases {
		if got := Title(input); got != want {
			t.Fatalf("Title(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestStripMarkup(t *testing.T) {
	input := "The mage <i>Frieren</i> &amp; friends.<br><br>\n<br>(Source: Crunchyroll)"
	want := "The mage Frieren & friends.\n\n(Source: Crunchyroll)"
	if got := StripMarkup(input); got != want {
		t.Fatalf("StripMarkup = %q, want %q", got, want)
	}
	if StripMarkup("") != "" {
		t.Fatal("expected empty output for empty input")
	}
}
