package film

import "testing"

func TestMediaURL_NormalizesHashesAndEncodes(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Some Movie Poster.svg", "https://upload.wikimedia.org/wikipedia/commons/e/e3/Some_Movie_Poster.svg"},
		{"File:Some Movie Poster.svg", "https://upload.wikimedia.org/wikipedia/commons/e/e3/Some_Movie_Poster.svg"},
		{"Poster (1999) ñ.jpg", "https://upload.wikimedia.org/wikipedia/commons/4/4a/Poster_(1999)_%C3%B1.jpg"},
		{"A&B 1+1=2.png", "https://upload.wikimedia.org/wikipedia/commons/c/c0/A%26B_1%2B1%3D2.png"},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := MediaURL("", c.in); got != c.want {
			t.Fatalf("MediaURL(%q)：\n got=%q\nwant=%q", c.in, got, c.want)
		}
	}
}

func TestMediaURL_HostNormalization(t *testing.T) {
	want := "https://media.example.test/wikipedia/commons/e/e3/Some_Movie_Poster.svg"
	for _, host := range []string{"media.example.test", "https://media.example.test/", " media.example.test "} {
		if got := MediaURL(host, "Some Movie Poster.svg"); got != want {
			t.Fatalf("host=%q：got=%q", host, got)
		}
	}
}

func TestEscapeComponent_MatchesEncodeURIComponent(t *testing.T) {
	cases := map[string]string{
		"a b":          "a%20b",
		"!'()*-._~":    "!'()*-._~",
		"/?:@&=+$#,;":  "%2F%3F%3A%40%26%3D%2B%24%23%2C%3B",
		"Ωmega":        "%CE%A9mega",
		"100%_percent": "100%25_percent",
	}
	for in, want := range cases {
		if got := EscapeComponent(in); got != want {
			t.Fatalf("EscapeComponent(%q)=%q，期望 %q", in, got, want)
		}
	}
}
