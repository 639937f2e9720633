package helpers

import (
	"reflect"
	"testing"
)

func TestExtractCitations(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		text string
		want []Citation
	}{
		{
			name: "markdown link then distinct bare url",
			text: "See [OpenAI](https://openai.com) and https://openai.com/blog for more.",
			want: []Citation{
				{Label: "OpenAI", URL: "https://openai.com"},
				{URL: "https://openai.com/blog"},
			},
		},
		{
			name: "no links",
			text: "No links here.",
			want: nil,
		},
		{
			name: "duplicate markdown url keeps first label",
			text: "[A](https://a.com) [B](https://a.com)",
			want: []Citation{{Label: "A", URL: "https://a.com"}},
		},
		{
			name: "bare duplicate of markdown url suppressed",
			text: "[Docs](https://go.dev/doc) and again https://go.dev/doc",
			want: []Citation{{Label: "Docs", URL: "https://go.dev/doc"}},
		},
		{
			name: "bare urls keep first seen order",
			text: "http://b.example/x then https://a.example then http://b.example/x",
			want: []Citation{{URL: "http://b.example/x"}, {URL: "https://a.example"}},
		},
		{
			name: "no normalisation of trailing slash",
			text: "[One](https://x.org) https://x.org/",
			want: []Citation{{Label: "One", URL: "https://x.org"}, {URL: "https://x.org/"}},
		},
		{
			name: "url after unrelated parenthesis is excluded",
			text: "(https://paren.example) but https://plain.example",
			want: []Citation{{URL: "https://plain.example"}},
		},
		{
			name: "non http scheme ignored",
			text: "[ftp](ftp://files.example) and mailto:x@y.z",
			want: nil,
		},
		{
			name: "no-break space ends a bare url",
			text: "see https://a.com\u00a0next",
			want: []Citation{{URL: "https://a.com"}},
		},
		{
			name: "ideographic space ends a bare url",
			text: "出典 https://a.com\u3000次の",
			want: []Citation{{URL: "https://a.com"}},
		},
		{
			name: "narrow no-break space breaks a markdown link",
			text: "[A](https://a.com\u202fx) tail",
			want: nil,
		},
		{
			name: "vertical tab and line separator end urls",
			text: "https://v.example\vx https://l.example\u2028y",
			want: []Citation{{URL: "https://v.example"}, {URL: "https://l.example"}},
		},
		{
			name: "sources section",
			text: "Answer.\n\nSources\n- [Go Blog](https://go.dev/blog)\n- [Spec](https://go.dev/ref/spec)\n",
			want: []Citation{
				{Label: "Go Blog", URL: "https://go.dev/blog"},
				{Label: "Spec", URL: "https://go.dev/ref/spec"},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ExtractCitations(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ExtractCitations(%q) = %#v, want %#v", tc.text, got, tc.want)
			}
		})
	}
}

func TestExtractCitationsDeterministic(t *testing.T) {
	t.Parallel()
	text := "[A](https://a.com) https://b.com [C](https://c.com) https://a.com https://d.com"
	first := ExtractCitations(text)
	for i := 0; i < 5; i++ {
		if got := ExtractCitations(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %#v vs %#v", i, got, first)
		}
	}
	if len(first) != 4 {
		t.Fatalf("expected 4 citations, got %#v", first)
	}
}

func TestFormatCitations(t *testing.T) {
	t.Parallel()
	items := FormatCitations([]Citation{
		{Label: "OpenAI", URL: "https://openai.com"},
		{URL: "https://openai.com/blog"},
	})
	want := []string{"- [OpenAI](https://openai.com)", "- <https://openai.com/blog>"}
	if !reflect.DeepEqual(items, want) {
		t.Fatalf("FormatCitations() = %#v, want %#v", items, want)
	}
	if FormatCitations(nil) != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestRenderSources(t *testing.T) {
	t.Parallel()
	got := RenderSources("See [OpenAI](https://openai.com) and https://openai.com/blog for more.")
	want := "- [OpenAI](https://openai.com)\n- <https://openai.com/blog>"
	if got != want {
		t.Fatalf("RenderSources() = %q, want %q", got, want)
	}
}

func TestCitationHost(t *testing.T) {
	t.Parallel()
	if got := (Citation{URL: "https://News.Example.com:443/a?b=c"}).Host(); got != "news.example.com" {
		t.Fatalf("Host() = %q", got)
	}
	if got := (Citation{}).Host(); got != "" {
		t.Fatalf("Host() of empty = %q", got)
	}
}
