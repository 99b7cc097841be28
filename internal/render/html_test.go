package render

import "testing"

func TestNoteToText(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"empty", "  ", 80, ""},
		{"plain", "Peca recebida", 80, "Peca recebida"},
		{"paragraphs", "<p>One</p><p>Two</p>", 80, "One\n\nTwo"},
		{"emphasis", "<p><b>Para-choque</b> e <i>farol</i></p>", 80, "**Para-choque** e *farol*"},
		{"entities", "<p>Troca &amp; pintura</p>", 80, "Troca & pintura"},
		{"line break", "a<br>b<br/>c", 80, "a\nb\nc"},
		{"unordered list", "<p>Itens:</p><ul><li>Farol</li><li>Capo</li></ul>", 80, "Itens:\n- Farol\n- Capo"},
		{"ordered list", "<ol><li>Lavar</li><li>Polir</li></ol>", 80, "1. Lavar\n2. Polir"},
		{"link", `<a href="https://x.io/os/1">ordem</a>`, 80, "ordem [https://x.io/os/1]"},
		{"link text is url", `<a href="https://x.io">https://x.io</a>`, 80, "https://x.io"},
		{"wrap", "<p>alpha beta gamma delta</p>", 11, "alpha beta\ngamma delta"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NoteToText(tt.in, tt.width); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"Chevrolet Onix", 20, "Chevrolet Onix"},
		{"Chevrolet Onix", 9, "Chevrole…"},
		{"Funilária", 5, "Funi…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
