package source

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "short stays whole", in: "hello", n: 10, want: "hello"},
		{name: "exact length stays whole", in: "hello", n: 5, want: "hello"},
		{name: "ascii cut", in: "hello world", n: 5, want: "hello..."},
		// 200 bytes falls inside the 67th three-byte character; the cut
		// backs up to the 66th.
		{name: "cjk cut on rune boundary", in: strings.Repeat("机器学习与深度学习模型", 10), n: 200, want: strings.Repeat("机器学习与深度学习模型", 6) + "机器学习与深" + "..."},
		{name: "mixed text", in: "AI 周报：大模型推理成本分析", n: 10, want: "AI 周报..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate produced invalid UTF-8: %q", got)
			}
		})
	}
}
