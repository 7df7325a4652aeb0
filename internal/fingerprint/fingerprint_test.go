package fingerprint

import (
	"regexp"
	"strings"
	"testing"
)

var hexDigest = regexp.MustCompile(`^[0-9a-f]{16}$`)

func TestSumDeterministic(t *testing.T) {
	if Sum("Hello, world!") != Sum("Hello, world!") {
		t.Error("Sum is not deterministic")
	}
}

func TestSumNormalizesLineEndings(t *testing.T) {
	unix := Sum("line1\nline2\nline3")
	windows := Sum("line1\r\nline2\r\nline3")
	mac := Sum("line1\rline2\rline3")
	if unix != windows || unix != mac {
		t.Errorf("line ending variants digest differently: %s %s %s", unix, windows, mac)
	}
}

func TestSumNormalizesUnicode(t *testing.T) {
	composed := Sum("café")
	decomposed := Sum("café")
	if composed != decomposed {
		t.Errorf("NFC %s != NFD %s", composed, decomposed)
	}
}

func TestSumDistinguishesContent(t *testing.T) {
	if Sum("content1") == Sum("content2") {
		t.Error("different content digests identically")
	}
}

func TestSumShape(t *testing.T) {
	for _, text := range []string{"", "x", "multi\nline\ncontent"} {
		if got := Sum(text); !hexDigest.MatchString(got) {
			t.Errorf("Sum(%q) = %q, want 16 lowercase hex chars", text, got)
		}
	}
}

// Benchmark for Sum with a document-sized input
func BenchmarkSum(b *testing.B) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog.\r\n", 200)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Sum(text)
	}
}
