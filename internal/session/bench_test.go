package session

import (
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// BenchmarkFrame_Single measures framing one ordinary command.
func BenchmarkFrame_Single(b *testing.B) {
	buf := []byte("RETR /pub/releases/goftpd-1.0.0.tar.gz\r\n")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Frame(unicode.UTF8, buf, len(buf))
	}
}

// BenchmarkFrame_Pipelined measures a receive carrying a burst of
// commands.
func BenchmarkFrame_Pipelined(b *testing.B) {
	buf := []byte("USER anonymous\r\nPASS guest@\r\nTYPE I\r\nPWD\r\nNOOP\r\nQUIT\r\n")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Frame(unicode.UTF8, buf, len(buf))
	}
}

// BenchmarkFrame_SingleByteCharset measures decoding through a
// code page.
func BenchmarkFrame_SingleByteCharset(b *testing.B) {
	buf := []byte("CWD caf\xe9\r\n")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Frame(charmap.ISO8859_1, buf, len(buf))
	}
}
