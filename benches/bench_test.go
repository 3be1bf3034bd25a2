package benches

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mornyx/getvscodecmd"
)

// sessionLog builds a log of n request/response/event triples interleaved
// with console output.
func sessionLog(n int) []byte {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "-> (C) {\"arguments\":{\"threadId\":1},\"command\":\"stackTrace\",\"seq\":%d,\"type\":\"request\"}\n", i)
		fmt.Fprintf(&sb, "<- (R) {\"body\":{\"stackFrames\":[]},\"command\":\"stackTrace\",\"request_seq\":%d,\"success\":true,\"type\":\"response\"}\n", i)
		fmt.Fprintf(&sb, "<- (E) {\"body\":{\"category\":\"stdout\",\"output\":\"tick %d\"},\"event\":\"output\",\"type\":\"event\"}\n", i)
		sb.WriteString("Loaded '/usr/share/dotnet/shared/Microsoft.NETCore.App/System.Runtime.dll'\n")
	}
	return []byte(sb.String())
}

func BenchmarkStreamExtractor(b *testing.B) {
	content := sessionLog(25000)
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		_, err := getvscodecmd.ExtractFromBytes(content)
		if err != nil {
			panic(err)
		}
	}
}

func BenchmarkExtractFile(b *testing.B) {
	path := filepath.Join(b.TempDir(), "bench_100k.log")
	if err := os.WriteFile(path, sessionLog(25000), 0o644); err != nil {
		panic(err)
	}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if _, err := getvscodecmd.ExtractFile(path, io.Discard); err != nil {
			panic(err)
		}
	}
}
