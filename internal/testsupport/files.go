package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FFmpegStub imitates the ffmpeg invocations clipwatch makes. Every call
// appends its arguments to ffmpeg.calls beside the script. Frame grabs
// (image2pipe) print frame.png from the script directory. Trim (-c copy) and
// merge (-f concat) calls write their output file and exit. Anything else is
// treated as a recording: the output is created and the script waits for "q" on
// stdin. When CLIPWATCH_STUB_FAIL_MATCH is set and the argument list contains
// it, the call fails without writing output.
const FFmpegStub = `#!/bin/sh
dir=$(dirname "$0")
printf '%s\n' "$*" >> "$dir/ffmpeg.calls"
for out; do :; done
if [ -n "$CLIPWATCH_STUB_FAIL_MATCH" ]; then
  case "$*" in
    *"$CLIPWATCH_STUB_FAIL_MATCH"*) echo "stub failure" >&2; exit 1 ;;
  esac
fi
case "$*" in
  *"image2pipe"*)
    cat "$dir/frame.png" 2>/dev/null
    exit 0 ;;
  *"-f concat"*|*"-c copy"*)
    printf 'clip' > "$out"
    exit 0 ;;
esac
echo "stub encoder recording $out" >&2
printf 'FLV' > "$out"
while read -r line; do
  if [ "$line" = "q" ]; then
    echo "stub encoder exiting" >&2
    exit 0
  fi
done
exit 0
`

// WriteExecutable writes script to dir/name with execute permissions and returns its path.
func WriteExecutable(t testing.TB, dir, name, script string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// WriteFile fills the target path with size bytes. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(strings.Repeat("B", int(size))), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadLines returns the non-empty lines of path, or nil when it does not exist.
func ReadLines(t testing.TB, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read %s: %v", path, err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
