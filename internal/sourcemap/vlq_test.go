package sourcemap

import "testing"

func TestEncodeDecodeVLQRoundTrip(t *testing.T) {
	values := []int{0, 1, -1, 15, -15, 16, -16, 31, -31, 32, -32, 1000, -1000, 1 << 20, -(1 << 20), maxVLQMagnitude, -maxVLQMagnitude - 1}

	for _, v := range values {
		buf := encodeVLQ(nil, v)
		got, next, err := decodeVLQ(buf, 0)
		if err != nil {
			t.Fatalf("decodeVLQ(encodeVLQ(%d)): unexpected error: %v", v, err)
		}
		if got != v {
			t.Fatalf("decodeVLQ(encodeVLQ(%d)) = %d, want %d", v, got, v)
		}
		if next != len(buf) {
			t.Fatalf("decodeVLQ(encodeVLQ(%d)) consumed %d bytes, want %d", v, next, len(buf))
		}
	}
}

func TestDecodeVLQKnownEncodings(t *testing.T) {
	tests := []struct {
		data string
		want int
	}{
		{"A", 0},
		{"C", 1},
		{"D", -1},
		{"gB", 16}, // two-digit continuation
	}
	for _, tt := range tests {
		got, _, err := decodeVLQ([]byte(tt.data), 0)
		if err != nil {
			t.Fatalf("decodeVLQ(%q): unexpected error: %v", tt.data, err)
		}
		if got != tt.want {
			t.Fatalf("decodeVLQ(%q) = %d, want %d", tt.data, got, tt.want)
		}
	}
}

func TestDecodeVLQInvalidCharacter(t *testing.T) {
	_, _, err := decodeVLQ([]byte("!"), 0)
	if !IsKind(err, MalformedVLQ) {
		t.Fatalf("decodeVLQ(\"!\"): expected MalformedVLQ, got %v", err)
	}
}

func TestDecodeVLQTruncated(t *testing.T) {
	// 'g' has the continuation bit set but there's nothing after it.
	_, _, err := decodeVLQ([]byte("g"), 0)
	if !IsKind(err, MalformedVLQ) {
		t.Fatalf("decodeVLQ(\"g\"): expected MalformedVLQ, got %v", err)
	}
}

func TestDecodeVLQOverflow(t *testing.T) {
	// Eight digits (seven continuations plus a terminator) is past the
	// 7-digit cap a signed 32-bit value can ever need.
	_, _, err := decodeVLQ([]byte("///////B"), 0)
	if !IsKind(err, MalformedVLQ) {
		t.Fatalf("decodeVLQ of an oversized value: expected MalformedVLQ, got %v", err)
	}
}

func TestEncodeVLQAppendsToExistingBuffer(t *testing.T) {
	buf := []byte("prefix:")
	buf = encodeVLQ(buf, 5)
	if string(buf[:7]) != "prefix:" {
		t.Fatalf("encodeVLQ clobbered the existing prefix: %q", buf)
	}
}
