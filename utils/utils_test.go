package utils

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestGenerateIDIsPrefixedAndUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := GenerateID("file")
		if !strings.HasPrefix(id, "file_") {
			t.Fatalf("id %q missing prefix", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}

	if id := GenerateID(""); strings.Contains(id, "_") {
		t.Errorf("unprefixed id %q should not contain a separator", id)
	}
}

func TestRecoverFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ascii unchanged", "a.txt", "a.txt"},
		{"utf8 unchanged", "文件.txt", "文件.txt"},
		{"latin1 mojibake of utf8", "\u00e6\u0096\u0087\u00e4\u00bb\u00b6.txt", "文件.txt"},
		{"real latin1 text kept", "café.txt", "café.txt"},
		{"raw latin1 bytes", "caf\xe9.txt", "café.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RecoverFilename(tt.in); got != tt.want {
				t.Errorf("RecoverFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":             "report.pdf",
		"  spaced.txt ":          "spaced.txt",
		"../../etc/passwd":       "passwd",
		`C:\Users\me\photo.png`:  "photo.png",
		"..":                     "",
		"":                       "",
		"dir/":                   "dir",
	}
	for in, want := range tests {
		if got := CleanFilename(in); got != want {
			t.Errorf("CleanFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestURLSignerRoundTrip(t *testing.T) {
	signer := NewURLSigner("secret", time.Minute)

	query, err := signer.Sign("1700000000000_a.txt")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}

	if err := signer.Verify("1700000000000_a.txt", values); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := signer.Verify("1700000000000_b.txt", values); err != ErrSignatureInvalid {
		t.Errorf("Verify other name = %v, want ErrSignatureInvalid", err)
	}
	if err := signer.Verify("1700000000000_a.txt", url.Values{}); err != ErrSignatureMissing {
		t.Errorf("Verify empty = %v, want ErrSignatureMissing", err)
	}

	other := NewURLSigner("other-secret", time.Minute)
	if err := other.Verify("1700000000000_a.txt", values); err != ErrSignatureInvalid {
		t.Errorf("Verify with other secret = %v, want ErrSignatureInvalid", err)
	}
}

func TestURLSignerExpiry(t *testing.T) {
	signer := NewURLSigner("secret", time.Minute)
	base := time.Unix(1_700_000_000, 0)
	signer.now = func() time.Time { return base }

	query, err := signer.Sign("x")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	values, _ := url.ParseQuery(query)

	signer.now = func() time.Time { return base.Add(2 * time.Minute) }
	if err := signer.Verify("x", values); err != ErrSignatureExpired {
		t.Errorf("Verify after ttl = %v, want ErrSignatureExpired", err)
	}
}
