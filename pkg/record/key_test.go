package record_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Kalpeny/edgeonepagesimg/pkg/record"
)

var keyPattern = regexp.MustCompile(`^[a-z0-9]{8}\.[a-z0-9]{1,4}$`)

func TestNewKeyFormat(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		key := record.NewKey("png")
		require.Regexp(t, keyPattern, key)
		require.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}

func TestNormalizeExt(t *testing.T) {
	tests := []struct {
		hint string
		want string
	}{
		{"png", "png"},
		{"PNG", "png"},
		{".JPG", "jpg"},
		{"webp", "webp"},
		{"", "jpg"},
		{"jpeg2000", "jpg"},
		{"a", "a"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, record.NormalizeExt(tt.hint), "hint %q", tt.hint)
	}
}

func TestExtHint(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"a.png", "png"},
		{"photos/file_42.JPG", "JPG"},
		{"archive.tar.gz", "gz"},
		{"noext", ""},
		{"trailing.", ""},
		{"", ""},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, record.ExtHint(tt.name), "name %q", tt.name)
	}
}
