package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSafeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"Plain", "report.pdf", true},
		{"NoExtension", "README", true},
		{"Spaces", "my file.txt", true},
		{"LeadingDot", ".bashrc", true},
		{"MaxLength", strings.Repeat("a", MaxFilenameLength), true},
		{"Empty", "", false},
		{"TooLong", strings.Repeat("a", 300), false},
		{"JustOverLimit", strings.Repeat("a", MaxFilenameLength+1), false},
		{"Traversal", "../../etc/passwd", false},
		{"DotDotAlone", "..", false},
		{"DotDotInside", "a..b", false},
		{"ForwardSlash", "a/b", false},
		{"Backslash", "a\\b", false},
		{"AbsolutePath", "/etc/passwd", false},
		{"NulByte", "a\x00b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSafeFilename(tt.in))
		})
	}
}

func TestIsAcceptableSize(t *testing.T) {
	assert.False(t, IsAcceptableSize(0))
	assert.True(t, IsAcceptableSize(1))
	assert.True(t, IsAcceptableSize(10))
	assert.True(t, IsAcceptableSize(MaxFileSize))
	assert.False(t, IsAcceptableSize(MaxFileSize+1))
	assert.False(t, IsAcceptableSize(^uint64(0)))
}
