package drive

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	valid := []string{
		"report.pdf",
		"a",
		"with spaces.txt",
		"консоль.txt",
		".hidden",
		"concert.mp3", // contains "con" but is not the device name
		"COM10",       // only COM1-COM9 are reserved
	}
	for _, name := range valid {
		t.Run("valid/"+name, func(t *testing.T) {
			assert.NoError(t, ValidateName(name))
		})
	}

	invalid := []string{
		"",
		"   ",
		".",
		"..",
		"a/b",
		`back\slash`,
		"colon:name",
		"quest?",
		"star*",
		"pipe|name",
		"less<than",
		"quote\"name",
		"CON",
		"con",
		"Con.txt",
		"LPT5",
		"aux.log",
	}
	for _, name := range invalid {
		t.Run("invalid/"+name, func(t *testing.T) {
			err := ValidateName(name)
			require.Error(t, err)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	t.Run("invalid/too long", func(t *testing.T) {
		long := make([]byte, 256)
		for i := range long {
			long[i] = 'a'
		}
		assert.Error(t, ValidateName(string(long)))
	})

	t.Run("valid/length counts characters not bytes", func(t *testing.T) {
		// 130 Cyrillic characters are 260 bytes but well under the limit.
		assert.NoError(t, ValidateName(strings.Repeat("ж", 130)))
		assert.Error(t, ValidateName(strings.Repeat("ж", 256)))
	})
}

func TestSuffixedName(t *testing.T) {
	assert.Equal(t, "a (1).txt", suffixedName("a.txt", 1))
	assert.Equal(t, "report.tar (3).gz", suffixedName("report.tar.gz", 3))
	assert.Equal(t, "README (2)", suffixedName("README", 2))
	assert.Equal(t, ".hidden (1)", suffixedName(".hidden", 1))
}

func TestCleanRelPath(t *testing.T) {
	for input, want := range map[string]string{
		"":             "",
		"/":            "",
		"docs":         "docs",
		"/docs/sub/":   "docs/sub",
		"docs//sub":    "docs/sub",
		"./docs":       "docs",
		`win\style`:    "win/style",
		"a/./b":        "a/b",
		"a/mid/../b":   "a/b",
	} {
		got, err := cleanRelPath(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, want, got, "input %q", input)
	}

	for _, input := range []string{"..", "../etc", "a/../../etc"} {
		_, err := cleanRelPath(input)
		assert.Error(t, err, "input %q", input)
	}
}
