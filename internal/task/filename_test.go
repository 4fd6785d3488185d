package task

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

var fixedDate = time.Date(2026, 1, 2, 10, 30, 0, 0, time.UTC)

func TestBuildFilename_Simple(t *testing.T) {
	got := BuildFilename(fixedDate, "EIC", "/vault/Ingest/Clippings/hello.md")
	assert.Equal(t, "2026-01-02 EIC - hello.md", got)
}

func TestSanitizeTitle_StripsIllegalCharacters(t *testing.T) {
	assert.Equal(t, "a-b-c", SanitizeTitle(`a:b*c.md`))
	assert.Equal(t, "untitled", SanitizeTitle(""))
}

func TestBuildFilename_ByteBound_ASCII(t *testing.T) {
	long := strings.Repeat("a", 400)
	got := BuildFilename(fixedDate, "EIC", long)

	assert.LessOrEqual(t, len(got), MaxFilenameBytes)
	assert.True(t, strings.HasPrefix(got, "2026-01-02 EIC - "))
	assert.True(t, strings.HasSuffix(got, "....md"))
}

func TestBuildFilename_ByteBound_CJK(t *testing.T) {
	// Each rune is 3 bytes in UTF-8; 150 runs well past 250 bytes while
	// staying far under 250 code points — the case a rune-count bound
	// would silently pass and the filesystem would then reject.
	long := strings.Repeat("知", 150)
	got := BuildFilename(fixedDate, "EIC", long)

	assert.LessOrEqual(t, len(got), MaxFilenameBytes)
	assert.True(t, utf8.ValidString(got), "truncation must not split a rune")
	assert.True(t, strings.HasSuffix(got, "....md"))
}

func TestWithCollisionSuffix(t *testing.T) {
	assert.Equal(t, "2026-01-02 EIC - hello-2.md", WithCollisionSuffix("2026-01-02 EIC - hello.md", 2))
	assert.Equal(t, "2026-01-02 EIC - hello-3.md", WithCollisionSuffix("2026-01-02 EIC - hello.md", 3))
	assert.Equal(t, "2026-01-02 EIC - hello.md", WithCollisionSuffix("2026-01-02 EIC - hello.md", 1))
}
