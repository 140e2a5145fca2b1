package vcsid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanKey_NonGitRootsAreDeterministic(t *testing.T) {
	key1, info1 := ScanKey([]string{"/tmp/does-not-exist-a", "/tmp/does-not-exist-b"})
	key2, info2 := ScanKey([]string{"/tmp/does-not-exist-b", "/tmp/does-not-exist-a"})
	assert.Nil(t, info1)
	assert.Nil(t, info2)
	assert.Equal(t, key1, key2, "root order must not affect the derived key")
	assert.NotEmpty(t, key1)
}

func TestScanKey_DifferentRootsDiffer(t *testing.T) {
	key1, _ := ScanKey([]string{"/tmp/repo-a"})
	key2, _ := ScanKey([]string{"/tmp/repo-b"})
	assert.NotEqual(t, key1, key2)
}
