package main

import (
	"bytes"
	"strings"
	"testing"

	"signlearn-service/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestHashAdminKeyPrintsUsableHash(t *testing.T) {
	out, err := execute(t, "hash-admin-key", "s3cret")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.True(t, auth.CheckAdminKey(hash, "s3cret"))
	assert.False(t, auth.CheckAdminKey(hash, "other"))
}

func TestHashAdminKeyRejectsBlankKey(t *testing.T) {
	_, err := execute(t, "hash-admin-key", "  ")
	assert.Error(t, err)

	_, err = execute(t, "hash-admin-key")
	assert.Error(t, err)
}
