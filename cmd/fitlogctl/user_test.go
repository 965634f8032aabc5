package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadPassword(t *testing.T) {
	password, err := readPassword(strings.NewReader("s3cret\r\nignored\n"))
	require.NoError(t, err)
	require.Equal(t, "s3cret", password)

	password, err = readPassword(strings.NewReader("no-newline"))
	require.NoError(t, err)
	require.Equal(t, "no-newline", password)

	_, err = readPassword(strings.NewReader(""))
	require.Error(t, err)
}
