package main

import (
	"bytes"
	"strings"
	"testing"

	"room_rental/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordCmd(t *testing.T) {
	cmd := HashPasswordCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--cost", "4", "secreto123"})
	require.NoError(t, cmd.Execute())

	hash := strings.TrimSpace(out.String())
	assert.True(t, utils.CheckPassword(hash, "secreto123"))
}

func TestHashPasswordCmdRejectsLowCost(t *testing.T) {
	cmd := HashPasswordCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--cost", "2", "secreto123"})
	assert.Error(t, cmd.Execute())
}
