package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisassemble(t *testing.T) {
	var out bytes.Buffer
	program := []byte{0x00, 0xE0, 0x6A, 0x02, 0xD0, 0x15, 0x12, 0x00, 0x0F}

	require.NoError(t, disassemble(&out, program))

	want := "" +
		"0x200  00E0  cls\n" +
		"0x202  6A02  mov va, 2\n" +
		"0x204  D015  sprite v0, v1, 5\n" +
		"0x206  1200  jmp 0x200\n" +
		"0x208  0F    db 0x0f\n"
	assert.Equal(t, want, out.String())
}

func TestDisasmCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rom.ch8")
	require.NoError(t, os.WriteFile(path, []byte{0x01, 0x23}, 0o644))

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"disasm", path})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "0x200  0123  unknown 0x0123\n", out.String())
}

func TestRunCommand_InvalidConfig(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--speed", "0", "PONG"})

	err := cmd.Execute()
	assert.ErrorContains(t, err, "speed must be at least 1")
}

func TestRunCommand_Headless(t *testing.T) {
	dir := t.TempDir()
	romPath := filepath.Join(dir, "rom.ch8")
	snapshot := filepath.Join(dir, "frame.txt")

	// draw the "0" glyph at (0, 0) and spin
	require.NoError(t, os.WriteFile(romPath, []byte{0xA0, 0x00, 0xD0, 0x05, 0x12, 0x04}, 0o644))

	cmd := newRootCommand()
	cmd.SetArgs([]string{"--backend", "headless", "--frames", "2", "--fps", "1000", "--snapshot", snapshot, romPath})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(snapshot)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# frame 2\n####....")
}
