package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Builtins(t *testing.T) {
	c := NewCatalog(testLogger())

	defs := c.Definitions()
	require.Len(t, defs, 4)

	box, err := c.Lookup("box-breathing")
	require.NoError(t, err)
	assert.Equal(t, "Box Breathing", box.Name)
	assert.Equal(t, 16*time.Second, box.CycleDuration())
	require.Len(t, box.Phases, 4)
	assert.Equal(t, PhaseInhale, box.Phases[0].Kind)
	assert.Equal(t, "instruction.inhale", box.Phases[0].InstructionKey)

	relaxing, err := c.Lookup("relaxing-478")
	require.NoError(t, err)
	assert.Equal(t, 19*time.Second, relaxing.CycleDuration())

	coherent, err := c.Lookup("coherent")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, coherent.CycleDuration())

	calm, err := c.Lookup("deep-calm")
	require.NoError(t, err)
	assert.Equal(t, 12*time.Second, calm.CycleDuration())
}

func TestCatalog_LookupUnknown(t *testing.T) {
	c := NewCatalog(testLogger())

	_, err := c.Lookup("does-not-exist")
	assert.ErrorIs(t, err, ErrDefinitionNotFound)
}

func TestCatalog_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `exercises:
  - id: custom-breath
    name: Custom Breath
    phases:
      - kind: inhale
        seconds: 3
      - kind: exhale
        seconds: 6
        instruction: instruction.exhale
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c := NewCatalog(testLogger())
	require.NoError(t, c.LoadFile(path))

	def, err := c.Lookup("custom-breath")
	require.NoError(t, err)
	assert.Equal(t, "Custom Breath", def.Name)
	assert.Equal(t, 9*time.Second, def.CycleDuration())

	// Omitted instruction keys default from the phase kind.
	assert.Equal(t, "instruction.inhale", def.Phases[0].InstructionKey)
	assert.Equal(t, "instruction.exhale", def.Phases[1].InstructionKey)
}

func TestCatalog_LoadFile_ExcludesInvalidEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `exercises:
  - id: bad-kind
    phases:
      - kind: breathe-sideways
        seconds: 4
  - id: zero-duration
    phases:
      - kind: inhale
        seconds: 0
  - id: good
    phases:
      - kind: inhale
        seconds: 4
      - kind: exhale
        seconds: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c := NewCatalog(testLogger())
	require.NoError(t, c.LoadFile(path))

	_, err := c.Lookup("bad-kind")
	assert.ErrorIs(t, err, ErrDefinitionNotFound)
	_, err = c.Lookup("zero-duration")
	assert.ErrorIs(t, err, ErrDefinitionNotFound)

	good, err := c.Lookup("good")
	require.NoError(t, err)
	assert.Equal(t, "good", good.Name)
}

func TestCatalog_LoadFile_DuplicateIDSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `exercises:
  - id: box-breathing
    name: Impostor
    phases:
      - kind: inhale
        seconds: 99
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c := NewCatalog(testLogger())
	require.NoError(t, c.LoadFile(path))

	// The builtin wins.
	def, err := c.Lookup("box-breathing")
	require.NoError(t, err)
	assert.Equal(t, "Box Breathing", def.Name)
}

func TestCatalog_LoadFile_Errors(t *testing.T) {
	c := NewCatalog(testLogger())

	assert.Error(t, c.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("exercises: [not: valid: yaml"), 0644))
	assert.Error(t, c.LoadFile(path))
}
