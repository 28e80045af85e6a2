package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidBundle(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join("testdata", "bundle-valid.yaml")})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Bundle is valid: 2 reference(s), 2 mapping(s).")
}

func TestValidateValidBundleJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join("testdata", "bundle-valid.yaml")})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["valid"])
}

func TestValidateNonExistentFile(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/bundle.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "E005")
}

func TestValidateInvalidBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.yaml")
	doc := `
mappings:
  - type: POLICY
    srcId: aaaa0001aaaa0001aaaa0001aaaa0001
    action: Upsert
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitConflict, GetExitCode(err))
	assert.Contains(t, buf.String(), "E004")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.yaml")
	doc := `
mappings:
  - type: FOLDER
    srcId: aaaa0001aaaa0001aaaa0001aaaa0001
    action: NewOrExisting
  - type: FOLDER
    srcId: aaaa0001aaaa0001aaaa0001aaaa0001
    action: NewOrExisting
  - type: POLICY
    srcId: cccc0003cccc0003cccc0003cccc0003
    action: NewOrExisting
    properties:
      MapBy: color
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)

	details, ok := resp.Error.Details.(map[string]interface{})
	require.True(t, ok)
	errList, ok := details["errors"].([]interface{})
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(errList), 2)
}
