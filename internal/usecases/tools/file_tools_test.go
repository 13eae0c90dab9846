package tools

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
	"github.com/FreePeak/mcp-host-bridge/internal/infrastructure/sandbox"
)

func newSandbox(t *testing.T) *sandbox.Sandbox {
	t.Helper()
	sb, err := sandbox.New(t.TempDir())
	require.NoError(t, err)
	return sb
}

func call(t *testing.T, reg *Registry, name string, args map[string]interface{}) (string, error) {
	t.Helper()
	result, err := reg.Invoke(context.Background(), name, args)
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

func TestWriteThenReadFile(t *testing.T) {
	sb := newSandbox(t)
	reg := NewRegistry(NewWriteFileTool(sb), NewReadFileTool(sb))

	out, err := call(t, reg, "write_file", map[string]interface{}{"path": "plugins/demo/config.yml", "content": "enabled: true\n"})
	require.NoError(t, err)
	assert.Equal(t, "File written successfully to plugins/demo/config.yml", out)

	out, err = call(t, reg, "read_file", map[string]interface{}{"path": "plugins/demo/config.yml"})
	require.NoError(t, err)
	assert.Equal(t, "enabled: true\n", out)

	_, err = call(t, reg, "write_file", map[string]interface{}{"path": "plugins/demo/config.yml", "content": "x"})
	require.NoError(t, err)
	out, err = call(t, reg, "read_file", map[string]interface{}{"path": "plugins/demo/config.yml"})
	require.NoError(t, err)
	assert.Equal(t, "x", out, "write truncates")
}

func TestBase64RoundTrip(t *testing.T) {
	sb := newSandbox(t)
	reg := NewRegistry(NewWriteFileBase64Tool(sb), NewReadFileBase64Tool(sb))

	payload := base64.StdEncoding.EncodeToString([]byte{0x00, 0xff, 0x10, 'M', 'C', 0x80})

	out, err := call(t, reg, "write_file_base64", map[string]interface{}{"path": "world/region.bin", "content": payload})
	require.NoError(t, err)
	assert.Equal(t, "Binary file written successfully to world/region.bin (6 bytes)", out)

	out, err = call(t, reg, "read_file_base64", map[string]interface{}{"path": "world/region.bin"})
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestWriteFileBase64Malformed(t *testing.T) {
	sb := newSandbox(t)
	reg := NewRegistry(NewWriteFileBase64Tool(sb))

	_, err := call(t, reg, "write_file_base64", map[string]interface{}{"path": "bad.bin", "content": "not base64!!"})
	assert.Equal(t, domain.KindInvalidArguments, domain.ToolErrorKind(err))
	assert.NoFileExists(t, filepath.Join(sb.Root(), "bad.bin"))
}

func TestReadFileNotFound(t *testing.T) {
	sb := newSandbox(t)
	reg := NewRegistry(NewReadFileTool(sb), NewReadFileBase64Tool(sb))

	for _, name := range []string{"read_file", "read_file_base64"} {
		_, err := call(t, reg, name, map[string]interface{}{"path": "missing.txt"})
		assert.Equal(t, domain.KindNotFound, domain.ToolErrorKind(err), name)
		assert.EqualError(t, err, "File not found: missing.txt")
	}
}

func TestFileToolsRejectEscapesBeforeIO(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "server")
	require.NoError(t, os.Mkdir(root, 0o755))
	sb, err := sandbox.New(root)
	require.NoError(t, err)
	reg := NewRegistry(Catalog(&stubHost{}, sb, filepath.Join(root, "logs", "latest.log"), 100)...)

	escapes := []string{"../escaped.txt", "a/../../escaped.txt", filepath.Join(parent, "escaped.txt")}
	for _, p := range escapes {
		for _, tc := range []struct {
			tool string
			args map[string]interface{}
		}{
			{"read_file", map[string]interface{}{"path": p}},
			{"read_file_base64", map[string]interface{}{"path": p}},
			{"write_file", map[string]interface{}{"path": p, "content": "pwned"}},
			{"write_file_base64", map[string]interface{}{"path": p, "content": "cHduZWQ="}},
			{"list_directory", map[string]interface{}{"path": p}},
		} {
			t.Run(tc.tool+" "+p, func(t *testing.T) {
				_, err := call(t, reg, tc.tool, tc.args)
				assert.Equal(t, domain.KindAccessDenied, domain.ToolErrorKind(err))
			})
		}
	}
	assert.NoFileExists(t, filepath.Join(parent, "escaped.txt"))
}

func TestFileToolArgumentTypes(t *testing.T) {
	sb := newSandbox(t)
	reg := NewRegistry(NewWriteFileTool(sb))

	_, err := call(t, reg, "write_file", map[string]interface{}{"path": "a.txt"})
	assert.EqualError(t, err, "missing required argument: content")

	_, err = call(t, reg, "write_file", map[string]interface{}{"path": true, "content": "x"})
	assert.EqualError(t, err, `argument "path" must be a string`)
}
