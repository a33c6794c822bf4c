// cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/formctl/internal/observability"
)

// runCLI executes a fresh root command and returns what it printed to stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// writeFixture stores markup in a temporary file and returns its path.
func writeFixture(t *testing.T, name, markup string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(markup), 0o600))
	return path
}

const signupMarkup = `<!doctype html>
<html><body>
<form id="signup" method="post" action="/register">
  <input name="email" type="email" value="ada@example.test">
  <input name="handle" required>
  <input name="code" pattern="[0-9]{4}" value="12ab">
  <input type="checkbox" name="terms" value="yes">
  <select name="plan"><option value="free">Free</option><option value="pro">Pro</option></select>
  <button type="submit" id="go" name="action" value="register">Register</button>
</form>
<form id="search" action="/search"><input name="q" value="forms"></form>
</body></html>`

const handlerMarkup = `<form id="f" action="/save">
  <input id="a" name="a" required oninvalid="return false">
  <input id="b" name="b" required>
</form>`
