// cmd/cmd_test.go
package cmd

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/formctl/api/schemas"
)

func TestRootCmd_VersionFlag(t *testing.T) {
	out, err := runCLI(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "formctl "+Version+" (go"), out)
}

func TestRootCmd_NoArgsPrintsHelp(t *testing.T) {
	out, err := runCLI(t, "")
	require.NoError(t, err)
	assert.Contains(t, out, "formctl validates and submits HTML forms without a browser.")
	assert.Contains(t, out, "check")
	assert.Contains(t, out, "submit")
}

func TestCheck_TextReport(t *testing.T) {
	path := writeFixture(t, "signup.html", signupMarkup)

	out, err := runCLI(t, "", "check", path, "--url", "https://example.test/join")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidForms))

	assert.Contains(t, out, "form[0] #signup: INVALID (POST application/x-www-form-urlencoded -> https://example.test/register, 6 controls)")
	assert.Contains(t, out, "<input type=text name=handle>")
	assert.Contains(t, out, "<input type=text name=code>")
	assert.Contains(t, out, "form[1] #search: valid (GET application/x-www-form-urlencoded -> https://example.test/search, 1 controls)")
	assert.Contains(t, out, "2 form(s) checked, 1 invalid")
}

func TestCheck_JSONReport(t *testing.T) {
	path := writeFixture(t, "signup.html", signupMarkup)

	out, err := runCLI(t, "", "check", path, "--form", "#search", "--format", "json")
	require.NoError(t, err)

	var report schemas.CheckReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Forms, 1)
	assert.NotEmpty(t, report.ID)
	assert.Zero(t, report.Invalid)

	f := report.Forms[0]
	assert.Equal(t, "search", f.ID)
	assert.True(t, f.Valid)
	assert.Equal(t, "valid", f.State)
	assert.Equal(t, "get", f.Method)
	assert.True(t, strings.HasPrefix(f.Action, "file://"), "relative action resolves against the file URL: %s", f.Action)
	assert.True(t, strings.HasSuffix(f.Action, "/search"))
}

func TestCheck_XPathSelectorAndStdin(t *testing.T) {
	out, err := runCLI(t, `<form name="only"><input name="x" required value="ok"></form>`,
		"check", "-", "--form", "//form[@name='only']", "-o", "json")
	require.NoError(t, err)

	var report schemas.CheckReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Forms, 1)
	assert.Equal(t, "-", report.Forms[0].Source)
	assert.Equal(t, "only", report.Forms[0].Name)
	assert.Equal(t, "about:blank", report.Forms[0].Action)
}

func TestCheck_ManyFilesKeepArgumentOrder(t *testing.T) {
	var paths []string
	for _, name := range []string{"a.html", "b.html", "c.html", "d.html"} {
		paths = append(paths, writeFixture(t, name, `<form id="`+strings.TrimSuffix(name, ".html")+`"></form>`))
	}
	out, err := runCLI(t, "", append([]string{"check", "-o", "json", "-j", "2"}, paths...)...)
	require.NoError(t, err)

	var report schemas.CheckReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	var ids []string
	for _, f := range report.Forms {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
}

func TestCheck_InlineInvalidHandlerAndPolicy(t *testing.T) {
	path := writeFixture(t, "handlers.html", handlerMarkup)

	unhandled := func(args ...string) []string {
		t.Helper()
		out, err := runCLI(t, "", append([]string{"check", path, "-o", "json"}, args...)...)
		require.ErrorIs(t, err, ErrInvalidForms)
		var report schemas.CheckReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		require.Len(t, report.Forms, 1)
		var ids []string
		for _, c := range report.Forms[0].Unhandled {
			ids = append(ids, c.ID)
		}
		return ids
	}

	assert.Equal(t, []string{"b"}, unhandled(), "cancelled invalid events are excluded by default")
	assert.Equal(t, []string{"a", "b"}, unhandled("--invalid-events", "record_all"))
	assert.Equal(t, []string{"a", "b"}, unhandled("--no-scripts"), "without scripts nothing cancels")
}

func TestCheck_UnhandledControlPaths(t *testing.T) {
	path := writeFixture(t, "signup.html", signupMarkup)
	out, err := runCLI(t, "", "check", path, "--form", "#signup", "-o", "json")
	require.ErrorIs(t, err, ErrInvalidForms)

	var report schemas.CheckReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Forms, 1)
	var paths []string
	for _, c := range report.Forms[0].Unhandled {
		paths = append(paths, c.Path)
	}
	assert.Equal(t, []string{"//*[@id='signup']/input[2]", "//*[@id='signup']/input[3]"}, paths)
	assert.Equal(t, "Please fill out this field.", report.Forms[0].Unhandled[0].Message)
}

func TestCheck_Errors(t *testing.T) {
	_, err := runCLI(t, "", "check", "/does/not/exist.html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening /does/not/exist.html")

	path := writeFixture(t, "x.html", `<form></form>`)
	_, err = runCLI(t, "", "check", path, "--format", "yaml")
	assert.ErrorContains(t, err, "unknown output format")

	_, err = runCLI(t, "", "check", path, "--invalid-events", "sometimes")
	assert.ErrorContains(t, err, "unknown invalid event policy")

	_, err = runCLI(t, "", "check", path, "--form", "//form[")
	assert.ErrorContains(t, err, "form selector")
}

func TestCheck_ConfigFile(t *testing.T) {
	cfgPath := writeFixture(t, "formctl.yaml", "document:\n  url: https://cfg.example.test/base/\nforms:\n  scripts: false\n")
	path := writeFixture(t, "handlers.html", handlerMarkup)

	out, err := runCLI(t, "", "--config", cfgPath, "check", path, "-o", "json")
	require.ErrorIs(t, err, ErrInvalidForms)

	var report schemas.CheckReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "https://cfg.example.test/save", report.Forms[0].Action)
	assert.Len(t, report.Forms[0].Unhandled, 2)
}

func TestSubmit_DryRun(t *testing.T) {
	path := writeFixture(t, "signup.html", signupMarkup)

	out, err := runCLI(t, "", "submit", path, "--url", "https://example.test/join", "--dry-run", "-o", "json",
		"--set", "handle=ada", "--set", "code=1234", "--set", "terms=yes", "--set", "plan=pro",
		"--submitter", "#go")
	require.NoError(t, err)

	var report schemas.SubmissionReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Submitted)
	assert.True(t, report.DryRun)
	assert.True(t, report.Form.Valid)
	require.NotNil(t, report.Submitter)
	assert.Equal(t, "go", report.Submitter.ID)
	assert.Equal(t, "//*[@id='go']", report.Submitter.Path)
	assert.Equal(t, "POST", report.Method)
	assert.Equal(t, "https://example.test/register", report.URL)
	assert.Equal(t, "application/x-www-form-urlencoded", report.ContentType)
	assert.Equal(t, "email=ada%40example.test&handle=ada&code=1234&terms=yes&plan=pro&action=register", report.Body)
	assert.Nil(t, report.Response)
	assert.Len(t, report.Entries, 6)
}

func TestSubmit_BlockedByValidation(t *testing.T) {
	path := writeFixture(t, "signup.html", signupMarkup)

	out, err := runCLI(t, "", "submit", path, "--dry-run", "--form", "#signup")
	require.NoError(t, err)
	assert.Contains(t, out, "not submitted: blocked by invalid controls")
	assert.Contains(t, out, "name=handle")
}

func TestSubmit_ClickReportsUnhandledControls(t *testing.T) {
	path := writeFixture(t, "handlers.html", `<form id="f" action="http://example.test/save">
  <input id="a" name="a" required oninvalid="return false">
  <input id="b" name="b" required>
  <button id="save">Save</button>
</form>`)

	unhandled := func(t *testing.T, extra ...string) []string {
		args := append([]string{"submit", path, "--dry-run", "-o", "json"}, extra...)
		out, err := runCLI(t, "", args...)
		require.NoError(t, err)
		var report schemas.SubmissionReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.False(t, report.Submitted)
		assert.False(t, report.Form.Valid)
		var ids []string
		for _, c := range report.Form.Unhandled {
			ids = append(ids, c.ID)
		}
		return ids
	}

	t.Run("cancelled events are handled", func(t *testing.T) {
		assert.Equal(t, []string{"b"}, unhandled(t, "--submitter", "#save"))
	})
	t.Run("record_all keeps every invalid control", func(t *testing.T) {
		t.Setenv("FORMCTL_FORMS_INVALID_EVENTS", "record_all")
		assert.Equal(t, []string{"a", "b"}, unhandled(t, "--submitter", "#save"))
	})
	t.Run("observed mode reports the same with or without a submitter", func(t *testing.T) {
		t.Setenv("FORMCTL_FORMS_INTERACTIVE", "observed")
		assert.Empty(t, unhandled(t, "--submitter", "#save"))
		assert.Empty(t, unhandled(t))
	})
}

func TestSubmit_SelectorWithQuoteMatchesOnlyThatForm(t *testing.T) {
	path := writeFixture(t, "quoted.html", `<form id="first" action="http://example.test/first"><input name="q" value="1"></form>
<form id="a'b" action="http://example.test/second"><input name="it's" value="2"><button name="go" value="x'y">Go</button></form>`)

	out, err := runCLI(t, "", "submit", path, "--dry-run", "-o", "json",
		"--form", "#a'b", "--submitter", "[value=x'y]")
	require.NoError(t, err)
	var report schemas.SubmissionReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Submitted)
	assert.Equal(t, "a'b", report.Form.ID)
	assert.Equal(t, "http://example.test/second?it%27s=2&go=x%27y", report.URL)
}

func TestSubmit_CancelledBySubmitHandler(t *testing.T) {
	path := writeFixture(t, "cancel.html", `<form action="http://example.test/" onsubmit="return false"><input name="q"></form>`)

	out, err := runCLI(t, "", "submit", path, "--dry-run", "-o", "json")
	require.NoError(t, err)
	var report schemas.SubmissionReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Submitted)
	assert.True(t, report.Form.Valid)
}

func TestSubmit_OverHTTP(t *testing.T) {
	var (
		mu   sync.Mutex
		body string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = string(data)
		mu.Unlock()
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "saved")
	}))
	defer server.Close()

	path := writeFixture(t, "post.html", `<form method="post" enctype="text/plain" action="/save">
		<textarea name="note">hi there</textarea>
	</form>`)

	out, err := runCLI(t, "", "submit", path, "--url", server.URL+"/edit", "-o", "json")
	require.NoError(t, err)

	var report schemas.SubmissionReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Submitted)
	assert.False(t, report.DryRun)
	assert.Empty(t, report.Body)
	require.NotNil(t, report.Response)
	assert.Equal(t, http.StatusOK, report.Response.Status)
	assert.Equal(t, server.URL+"/save", report.Response.FinalURL)
	assert.Equal(t, 5, report.Response.Bytes)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "note=hi there\r\n", body)
}

func TestSubmit_Errors(t *testing.T) {
	path := writeFixture(t, "signup.html", signupMarkup)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no form", []string{"--form", "#missing"}, `no form matches "#missing"`},
		{"bad set", []string{"--set", "novalue"}, "want name=value"},
		{"unknown control", []string{"--set", "nope=1"}, `no control named "nope"`},
		{"missing submitter", []string{"--submitter", "#ghost"}, "no control matches submitter selector"},
		{"submitter of another form", []string{"--form", "#search", "--submitter", "#go"}, "does not belong to the selected form"},
		{"bad interactive mode", []string{"--interactive", "loud"}, "unknown interactive mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, "", append([]string{"submit", path, "--dry-run"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestApplyValues_RadioGroup(t *testing.T) {
	path := writeFixture(t, "radio.html", `<form action="http://example.test/">
		<input type="radio" name="size" value="s" checked>
		<input type="radio" name="size" value="l">
	</form>`)

	out, err := runCLI(t, "", "submit", path, "--dry-run", "--set", "size=l", "-o", "json")
	require.NoError(t, err)
	var report schemas.SubmissionReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, []schemas.EntryReport{{Name: "size", Value: "l"}}, report.Entries)
	assert.Equal(t, "http://example.test/?size=l", report.URL)
}
