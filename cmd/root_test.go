package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsfetch/internal"
	"wsfetch/store"
)

// sha1(md5crypt("secret", "abc"))
const secretHash = "1bb332aa4777b35066c81783b142e32b49d0bc80"

type apiStub struct {
	server *httptest.Server

	mu        sync.Mutex
	endpoints []string
	// sessionGone makes logout answer as for a token the server dropped
	sessionGone bool
}

func newAPIStub(t *testing.T) *apiStub {
	t.Helper()

	stub := &apiStub{}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		endpoint := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api"), "/")

		stub.mu.Lock()
		stub.endpoints = append(stub.endpoints, endpoint)
		sessionGone := stub.sessionGone
		stub.mu.Unlock()

		switch endpoint {
		case "salt", "file_password_salt":
			fmt.Fprint(w, "<response><status>OK</status><salt>abc</salt></response>")
		case "login":
			if r.PostForm.Get("password") != secretHash {
				fmt.Fprint(w, "<response><status>FATAL</status><message>Wrong password</message></response>")
				return
			}
			fmt.Fprint(w, "<response><status>OK</status><token>T1</token></response>")
		case "logout":
			if sessionGone {
				fmt.Fprint(w, "<response><status>FATAL</status><message>Session expired</message></response>")
				return
			}
			fmt.Fprint(w, "<response><status>OK</status></response>")
		case "file_link":
			if r.PostForm.Get("ident") == "missing" {
				fmt.Fprint(w, "<response><status>FATAL</status><message>File not found</message></response>")
				return
			}
			fmt.Fprintf(w, "<response><status>OK</status><link>https://dl.example/%s?wst=%s</link></response>",
				r.PostForm.Get("ident"), r.PostForm.Get("wst"))
		case "file_info":
			fmt.Fprint(w, "<response><status>OK</status><name>movie.mkv</name><description>Holiday</description><type>mkv</type><size>1572864</size></response>")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(stub.server.Close)
	return stub
}

func (s *apiStub) Endpoints() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.endpoints...)
}

type cliEnv struct {
	stub      *apiStub
	storePath string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	for _, key := range []string{"WEBSHARE_USERNAME", "WEBSHARE_PASSWORD", "WEBSHARE_BASE_URL", "WEBSHARE_STORE", "WEBSHARE_QUIET", "WEBSHARE_DEBUG", "WEBSHARE_LOG_FILE"} {
		t.Setenv(key, "")
	}
	internal.SetLogger(internal.NewSecureLogger(&bytes.Buffer{}, internal.LogLevelError, false, true))

	return &cliEnv{
		stub:      newAPIStub(t),
		storePath: filepath.Join(t.TempDir(), "session.db"),
	}
}

// run executes one CLI invocation and returns its stdout
func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	base := []string{
		"--config", filepath.Join(t.TempDir(), "absent.yaml"),
		"--base-url", e.stub.server.URL + "/api",
		"--store", e.storePath,
		"--log-file", filepath.Join(t.TempDir(), "wsfetch.log"),
	}

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(base, args...))

	err := root.Execute()
	return out.String(), err
}

func (e *cliEnv) storedToken(t *testing.T, account string) (string, bool) {
	t.Helper()

	tokens, err := store.NewBboltTokenStore(e.storePath)
	require.NoError(t, err)
	defer tokens.Close()

	token, ok, err := tokens.LoadToken(account)
	require.NoError(t, err)
	return token, ok
}

func TestLoginCommand(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("WEBSHARE_PASSWORD", "secret")

	out, err := env.run(t, "", "login", "--username", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as alice")

	token, ok := env.storedToken(t, "alice")
	assert.True(t, ok)
	assert.Equal(t, "T1", token)

	// a stored session makes the second login a no-op
	out, err = env.run(t, "", "login", "--username", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Already logged in")
	assert.Equal(t, []string{"salt", "login"}, env.stub.Endpoints())
}

func TestLoginCommand_PasswordFromStdin(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "secret\n", "login", "--username", "alice")
	require.NoError(t, err)

	_, ok := env.storedToken(t, "alice")
	assert.True(t, ok)
}

func TestLoginCommand_WrongPassword(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "nope\n", "login", "--username", "alice")
	assert.True(t, internal.IsKind(err, internal.ErrAPI))

	_, ok := env.storedToken(t, "alice")
	assert.False(t, ok)
}

func TestLoginCommand_NoAccount(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "secret\n", "login")
	var validationErr *internal.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "username", validationErr.Field)
	assert.Empty(t, env.stub.Endpoints())
}

func TestLogoutCommand(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "secret\n", "login", "--username", "alice")
	require.NoError(t, err)

	// the only stored account is picked without --username
	out, err := env.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out alice")

	_, ok := env.storedToken(t, "alice")
	assert.False(t, ok)
	assert.Equal(t, []string{"salt", "login", "logout"}, env.stub.Endpoints())

	out, err = env.run(t, "", "logout", "--username", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")
	assert.Len(t, env.stub.Endpoints(), 3)
}

func TestLogoutCommand_ExpiredSession(t *testing.T) {
	env := newCLIEnv(t)
	env.stub.mu.Lock()
	env.stub.sessionGone = true
	env.stub.mu.Unlock()

	tokens, err := store.NewBboltTokenStore(env.storePath)
	require.NoError(t, err)
	require.NoError(t, tokens.SaveToken("alice", "EXPIRED"))
	require.NoError(t, tokens.Close())

	out, err := env.run(t, "", "logout", "--username", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "had already ended")

	_, ok := env.storedToken(t, "alice")
	assert.False(t, ok)

	// the next login runs the full handshake instead of reusing the dead token
	out, err = env.run(t, "secret\n", "login", "--username", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as alice")
	assert.Equal(t, []string{"logout", "salt", "login"}, env.stub.Endpoints())

	token, ok := env.storedToken(t, "alice")
	assert.True(t, ok)
	assert.Equal(t, "T1", token)
}

func TestLogoutCommand_TransportErrorKeepsToken(t *testing.T) {
	env := newCLIEnv(t)

	tokens, err := store.NewBboltTokenStore(env.storePath)
	require.NoError(t, err)
	require.NoError(t, tokens.SaveToken("alice", "T1"))
	require.NoError(t, tokens.Close())

	env.stub.server.Close()

	_, err = env.run(t, "", "logout", "--username", "alice")
	assert.True(t, internal.IsKind(err, internal.ErrTransport))

	_, ok := env.storedToken(t, "alice")
	assert.True(t, ok)
}

func TestWhoamiCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "Not logged in\n", out)

	_, err = env.run(t, "secret\n", "login", "--username", "alice")
	require.NoError(t, err)

	out, err = env.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "alice (logged in)\n", out)
}

func TestLinkCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "", "link",
		"https://webshare.cz/#/file/a1/one.mkv",
		"https://webshare.cz/file/b2")
	require.NoError(t, err)
	assert.Equal(t, "https://dl.example/a1?wst=\nhttps://dl.example/b2?wst=\n", out)
}

func TestLinkCommand_UsesStoredSession(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "secret\n", "login", "--username", "alice")
	require.NoError(t, err)

	out, err := env.run(t, "", "link", "https://webshare.cz/#/file/a1/one.mkv")
	require.NoError(t, err)
	assert.Equal(t, "https://dl.example/a1?wst=T1\n", out)
}

func TestLinkCommand_FilePasswordAndJSON(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "", "link", "--json", "--file-password", "secret", "https://webshare.cz/#/file/a1/x")
	require.NoError(t, err)

	var links []internal.ResolvedLink
	require.NoError(t, json.Unmarshal([]byte(out), &links))
	require.Len(t, links, 1)
	assert.Equal(t, "https://dl.example/a1?wst=", links[0].DirectURL)
	assert.Equal(t, []string{"file_password_salt", "file_link"}, env.stub.Endpoints())
}

func TestLinkCommand_Errors(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "", "link", "https://example.com/file/a1")
	assert.True(t, internal.IsKind(err, internal.ErrInvalidURL))

	_, err = env.run(t, "", "link", "https://webshare.cz/#/file/missing/x")
	assert.True(t, internal.IsKind(err, internal.ErrAPI))
	assert.Contains(t, err.Error(), "File not found")
}

func TestInfoCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "", "info", "https://webshare.cz/#/file/a1/movie.mkv")
	require.NoError(t, err)
	assert.Contains(t, out, "Name:        movie.mkv")
	assert.Contains(t, out, "Size:        1.5 MB (1572864 bytes)")
	assert.Contains(t, out, "Type:        mkv")
	assert.Contains(t, out, "Description: Holiday")

	out, err = env.run(t, "", "info", "--json", "https://webshare.cz/#/file/a1/movie.mkv")
	require.NoError(t, err)

	var info internal.FileInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, internal.FileInfo{Name: "movie.mkv", Description: "Holiday", Type: "mkv", Size: 1572864}, info)
}

func TestConfigurationPrecedence(t *testing.T) {
	env := newCLIEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("timeout: 30\nconcurrency: 2\nshare_domain: files.example\n"), 0o600))
	t.Setenv("WEBSHARE_TIMEOUT", "20")

	opts := &options{}
	root := newRootCmdWith(opts)
	require.NoError(t, root.ParseFlags([]string{"--config", configPath, "--concurrency", "8", "--store", env.storePath}))

	require.NoError(t, opts.loadConfiguration(root))
	assert.Equal(t, 20, opts.config.DefaultTimeout, "env overrides file")
	assert.Equal(t, 8, opts.config.Concurrency, "flag overrides file")
	assert.Equal(t, "files.example", opts.config.ShareDomain, "file overrides default")
	assert.Equal(t, env.storePath, opts.config.StorePath)
}

func TestConfigurationInvalid(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "", "--timeout", "0", "whoami")
	var validationErr *internal.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "timeout", validationErr.Field)
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1572864, "1.5 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatFileSize(tt.bytes))
	}
}
