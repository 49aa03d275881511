package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/praetorian-inc/guardian/pkg/matcher"
	"github.com/praetorian-inc/guardian/pkg/rule"
	"github.com/praetorian-inc/guardian/pkg/scanner"
	"github.com/praetorian-inc/guardian/pkg/store"
	"github.com/praetorian-inc/guardian/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScanner(t *testing.T) *scanner.Scanner {
	t.Helper()
	catalogs, err := rule.NewLoader().LoadBuiltinCatalogs()
	require.NoError(t, err)

	var matchers []*matcher.Matcher
	for _, c := range catalogs {
		m, err := matcher.New(c)
		require.NoError(t, err)
		matchers = append(matchers, m)
	}
	sc, err := scanner.New(matchers, scanner.Config{})
	require.NoError(t, err)
	return sc
}

// run feeds input to a fresh server and returns the decoded response lines.
func run(t *testing.T, input string, opts ...Option) []Response {
	t.Helper()
	out := &bytes.Buffer{}
	srv := NewServer(newScanner(t), strings.NewReader(input), out, opts...)
	require.NoError(t, srv.Run(context.Background()))

	var responses []Response
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var resp Response
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		responses = append(responses, resp)
	}
	return responses
}

func TestServer_SendsReadyOnStart(t *testing.T) {
	out := &bytes.Buffer{}
	srv := NewServer(newScanner(t), strings.NewReader(""), out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately to exit after ready

	_ = srv.Run(ctx)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ready", resp.Type)

	var ready ReadyData
	require.NoError(t, json.Unmarshal(resp.Data, &ready))
	assert.Equal(t, Version, ready.Version)
	assert.Equal(t, []string{"INCLUSION", "PII"}, ready.Categories)
}

func TestServer_MatchWord(t *testing.T) {
	responses := run(t, `{"type":"match_word","payload":{"word":"email"}}`+"\n")

	require.Len(t, responses, 2) // ready + match_word response
	resp := responses[1]
	assert.True(t, resp.Success)
	assert.Equal(t, TypeMatchWord, resp.Type)

	var results []*types.MatchResult
	require.NoError(t, json.Unmarshal(resp.Data, &results))
	require.Len(t, results, 1)
	assert.Equal(t, "PII", results[0].Category)
	assert.Equal(t, "email", results[0].Content)
	assert.Equal(t, []string{"email"}, results[0].RuleNames())
	assert.NotEmpty(t, results[0].Rules[0].Documentation)
}

func TestServer_MatchWord_NoMatch(t *testing.T) {
	responses := run(t, `{"type":"match_word","payload":{"word":"favorite_color"}}`+"\n")

	require.Len(t, responses, 2)
	assert.True(t, responses[1].Success)
	assert.JSONEq(t, `[]`, string(responses[1].Data))
}

func TestServer_MatchWords(t *testing.T) {
	responses := run(t, `{"type":"match_words","payload":{"words":["name","id","master"]}}`+"\n")

	require.Len(t, responses, 2)
	var results []*types.MatchResult
	require.NoError(t, json.Unmarshal(responses[1].Data, &results))
	require.Len(t, results, 2)
	assert.Equal(t, "INCLUSION", results[0].Category)
	assert.Equal(t, "master", results[0].Content)
	assert.Equal(t, "PII", results[1].Category)
	assert.Equal(t, "name", results[1].Content)
}

func TestServer_MatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "columns.txt")
	require.NoError(t, os.WriteFile(path, []byte("first_name\nid\n"), 0o644))

	req, err := json.Marshal(Request{Type: TypeMatchFile, Payload: json.RawMessage(`{"path":` + mustJSON(t, path) + `}`)})
	require.NoError(t, err)

	responses := run(t, string(req)+"\n")

	require.Len(t, responses, 2)
	require.True(t, responses[1].Success, responses[1].Error)
	var report types.Report
	require.NoError(t, json.Unmarshal(responses[1].Data, &report))
	require.Len(t, report.Results, 1)
	assert.Equal(t, path, report.Results[0].Source)
	assert.Len(t, report.Results[0].Results, 1)
}

func TestServer_ErrorsDoNotStopServer(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"match_file","payload":{"path":"/does/not/exist.txt"}}`,
		`{"type":"match_word","payload":"not an object"}`,
		`{"type":"explode","payload":{}}`,
		`{"type":"match_word"}`,
		`{"type":"categories"}`,
	}, "\n") + "\n"

	responses := run(t, input)

	require.Len(t, responses, 6)
	assert.False(t, responses[1].Success)
	assert.Equal(t, TypeMatchFile, responses[1].Type)
	assert.Contains(t, responses[1].Error, "exist.txt")
	assert.False(t, responses[2].Success)
	assert.False(t, responses[3].Success)
	assert.Equal(t, "unknown", responses[3].Type)
	assert.False(t, responses[4].Success)
	assert.True(t, responses[5].Success)
	assert.JSONEq(t, `["INCLUSION","PII"]`, string(responses[5].Data))
}

func TestServer_MatchBatch_RecordsInStore(t *testing.T) {
	st := store.NewMemory()
	request := `{"type":"match_batch","payload":{"items":[{"source":"users","words":["email","id"]},{"source":"orders","words":["total"]}]}}` + "\n"

	responses := run(t, request, WithStore(st, "session-1"))

	require.Len(t, responses, 2)
	assert.True(t, responses[1].Success)

	var ready ReadyData
	require.NoError(t, json.Unmarshal(responses[0].Data, &ready))
	assert.Equal(t, "session-1", ready.ScanID)

	stored, err := st.GetReport("session-1")
	require.NoError(t, err)
	require.Len(t, stored.Results, 2)
	assert.Equal(t, "users", stored.Results[0].Source)
	assert.Equal(t, 1, stored.Violations())
}

func TestServer_GracefulShutdownOnContext(t *testing.T) {
	// Slow reader that blocks
	pr, pw := io.Pipe()
	out := &bytes.Buffer{}

	srv := NewServer(newScanner(t), pr, out)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() {
		done <- srv.Run(ctx)
	}()

	// Wait for ready signal
	time.Sleep(100 * time.Millisecond)

	// Cancel context
	cancel()
	pw.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestServer_CloseCommand(t *testing.T) {
	responses := run(t, `{"type":"close","payload":{}}`+"\n"+`{"type":"categories"}`+"\n")

	require.Len(t, responses, 1) // Only ready signal
	assert.Equal(t, "ready", responses[0].Type)
}

func TestServer_CloseReleasesReader(t *testing.T) {
	baseline := runtime.NumGoroutine()

	input := `{"type":"close"}` + "\n" + strings.Repeat(`{"type":"categories"}`+"\n", 4)
	responses := run(t, input)
	require.Len(t, responses, 1)

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= baseline
	}, 2*time.Second, 10*time.Millisecond, "reader goroutine still blocked after close")
}

func TestServer_InvalidJSONEndsStream(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"categories"}`,
		`{not json`,
		`{"type":"categories"}`,
	}, "\n") + "\n"

	responses := run(t, input)

	require.Len(t, responses, 3)
	assert.True(t, responses[1].Success)
	assert.False(t, responses[2].Success)
	assert.Equal(t, "decode", responses[2].Type)
}

func TestServer_MatchWord_EmptyWord(t *testing.T) {
	catalog, err := rule.NewCatalog("BLANK", []*types.Rule{
		{Name: "blank", Pattern: `^$`, Documentation: "Empty column name."},
	})
	require.NoError(t, err)
	m, err := matcher.New(catalog)
	require.NoError(t, err)
	sc, err := scanner.New([]*matcher.Matcher{m}, scanner.Config{})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	srv := NewServer(sc, strings.NewReader(`{"type":"match_word","payload":{"word":""}}`+"\n"), out)
	require.NoError(t, srv.Run(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &resp))
	require.True(t, resp.Success)

	var results []*types.MatchResult
	require.NoError(t, json.Unmarshal(resp.Data, &results))
	require.Len(t, results, 1)
	assert.Equal(t, "BLANK", results[0].Category)
	assert.Equal(t, "", results[0].Content)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
