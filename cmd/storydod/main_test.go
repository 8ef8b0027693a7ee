package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioStatus = `development_status:
  "1-1-foo": "done"
  "1-2-bar": "todo"
`

const completeStory = `# Story 1.1: Foo

## Dev Agent Record

### Agent Model Used

gpt-5.1-codex

### File List

- backend/src/main.rs

## Review Notes

Reviewed and approved.
`

type runOutput struct {
	code   int
	stdout string
	stderr string
}

func setupProject(t *testing.T, status string, records map[string]string) (string, string) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "docs", "implementation-artifacts")
	require.NoError(t, os.MkdirAll(dir, 0755))
	if status != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "sprint-status.yaml"), []byte(status), 0644))
	}
	for key, body := range records {
		require.NoError(t, os.WriteFile(filepath.Join(dir, key+".md"), []byte(body), 0644))
	}
	return root, dir
}

func runIn(t *testing.T, dir string, args ...string) runOutput {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, func() (string, error) { return dir, nil }, &stdout, &stderr)
	return runOutput{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestScenarioAllRecordsComplete(t *testing.T) {
	root, dir := setupProject(t, scenarioStatus, map[string]string{"1-1-foo": completeStory})

	out := runIn(t, root)
	assert.Equal(t, 0, out.code)
	assert.Empty(t, out.stderr)
	assert.Equal(t, "OK: verified 1 done stories from "+filepath.Join(dir, "sprint-status.yaml")+"\n", out.stdout)
}

func TestScenarioMissingRecord(t *testing.T) {
	root, dir := setupProject(t, scenarioStatus, nil)

	out := runIn(t, root)
	assert.Equal(t, 1, out.code)
	assert.Empty(t, out.stdout)

	var violations []string
	for _, line := range strings.Split(out.stderr, "\n") {
		if strings.HasPrefix(line, "- ") {
			violations = append(violations, line)
		}
	}
	require.Len(t, violations, 1)
	assert.Equal(t, "- [1-1-foo] missing record file: "+filepath.Join(dir, "1-1-foo.md"), violations[0])
	assert.True(t, strings.HasPrefix(out.stderr, "Story DoD verification failed:\n"))
	assert.Contains(t, out.stderr, "Checked 1 done stories from "+filepath.Join(dir, "sprint-status.yaml"))
}

func TestScenarioAgentModelFollowedByHeading(t *testing.T) {
	record := strings.Replace(completeStory, "### Agent Model Used\n\ngpt-5.1-codex\n\n", "### Agent Model Used\n", 1)
	root, dir := setupProject(t, scenarioStatus, map[string]string{"1-1-foo": record})

	out := runIn(t, root)
	assert.Equal(t, 1, out.code)
	want := "Story DoD verification failed:\n\n" +
		"- [1-1-foo] missing section: ### Agent Model Used\n\n" +
		"Checked 1 done stories from " + filepath.Join(dir, "sprint-status.yaml") + "\n"
	assert.Equal(t, want, out.stderr)
	assert.NotContains(t, out.stderr, "empty Agent Model Used value")
}

func TestRunIsIdempotent(t *testing.T) {
	root, _ := setupProject(t, `development_status:
  2-1-b: done
  1-1-a: done
  1-3-c: done
`, map[string]string{
		"1-1-a": "## Dev Agent Record\n",
		"2-1-b": completeStory,
	})

	first := runIn(t, root)
	second := runIn(t, root)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, first.code)
	assert.Less(t, strings.Index(first.stderr, "[1-1-a]"), strings.Index(first.stderr, "[1-3-c]"))
}

func TestRunFromNestedDirectory(t *testing.T) {
	root, _ := setupProject(t, scenarioStatus, map[string]string{"1-1-foo": completeStory})
	nested := filepath.Join(root, "frontend", "src")
	require.NoError(t, os.MkdirAll(nested, 0755))

	out := runIn(t, nested)
	assert.Equal(t, 0, out.code)
}

func TestFatalStatusErrors(t *testing.T) {
	t.Run("missing-status", func(t *testing.T) {
		root, _ := setupProject(t, "", nil)
		out := runIn(t, root)
		assert.Equal(t, 1, out.code)
		assert.Empty(t, out.stdout)
		assert.True(t, strings.HasPrefix(out.stderr, "Error: "))
		assert.NotContains(t, out.stderr, "verification failed")
	})
	t.Run("malformed-status", func(t *testing.T) {
		root, _ := setupProject(t, "development_status: {\n", map[string]string{"1-1-foo": completeStory})
		out := runIn(t, root)
		assert.Equal(t, 1, out.code)
		assert.Contains(t, out.stderr, "sprint: parse")
		assert.NotContains(t, out.stderr, "Checked")
	})
}

func TestRejectsArguments(t *testing.T) {
	root, _ := setupProject(t, scenarioStatus, map[string]string{"1-1-foo": completeStory})
	out := runIn(t, root, "extra")
	assert.Equal(t, 1, out.code)
	assert.Empty(t, out.stdout)
	assert.True(t, strings.HasPrefix(out.stderr, "Error: "))
}

func TestUnreadableRecordReportStartsWithBanner(t *testing.T) {
	root, dir := setupProject(t, scenarioStatus, nil)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "1-1-foo.md"), 0755))

	out := runIn(t, root)
	assert.Equal(t, 1, out.code)
	assert.True(t, strings.HasPrefix(out.stderr, "Story DoD verification failed:\n"), "stderr: %q", out.stderr)
	assert.NotContains(t, out.stderr, "WARN")
	assert.Contains(t, out.stderr, "- [1-1-foo] unreadable record file: "+filepath.Join(dir, "1-1-foo.md"))
}
