package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/josephlewis42/magish/core/logger"
	"github.com/sebdah/goldie/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSpawner remembers every child it was asked to start and writes a
// fake line of output for it.
type recordingSpawner struct {
	spawns []Spawn
	// fail makes lines containing the string fail to start.
	fail string
}

func (r *recordingSpawner) Spawn(ctx context.Context, s Spawn) error {
	r.spawns = append(r.spawns, s)
	line := s.Args[len(s.Args)-1]
	if r.fail != "" && strings.Contains(line, r.fail) {
		return fmt.Errorf("%w: exec: %q: executable file not found in $PATH", ErrSpawnFailed, s.Program)
	}
	fmt.Fprintf(s.Stdout, "(%s) %s\n", s.Dir, strings.Join(append([]string{s.Program}, s.Args...), " "))
	return nil
}

func (r *recordingSpawner) lines() []string {
	var out []string
	for _, s := range r.spawns {
		out = append(out, s.Args[len(s.Args)-1])
	}
	return out
}

func (r *recordingSpawner) dirs() []string {
	var out []string
	for _, s := range r.spawns {
		out = append(out, s.Dir)
	}
	return out
}

type testEngine struct {
	*Engine
	spawner *recordingSpawner
	out     *bytes.Buffer
}

func newTestEngine(t *testing.T, script string, dirs ...string) *testEngine {
	t.Helper()

	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/work", 0755))
	for _, dir := range dirs {
		require.NoError(t, fsys.MkdirAll(dir, 0755))
	}
	require.NoError(t, afero.WriteFile(fsys, "/work/run.sh", []byte(script), 0644))

	out := &bytes.Buffer{}
	spawner := &recordingSpawner{}

	engine := New(fsys)
	engine.Platform = "linux"
	engine.Spawner = spawner
	engine.Stdin = strings.NewReader("")
	engine.Stdout = out
	engine.Stderr = out
	engine.Delay = 0
	engine.Log = log.New(out, "[magish] ", 0)

	return &testEngine{Engine: engine, spawner: spawner, out: out}
}

func TestExecuteTrace(t *testing.T) {
	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)

	cases := map[string]struct {
		script     string
		scriptPath string
		dirs       []string
		fail       string
		abort      bool
	}{
		"cd-tracking": {
			script: "cd sub\necho A\ncd ..\necho B\n",
			dirs:   []string{"/work/sub"},
		},
		"comments-only": {
			script: "#!/bin/bash\n\n   \n# nothing to see\n\t# indented\n",
		},
		"missing-directory": {
			script: "cd nonexistent\necho A\n",
		},
		"absolute-directory": {
			script: "cd /opt/tools\n./build.sh --all\ncd lib\nmake install\n",
			dirs:   []string{"/opt/tools/lib"},
		},
		"read-failed": {
			script:     "echo never\n",
			scriptPath: "/work/missing.sh",
		},
		"spawn-failure-continue": {
			script: "echo A\nboom\necho B\n",
			fail:   "boom",
		},
		"spawn-failure-abort": {
			script: "echo A\nboom\necho B\n",
			fail:   "boom",
			abort:  true,
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			engine := newTestEngine(t, tc.script, tc.dirs...)
			engine.spawner.fail = tc.fail
			engine.AbortOnSpawnFailure = tc.abort

			scriptPath := tc.scriptPath
			if scriptPath == "" {
				scriptPath = "/work/run.sh"
			}
			engine.Execute(context.Background(), scriptPath, "/work")

			g.Assert(t, tn, engine.out.Bytes())
		})
	}
}

func TestExecuteOnlyCommentsSpawnsNothing(t *testing.T) {
	engine := newTestEngine(t, "# one\n\n#two\n    \n")

	result := engine.Execute(context.Background(), "/work/run.sh", "/work")

	assert.Equal(t, Completed, result.Outcome)
	assert.Empty(t, engine.spawner.spawns)
	assert.Equal(t, 0, result.Commands)
}

func TestExecuteSpawnCount(t *testing.T) {
	script := strings.Join([]string{
		"echo one",
		"",
		"# comment",
		"cd sub",
		"  echo two  ",
		"cd",
		"cd missing",
		"ls -la | wc -l",
	}, "\n")
	engine := newTestEngine(t, script, "/work/sub")

	result := engine.Execute(context.Background(), "/work/run.sh", "/work")

	// "cd" alone isn't a directive, the shell gets it.
	assert.Equal(t, []string{"echo one", "echo two", "cd", "ls -la | wc -l"}, engine.spawner.lines())
	assert.Equal(t, 4, result.Commands)
	assert.Equal(t, 1, result.IgnoredDirectives)
	assert.Equal(t, "/work/sub", result.Dir)
}

func TestExecuteCursor(t *testing.T) {
	engine := newTestEngine(t, "cd sub\necho A\ncd ..\necho B", "/work/sub")

	result := engine.Execute(context.Background(), "/work/run.sh", "/work")

	assert.Equal(t, Completed, result.Outcome)
	assert.Equal(t, []string{"/work/sub", "/work"}, engine.spawner.dirs())
	assert.Equal(t, "/work", result.Dir)
}

func TestExecuteFailedDirectiveKeepsCursor(t *testing.T) {
	engine := newTestEngine(t, "cd nonexistent\necho A")
	require.NoError(t, afero.WriteFile(engine.Fs, "/work/file", []byte("x"), 0644))

	result := engine.Execute(context.Background(), "/work/run.sh", "/work")

	assert.Equal(t, []string{"/work"}, engine.spawner.dirs())
	assert.Equal(t, 1, result.IgnoredDirectives)

	t.Run("file-target", func(t *testing.T) {
		engine := newTestEngine(t, "cd file\necho A")
		require.NoError(t, afero.WriteFile(engine.Fs, "/work/file", []byte("x"), 0644))

		engine.Execute(context.Background(), "/work/run.sh", "/work")
		assert.Equal(t, []string{"/work"}, engine.spawner.dirs())
	})
}

func TestExecuteIdempotent(t *testing.T) {
	engine := newTestEngine(t, "echo A\ncd sub\necho B\ncd /work\necho C", "/work/sub")

	engine.Execute(context.Background(), "/work/run.sh", "/work")
	firstLines, firstDirs := engine.spawner.lines(), engine.spawner.dirs()
	engine.spawner.spawns = nil

	engine.Execute(context.Background(), "/work/run.sh", "/work")
	assert.Equal(t, firstLines, engine.spawner.lines())
	assert.Equal(t, firstDirs, engine.spawner.dirs())
}

func TestExecuteBackendArguments(t *testing.T) {
	cases := map[string]struct {
		platform    string
		wantProgram string
		wantArgs    []string
	}{
		"posix":   {"linux", "bash", []string{"-c", "echo 'a b'"}},
		"windows": {"windows", "wsl", []string{"bash", "-c", "echo 'a b'"}},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			engine := newTestEngine(t, "echo 'a b'")
			engine.Platform = tc.platform

			engine.Execute(context.Background(), "/work/run.sh", "/work")

			require.Len(t, engine.spawner.spawns, 1)
			assert.Equal(t, tc.wantProgram, engine.spawner.spawns[0].Program)
			assert.Equal(t, tc.wantArgs, engine.spawner.spawns[0].Args)
			assert.Equal(t, engine.Stdout, engine.spawner.spawns[0].Stdout)
			assert.Equal(t, engine.Stderr, engine.spawner.spawns[0].Stderr)
		})
	}
}

func TestExecuteUnsupportedPlatform(t *testing.T) {
	engine := newTestEngine(t, "echo A\necho B")
	engine.Platform = "plan9"

	result := engine.Execute(context.Background(), "/work/run.sh", "/work")

	assert.Equal(t, Completed, result.Outcome)
	assert.Equal(t, 2, result.SpawnFailures)
	assert.Empty(t, engine.spawner.spawns)
}

func TestExecuteReadFailed(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		engine := newTestEngine(t, "echo A")

		result := engine.Execute(context.Background(), "/work/gone.sh", "/work")

		assert.Equal(t, ReadFailed, result.Outcome)
		assert.Error(t, result.Err)
		assert.Empty(t, engine.spawner.spawns)
	})

	t.Run("invalid-utf8", func(t *testing.T) {
		engine := newTestEngine(t, "echo \xff\xfe\n")

		result := engine.Execute(context.Background(), "/work/run.sh", "/work")

		assert.Equal(t, ReadFailed, result.Outcome)
		assert.True(t, errors.Is(result.Err, ErrInvalidEncoding))
		assert.Empty(t, engine.spawner.spawns)
	})
}

func TestExecuteCRLF(t *testing.T) {
	engine := newTestEngine(t, "cd sub\r\necho A\r\n", "/work/sub")

	engine.Execute(context.Background(), "/work/run.sh", "/work")

	assert.Equal(t, []string{"echo A"}, engine.spawner.lines())
	assert.Equal(t, []string{"/work/sub"}, engine.spawner.dirs())
}

func TestExecuteCanceled(t *testing.T) {
	engine := newTestEngine(t, "echo A\necho B\necho C")

	ctx, cancel := context.WithCancel(context.Background())
	engine.Spawner = SpawnerFunc(func(ctx context.Context, s Spawn) error {
		cancel()
		return nil
	})

	result := engine.Execute(ctx, "/work/run.sh", "/work")

	assert.Equal(t, Canceled, result.Outcome)
	assert.True(t, errors.Is(result.Err, context.Canceled))
	assert.Equal(t, 1, result.Commands)
	assert.NotContains(t, engine.out.String(), "All commands executed.")
}

func TestExecuteDelay(t *testing.T) {
	engine := newTestEngine(t, "echo A\necho B\necho C")
	engine.Delay = 20 * time.Millisecond

	start := time.Now()
	engine.Execute(context.Background(), "/work/run.sh", "/work")

	assert.GreaterOrEqual(t, int64(time.Since(start)), int64(3*engine.Delay))
}

func TestExecuteLineTimeout(t *testing.T) {
	engine := newTestEngine(t, "sleep 100\necho after")
	engine.LineTimeout = 10 * time.Millisecond

	var deadlines []bool
	engine.Spawner = SpawnerFunc(func(ctx context.Context, s Spawn) error {
		_, hasDeadline := ctx.Deadline()
		deadlines = append(deadlines, hasDeadline)
		<-ctx.Done()
		return nil
	})

	result := engine.Execute(context.Background(), "/work/run.sh", "/work")

	assert.Equal(t, Completed, result.Outcome)
	assert.Equal(t, []bool{true, true}, deadlines)
	assert.Contains(t, engine.out.String(), `"sleep 100": killed after 10ms`)
}

func TestExecuteEvents(t *testing.T) {
	engine := newTestEngine(t, "cd sub\ncd nope\necho A", "/work/sub")

	var events []logger.Event
	engine.Events = logger.New(logger.RecorderFunc(func(event *logger.Event) error {
		events = append(events, *event)
		return nil
	}))

	engine.Execute(context.Background(), "/work/run.sh", "/work")

	var types []logger.EventType
	for _, event := range events {
		types = append(types, event.Type)
		assert.Equal(t, events[0].RunID, event.RunID)
	}
	assert.Equal(t, []logger.EventType{
		logger.EventScriptStarted,
		logger.EventDirectiveChanged,
		logger.EventDirectiveIgnored,
		logger.EventCommandSpawned,
		logger.EventScriptFinished,
	}, types)
	assert.Equal(t, "completed", events[len(events)-1].Outcome)
}

func TestExecuteReadFailedEvents(t *testing.T) {
	engine := newTestEngine(t, "echo A")

	var events []logger.Event
	engine.Events = logger.New(logger.RecorderFunc(func(event *logger.Event) error {
		events = append(events, *event)
		return nil
	}))

	engine.Execute(context.Background(), "/work/gone.sh", "/work")

	require.Len(t, events, 2)
	assert.Equal(t, logger.EventScriptStarted, events[0].Type)
	assert.Equal(t, "/work/gone.sh", events[0].Script)
	assert.Equal(t, logger.EventReadFailed, events[1].Type)
	assert.Equal(t, "read_failed", events[1].Outcome)

	report := logger.NewReport()
	for i := range events {
		report.Update(&events[i])
	}
	assert.Equal(t, 1, report.Runs)
	assert.Equal(t, 1, report.Scripts.Get("/work/gone.sh"))
	assert.Equal(t, 1, report.Outcomes.Get("read_failed"))
}

func TestClassify(t *testing.T) {
	cases := map[string]Line{
		"":                 {Kind: Blank},
		"   \t ":           {Kind: Blank},
		"# comment":        {Kind: Comment, Text: "# comment"},
		"   #!/bin/sh":     {Kind: Comment, Text: "#!/bin/sh"},
		"cd sub":           {Kind: Directive, Text: "cd sub", Target: "sub"},
		"  cd   ../a b  ":  {Kind: Directive, Text: "cd   ../a b", Target: "../a b"},
		"cd":               {Kind: Passthrough, Text: "cd"},
		"cdrom eject":      {Kind: Passthrough, Text: "cdrom eject"},
		"echo # not a cmt": {Kind: Passthrough, Text: "echo # not a cmt"},
	}

	for raw, want := range cases {
		assert.Equal(t, want, Classify(raw), raw)
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "completed", Completed.String())
	assert.Equal(t, "read_failed", ReadFailed.String())
	assert.Equal(t, "spawn_aborted", SpawnAborted.String())
	assert.Equal(t, "canceled", Canceled.String())
	assert.Equal(t, "outcome(42)", Outcome(42).String())
}
