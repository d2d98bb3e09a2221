package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `dataRoot: %s
sets: [set1]
files:
  - name: data_1.txt
    desc: tiny
trees: [bst, rbtree]
verify: true
loadWorkers: 2
`

func writeTestData(t *testing.T) (root string) {
	t.Helper()
	root = t.TempDir()
	for phase, content := range map[string]string{
		"insert": "5 3 8 1,9",
		"search": "3 9 4",
		"delete": "5",
	} {
		dir := filepath.Join(root, phase, "set1")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "data_1.txt"), []byte(content), 0o644))
	}
	return root
}

func writeTestConfig(t *testing.T, root string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "treebench.yaml")
	cfg := []byte(fmt.Sprintf(testConfigYAML, root))
	require.NoError(t, os.WriteFile(path, cfg, 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(viper.New())
	require.NoError(t, err)
	require.Equal(t, "code/data", cfg.DataRoot)
	require.Equal(t, []string{"set1", "set2"}, cfg.Sets)
	require.Len(t, cfg.Files, 3)
	require.Equal(t, "data_3.txt", cfg.Files[2].Name)
	require.Equal(t, "200K items", cfg.Files[2].Desc)
	require.Equal(t, 3, cfg.LoadWorkers)
	require.Equal(t, "none", cfg.Metrics)
	require.Empty(t, cfg.Store.DSN)
	require.Nil(t, cfg.Log.File)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("TREEBENCH_TREES", "rbtree,bst")
	t.Setenv("TREEBENCH_LOG_LEVEL", "warn")
	t.Setenv("TREEBENCH_LOADWORKERS", "7")

	cfg, err := loadConfig(viper.New())
	require.NoError(t, err)
	require.Equal(t, []string{"rbtree", "bst"}, cfg.Trees)
	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, 7, cfg.LoadWorkers)
}

func TestLoadConfig_File(t *testing.T) {
	root := writeTestData(t)
	v := viper.New()
	v.Set("config", writeTestConfig(t, root))

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	require.Equal(t, root, cfg.DataRoot)
	require.Equal(t, []string{"set1"}, cfg.Sets)
	// The file list replaces the default one.
	require.Len(t, cfg.Files, 1)
	require.Equal(t, "tiny", cfg.Files[0].Desc)
	require.Equal(t, []string{"bst", "rbtree"}, cfg.Trees)
	require.True(t, cfg.Verify)
	require.Equal(t, 2, cfg.LoadWorkers)

	v = viper.New()
	v.Set("config", filepath.Join(root, "absent.yaml"))
	_, err = loadConfig(v)
	require.Error(t, err)
}

func TestRunCmd(t *testing.T) {
	root := writeTestData(t)
	cfgPath := writeTestConfig(t, root)
	dsn := filepath.Join(t.TempDir(), "runs.db")

	out, errOut, err := execute(t, "run",
		"--config", cfgPath,
		"--store-dsn", dsn,
		"--log-encoder", "json",
		"--table",
	)
	require.NoError(t, err, errOut)
	require.Contains(t, out, "Tree Performance Analysis\n=========================\n")
	require.Contains(t, out, "\nTesting set1:\n")
	require.Contains(t, out, "\n=== Dataset: set1/data_1.txt (tiny) ===\n")
	require.Contains(t, out, "\n--- BST Results ---\n")
	require.Contains(t, out, "\n--- RB Tree Results ---\n")
	require.NotContains(t, out, "Splay Tree")
	require.Regexp(t, regexp.MustCompile(`Insert: \d+ microseconds`), out)
	require.Contains(t, out, "\nAnalysis Complete!\n")
	require.NotContains(t, out, "Invariant violations")

	runID := regexp.MustCompile(`Run: (\S+)`).FindStringSubmatch(out)
	require.Len(t, runID, 2)
	require.Contains(t, out, "Run "+runID[1])

	require.Contains(t, errOut, `"msg":"benchmark started"`)
	require.Contains(t, errOut, `"runId":"`+runID[1]+`"`)
	require.NotContains(t, out, `"msg"`)

	out, errOut, err = execute(t, "history", "--config", cfgPath, "--store-dsn", dsn)
	require.NoError(t, err, errOut)
	require.Contains(t, out, "Recent runs")
	require.Contains(t, out, runID[1])
}

func TestRunCmd_FlagsOverrideConfig(t *testing.T) {
	root := writeTestData(t)
	t.Setenv("TREEBENCH_TREES", "bst")

	out, errOut, err := execute(t, "run",
		"--config", writeTestConfig(t, root),
		"--trees", "splay",
	)
	require.NoError(t, err, errOut)
	require.Contains(t, out, "\n--- Splay Tree Results ---\n")
	require.NotContains(t, out, "--- BST Results ---")
	require.NotContains(t, out, "--- RB Tree Results ---")
}

func TestRunCmd_Invalid(t *testing.T) {
	_, _, err := execute(t, "run", "--trees", "btree")
	require.ErrorContains(t, err, "unknown tree kind")

	_, _, err = execute(t, "run", "--metrics", "statsd")
	require.ErrorContains(t, err, "unknown metrics exporter")

	_, _, err = execute(t, "history")
	require.ErrorContains(t, err, "requires --store-dsn")

	_, _, err = execute(t, "run", "extra")
	require.Error(t, err)
}
