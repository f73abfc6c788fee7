package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/chi32/internal/debug"
	chierrors "github.com/standardbeagle/chi32/internal/errors"
	"github.com/standardbeagle/chi32/internal/strategy"
)

const testManifest = `
[[definition]]
name = "short_sequential"
strategy = "sequential"
seed = 42
phase = 2147450880
length = 64

[[definition]]
name = "short_swapped"
strategy = "swapped"
seed = -42
phase = 32767
length = 32

[[definition]]
name = "short_feedback"
strategy = "feedback"
seed = 0
phase = 0
length = 32
`

// runCLI runs the app in-process with a config path that does not exist,
// so every test starts from the built-in defaults
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLIWithConfig(t, filepath.Join(t.TempDir(), "absent.kdl"), args...)
}

func runCLIWithConfig(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	argv := append([]string{"chi32", "--config", configPath}, args...)
	err := newApp(&stdout, &stderr).RunContext(context.Background(), argv)
	return stdout.String(), stderr.String(), err
}

func generateVectors(t *testing.T, dir string) {
	t.Helper()
	manifest := filepath.Join(t.TempDir(), "definitions.toml")
	require.NoError(t, os.WriteFile(manifest, []byte(testManifest), 0o644))

	out, _, err := runCLI(t, "generate", "--out", dir, "--definitions", manifest)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 3 canonical cases to "+dir)
}

func requireArgumentError(t *testing.T, err error, argument string) {
	t.Helper()
	require.Error(t, err)
	var argErr *chierrors.ArgumentError
	require.True(t, errors.As(err, &argErr), "expected ArgumentError, got %T: %v", err, err)
	assert.Equal(t, argument, argErr.Argument)
}

func TestDerive(t *testing.T) {
	out, _, err := runCLI(t, "derive", "42", "2147450880")
	require.NoError(t, err)
	assert.Contains(t, out, "0x000000000000002A 0x000000007FFF8000 0x63A5EF7D 1671819133  1671819133")
}

func TestDerive_CountAndSignedOutput(t *testing.T) {
	out, _, err := runCLI(t, "derive", "--count", "6", "0x2A", "2147450880")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[2], "0x773B4D48")
	assert.Contains(t, lines[6], "0xD5F1EFF2 3589402610  -705564686")
}

func TestDerive_InvalidArguments(t *testing.T) {
	_, _, err := runCLI(t, "derive", "42")
	requireArgumentError(t, err, "arguments")
	assert.Contains(t, err.Error(), "usage: chi32 derive <selector> <index>")

	_, _, err = runCLI(t, "derive", "0xZZ", "0")
	requireArgumentError(t, err, "selector")

	_, _, err = runCLI(t, "derive", "0", "18446744073709551615")
	requireArgumentError(t, err, "index")

	_, _, err = runCLI(t, "derive", "--count", "0", "0", "0")
	requireArgumentError(t, err, "count")
}

func TestGenerateAndVerify(t *testing.T) {
	dir := t.TempDir()
	generateVectors(t, dir)

	for _, name := range []string{"short_sequential.bin", "short_swapped.bin", "short_feedback.bin", "chi32_canonical_meta.csv"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	out, _, err := runCLI(t, "verify", "--meta", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "3 passed, 0 failed, 0 skipped")
	assert.Contains(t, out, "All CHI32 canonical tests PASSED.")
}

func TestGenerate_DefaultDefinitions(t *testing.T) {
	dir := t.TempDir()
	out, _, err := runCLI(t, "generate", "-o", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "chi32_sequential")

	info, err := os.Stat(filepath.Join(dir, "chi32_feedback.bin"))
	require.NoError(t, err)
	assert.Equal(t, int64(65535*4), info.Size())
}

func TestVerify_CorruptedVectorFails(t *testing.T) {
	dir := t.TempDir()
	generateVectors(t, dir)

	path := filepath.Join(dir, "short_sequential.bin")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[8] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out, _, err := runCLI(t, "verify", "--meta", dir, "--max-mismatches", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 metadata tables failed verification")
	assert.Contains(t, out, "MISMATCH (Sequential) at position 2")
	assert.Contains(t, out, "One or more CHI32 canonical tests FAILED.")
}

func TestVerify_MissingVectorIsSkippedAndFails(t *testing.T) {
	dir := t.TempDir()
	generateVectors(t, dir)
	require.NoError(t, os.Remove(filepath.Join(dir, "short_swapped.bin")))

	out, _, err := runCLI(t, "verify", "--meta", filepath.Join(dir, "chi32_canonical_meta.csv"))
	require.Error(t, err)
	assert.Contains(t, out, "2 passed, 0 failed, 1 skipped")
}

func TestVerify_GlobAcrossDirectories(t *testing.T) {
	root := t.TempDir()
	generateVectors(t, filepath.Join(root, "a"))
	generateVectors(t, filepath.Join(root, "nested", "b"))

	out, _, err := runCLI(t, "verify", "--json", "--meta", filepath.Join(root, "**", "chi32_canonical_meta.csv"))
	require.NoError(t, err)

	var reports []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	assert.Len(t, reports, 2)
}

func TestVerify_NegativeMaxMismatches(t *testing.T) {
	_, _, err := runCLI(t, "verify", "--max-mismatches", "-1")
	requireArgumentError(t, err, "max-mismatches")
}

func TestVerify_NoMetadata(t *testing.T) {
	_, _, err := runCLI(t, "verify", "--meta", filepath.Join(t.TempDir(), "**", "*.csv"))
	assert.Error(t, err)
}

func TestVerify_UsesConfiguredDataDir(t *testing.T) {
	root := t.TempDir()
	generateVectors(t, filepath.Join(root, "vectors"))

	configPath := filepath.Join(root, ".chi32.kdl")
	require.NoError(t, os.WriteFile(configPath, []byte("canonical {\n    data_dir \"vectors\"\n}\n"), 0o644))

	out, _, err := runCLIWithConfig(t, configPath, "verify")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(root, "vectors", "chi32_canonical_meta.csv"))
}

func TestStream_BoundedCount(t *testing.T) {
	out, _, err := runCLI(t, "stream", "--seed", "42", "--phase", "0x7FFF8000", "--count", "100", "--buffer-size", "40")
	require.NoError(t, err)
	require.Len(t, out, 400)

	expected := make([]uint32, 100)
	strategy.NewSource(strategy.Sequential, 42, 2147450880).Fill(expected)
	raw := []byte(out)
	for i, want := range expected {
		assert.Equal(t, want, binary.LittleEndian.Uint32(raw[i*4:]), "value %d", i)
	}
}

func TestStream_Strategies(t *testing.T) {
	out, _, err := runCLI(t, "stream", "--seed=-42", "--phase", "32767", "--strategy", "swapped", "--count", "1")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x13ad5f9a), binary.LittleEndian.Uint32([]byte(out)))

	out, _, err = runCLI(t, "stream", "--seed", "0", "--strategy", "Feedback", "--count", "2")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x988827a9), binary.LittleEndian.Uint32([]byte(out)[4:]))
}

func TestStream_InvalidArguments(t *testing.T) {
	_, _, err := runCLI(t, "stream", "--count", "1")
	assert.Error(t, err)

	_, _, err = runCLI(t, "stream", "--seed", "1", "--strategy", "feedbak", "--count", "1")
	requireArgumentError(t, err, "strategy")
	assert.Contains(t, err.Error(), "feedback")

	_, _, err = runCLI(t, "stream", "--seed", "18446744073709551615", "--count", "1")
	requireArgumentError(t, err, "seed")
}

func TestBattery_Tiny(t *testing.T) {
	out, _, err := runCLI(t, "battery", "tiny", "0x6A09E667F3BCC908", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Summary results of Tiny")
	assert.Contains(t, out, "Seed=0x6A09E667F3BCC908")
	assert.Contains(t, out, "All tests were passed")
}

func TestBattery_StrategyArgument(t *testing.T) {
	out, _, err := runCLI(t, "battery", "--json", "Tiny", "0", "0", "feedback")
	require.NoError(t, err)

	var report struct {
		Generator string `json:"generator"`
		Battery   string `json:"battery"`
		Results   []struct {
			Verdict string `json:"verdict"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "Tiny", report.Battery)
	assert.Contains(t, report.Generator, "Strategy=feedback")
	assert.Len(t, report.Results, 6)
}

func TestBattery_ConfiguredDefault(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ".chi32.kdl")
	require.NoError(t, os.WriteFile(configPath, []byte("battery {\n    default \"tiny\"\n    workers 2\n}\n"), 0o644))

	out, _, err := runCLIWithConfig(t, configPath, "battery", "42", "2147450880")
	require.NoError(t, err)
	assert.Contains(t, out, "Summary results of Tiny")
}

func TestBattery_UsageErrors(t *testing.T) {
	_, _, err := runCLI(t, "battery", "Tiny")
	requireArgumentError(t, err, "arguments")
	assert.Contains(t, err.Error(), "<Battery> <seed> <phase> [strategy]")

	_, _, err = runCLI(t, "battery", "Tiny", "1", "2", "sequential", "extra")
	requireArgumentError(t, err, "arguments")

	_, _, err = runCLI(t, "battery", "SmalCrush", "1", "2")
	requireArgumentError(t, err, "battery")
	assert.Contains(t, err.Error(), `did you mean "SmallCrush"?`)

	_, _, err = runCLI(t, "battery", "Tiny", "nope", "2")
	requireArgumentError(t, err, "seed")

	_, _, err = runCLI(t, "battery", "Tiny", "1", "18446744073709551615")
	requireArgumentError(t, err, "phase")
}

func TestWalk(t *testing.T) {
	dir := t.TempDir()
	out, _, err := runCLI(t, "walk", "--steps", "2000", "--scale-shift", "0", "--generators", "chi32,pcg32", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "chi32")
	assert.Contains(t, out, "pcg32")
	assert.FileExists(t, filepath.Join(dir, "chi32_walker.png"))
	assert.FileExists(t, filepath.Join(dir, "pcg32_walker.png"))
	assert.NoFileExists(t, filepath.Join(dir, "lcg64_walker.png"))
}

func TestWalk_JSON(t *testing.T) {
	out, _, err := runCLI(t, "walk", "--json", "--steps", "500", "--seed", "7", "--generators", "lcg64", "--out", t.TempDir())
	require.NoError(t, err)

	var summaries []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "lcg64", summaries[0]["name"])
	assert.EqualValues(t, 500, summaries[0]["steps"])
}

func TestWalk_InvalidArguments(t *testing.T) {
	_, _, err := runCLI(t, "walk", "--steps", "0")
	requireArgumentError(t, err, "steps")

	_, _, err = runCLI(t, "walk", "--steps", "10", "--scale-shift", "31")
	requireArgumentError(t, err, "scale-shift")

	_, _, err = runCLI(t, "walk", "--steps", "10", "--generators", "mt19937", "--out", t.TempDir())
	requireArgumentError(t, err, "generator")
}

func TestVersion(t *testing.T) {
	out, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "CHI32 ")
	assert.Contains(t, out, "Build ID: ")
}

func TestVerbose_WritesDebugToStderr(t *testing.T) {
	t.Cleanup(func() {
		debug.SetVerbose(false)
		debug.SetDebugOutput(nil)
	})

	dir := t.TempDir()
	generateVectors(t, dir)

	_, stderr, err := runCLI(t, "--verbose", "verify", "--meta", dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "[DEBUG:CANON]")
}

func TestInvalidConfigFails(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ".chi32.kdl")
	require.NoError(t, os.WriteFile(configPath, []byte("walker {\n    scale_shift 40\n}\n"), 0o644))

	_, _, err := runCLIWithConfig(t, configPath, "walk", "--steps", "10")
	require.Error(t, err)
	var cfgErr *chierrors.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestRun_ExitCodes(t *testing.T) {
	configArgs := []string{"chi32", "--config", filepath.Join(t.TempDir(), "absent.kdl")}

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append(configArgs, "derive", "0", "0"), &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Empty(t, stderr.String())

	stdout.Reset()
	code = run(context.Background(), append(configArgs, "derive", "0"), &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error: invalid arguments argument")
	assert.NotContains(t, stderr.String(), "[FATAL]")
}

func TestRun_VerboseRecordsFatalError(t *testing.T) {
	t.Cleanup(func() {
		debug.SetVerbose(false)
		debug.SetDebugOutput(nil)
	})

	var stdout, stderr bytes.Buffer
	args := []string{"chi32", "--config", filepath.Join(t.TempDir(), "absent.kdl"), "--verbose", "battery", "Tiny"}
	code := run(context.Background(), args, &stdout, &stderr)
	assert.Equal(t, 1, code)

	out := stderr.String()
	assert.Contains(t, out, "[DEBUG] CHI32 ")
	assert.Contains(t, out, "[FATAL] --config ")
	assert.Contains(t, out, "--verbose battery Tiny: invalid arguments argument")
	assert.Contains(t, out, "Error: invalid arguments argument")
}
