package pipexec_test

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"syscall"
	"testing"

	"github.com/edirooss/pipexec"
	"github.com/stretchr/testify/require"
)

var (
	trueBin  string
	falseBin string
	echoBin  string
	catBin   string
	trBin    string
	ddBin    string
)

func TestMain(m *testing.M) {
	for _, bin := range []struct {
		name string
		dst  *string
	}{
		{"true", &trueBin},
		{"false", &falseBin},
		{"echo", &echoBin},
		{"cat", &catBin},
		{"tr", &trBin},
		{"dd", &ddBin},
	} {
		path, err := exec.LookPath(bin.name)
		if err != nil {
			panic("pipexec_test: cannot resolve " + bin.name + ": " + err.Error())
		}
		*bin.dst = path
	}
	os.Exit(m.Run())
}

// openFDCount reports the number of open fds for the current process, for
// the no-leak property.
func openFDCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	require.NoError(t, err)
	return len(entries)
}

// Seed scenario 1: execute(true) returns (b"", b""), no raise.
func TestExecute_True(t *testing.T) {
	out, errb, err := pipexec.Execute([]string{trueBin})
	require.NoError(t, err)
	require.Empty(t, out)
	require.Empty(t, errb)
}

// Seed scenario 2: execute(echo, "success", stdout=Data(b"")) -> out == "success\n".
func TestExecute_Echo(t *testing.T) {
	out, _, err := pipexec.Execute([]string{echoBin, "success"}, pipexec.Stdout(pipexec.Data(nil)))
	require.NoError(t, err)
	require.Equal(t, "success\n", string(out))
}

// Seed scenario 3: execute(cat, stdin=Data(b"success"), stdout=Data(b"")) -> out == "success".
func TestExecute_CatEchoesStdin(t *testing.T) {
	out, _, err := pipexec.Execute([]string{catBin},
		pipexec.Stdin(pipexec.Data([]byte("success"))),
		pipexec.Stdout(pipexec.Data(nil)),
	)
	require.NoError(t, err)
	require.Equal(t, "success", string(out))
}

// Seed scenario 4: execute(false) raises ChildProcessFailure.
func TestExecute_FalseFails(t *testing.T) {
	_, _, err := pipexec.Execute([]string{falseBin})
	require.Error(t, err)
	var failure *pipexec.ChildProcessFailure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, 1, failure.Status)
}

// Seed scenario 5: execute(cat, "/does/not/exist") with default stderr
// raises ChildProcessFailure whose message mentions the missing file.
func TestExecute_CatMissingFile(t *testing.T) {
	_, _, err := pipexec.Execute([]string{catBin, "/does/not/exist"})
	require.Error(t, err)
	var failure *pipexec.ChildProcessFailure
	require.ErrorAs(t, err, &failure)
	require.Contains(t, failure.Error(), "No such file or directory")
}

// Seed scenario 6: a 3-stage pipeline via echo | tr | tr reassembles "success\n".
func TestPipeline_EchoTrTr(t *testing.T) {
	pipeline := pipexec.New(
		pipexec.Command{echoBin, "suaaerr"},
		pipexec.Command{trBin, "a", "c"},
		pipexec.Command{trBin, "r", "s"},
	)
	out, _, err := pipeline.Run(pipexec.Stdout(pipexec.Data(nil)))
	require.NoError(t, err)
	require.Equal(t, "success\n", string(out))
}

// Seed scenario 7: [echo, cat /nope, false] raises and the message names
// cat, the first failure, not false.
func TestPipeline_FailureFirst(t *testing.T) {
	pipeline := pipexec.New(
		pipexec.Command{echoBin, "t"},
		pipexec.Command{catBin, "/nope"},
		pipexec.Command{falseBin},
	)
	_, _, err := pipeline.Run(pipexec.Stderr(pipexec.Data(nil)))
	require.Error(t, err)
	var failure *pipexec.ChildProcessFailure
	require.ErrorAs(t, err, &failure)
	require.Contains(t, failure.Command, "cat")
	require.NotContains(t, failure.Command, falseBin)
}

// Seed scenario 8: 8 MiB through a 3-stage dd pipeline, no deadlock.
func TestPipeline_ScaleDD(t *testing.T) {
	const size = 8 * 1024 * 1024
	data := bytes.Repeat([]byte{'a'}, size)

	pipeline := pipexec.New(
		pipexec.Command{ddBin},
		pipexec.Command{ddBin},
		pipexec.Command{ddBin},
	)
	out, _, err := pipeline.Run(
		pipexec.Stdin(pipexec.Data(data)),
		pipexec.Stdout(pipexec.Data(nil)),
	)
	require.NoError(t, err)
	require.Len(t, out, size)
}

// Invariant 2 (scale): a 24 MiB round-trip across a 3-stage cat pipeline.
func TestPipeline_RoundTrip24MiB(t *testing.T) {
	const size = 24 * 1024 * 1024
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}

	pipeline := pipexec.New(
		pipexec.Command{catBin},
		pipexec.Command{catBin},
		pipexec.Command{catBin},
	)
	out, _, err := pipeline.Run(
		pipexec.Stdin(pipexec.Data(data)),
		pipexec.Stdout(pipexec.Data(nil)),
	)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, out))
}

// Invariant 7 / testable property: default stderr is captured.
func TestExecute_DefaultStderrCaptured(t *testing.T) {
	_, _, err := pipexec.Execute([]string{catBin, "/does/not/exist"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "No such file or directory")
}

// Invariant 5 / no-zombie: every spawned pid is reaped, regardless of
// success or failure.
func TestPipeline_NoZombie(t *testing.T) {
	for _, fails := range []bool{false, true} {
		bin := trueBin
		if fails {
			bin = falseBin
		}
		_, _, _ = pipexec.Execute([]string{bin})
	}

	var ws syscall.WaitStatus
	pid, err := syscall.Wait4(-1, &ws, syscall.WNOHANG, nil)
	require.True(t, err == syscall.ECHILD || pid <= 0)
}

// Invariant 4 / no-leak: repeated invocations do not change the parent's
// open-fd count.
func TestPipeline_NoLeak(t *testing.T) {
	before := openFDCount(t)

	for i := 0; i < 200; i++ {
		_, _, _ = pipexec.Execute([]string{echoBin, "x"}, pipexec.Stdout(pipexec.Data(nil)))
		_, _, _ = pipexec.Execute([]string{falseBin})
	}

	after := openFDCount(t)
	require.Equal(t, before, after)
}

// Empty pipelines and empty commands are rejected rather than panicking or
// forking nothing silently.
func TestRun_RejectsEmpty(t *testing.T) {
	_, _, err := pipexec.Pipeline{}.Run()
	require.Error(t, err)

	_, _, err = pipexec.Pipeline{{}}.Run()
	require.Error(t, err)
}

// ExecuteAndRead returns only the captured stdout.
func TestExecuteAndRead(t *testing.T) {
	out, err := pipexec.ExecuteAndRead([]string{echoBin, "hi"})
	require.NoError(t, err)
	require.Equal(t, "hi\n", string(out))
}

// errors.Is unwraps a SystemError's underlying syscall error.
func TestSystemError_Unwraps(t *testing.T) {
	wrapped := &pipexec.SystemError{Op: "pipe2", Err: syscall.EMFILE}
	require.True(t, errors.Is(wrapped, syscall.EMFILE))
}
