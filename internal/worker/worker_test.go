package worker_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/mutexec/internal/model"
	"gooze.dev/pkg/mutexec/internal/protocol"
	"gooze.dev/pkg/mutexec/internal/runner"
	"gooze.dev/pkg/mutexec/internal/runner/mocks"
	"gooze.dev/pkg/mutexec/internal/worker"
)

func encodeCommands(t *testing.T, commands ...protocol.Command) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	enc := protocol.NewEncoder(&buf)

	for _, c := range commands {
		require.NoError(t, enc.Encode(c))
	}

	return &buf
}

func decodeReplies(t *testing.T, r io.Reader) []protocol.Reply {
	t.Helper()

	dec := protocol.NewDecoder(r)

	var replies []protocol.Reply

	for {
		var reply protocol.Reply

		err := dec.Decode(&reply)
		if errors.Is(err, io.EOF) {
			return replies
		}

		require.NoError(t, err)

		replies = append(replies, reply)
	}
}

func TestServe_FullLifecycle(t *testing.T) {
	ctx := context.Background()
	testRunner := mocks.NewMockTestRunner(t)
	opts := protocol.RunOptions{Timeout: time.Second, TestFilter: []string{"TestA"}}
	expected := m.RunResult{Status: m.RunComplete, Tests: []m.TestResult{{Name: "TestA", Status: m.TestSuccess}}}

	testRunner.EXPECT().Init(mock.Anything).Return(nil)
	testRunner.EXPECT().Run(mock.Anything, opts).Return(expected, nil)
	testRunner.EXPECT().Dispose(mock.Anything).Return(nil)

	var gotStart protocol.StartPayload

	in := encodeCommands(t,
		protocol.StartCommand("fake", map[string]any{"k": "v"}, "/tmp/project"),
		protocol.InitCommand(),
		protocol.RunCommand(opts),
		protocol.DisposeCommand(),
	)

	var out bytes.Buffer

	err := worker.Serve(ctx, in, &out, func(start protocol.StartPayload) (runner.TestRunner, error) {
		gotStart = start
		return testRunner, nil
	})
	require.NoError(t, err)

	assert.Equal(t, "fake", gotStart.RunnerName)
	assert.Equal(t, "/tmp/project", gotStart.WorkDir)

	replies := decodeReplies(t, &out)
	require.Len(t, replies, 3)
	assert.Equal(t, protocol.KindInitDone, replies[0].Kind)
	assert.Empty(t, replies[0].Error)
	assert.Equal(t, protocol.KindResult, replies[1].Kind)
	require.NotNil(t, replies[1].Result)
	assert.Equal(t, expected, *replies[1].Result)
	assert.Equal(t, protocol.KindDisposeDone, replies[2].Kind)
}

func TestServe_FactoryErrorReportedOnInit(t *testing.T) {
	in := encodeCommands(t,
		protocol.StartCommand("missing", nil, "/tmp"),
		protocol.InitCommand(),
		protocol.RunCommand(protocol.RunOptions{}),
	)

	var out bytes.Buffer

	err := worker.Serve(context.Background(), in, &out, func(protocol.StartPayload) (runner.TestRunner, error) {
		return nil, errors.New("unknown runner")
	})
	require.NoError(t, err)

	replies := decodeReplies(t, &out)
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0].Error, "unknown runner")
	assert.Contains(t, replies[1].Error, "unknown runner")
	assert.Nil(t, replies[1].Result)
}

func TestServe_InitBeforeStart(t *testing.T) {
	in := encodeCommands(t, protocol.InitCommand())

	var out bytes.Buffer

	err := worker.Serve(context.Background(), in, &out, nil)
	require.NoError(t, err)

	replies := decodeReplies(t, &out)
	require.Len(t, replies, 1)
	assert.Equal(t, worker.ErrNotStarted.Error(), replies[0].Error)
}

func TestServe_RunErrorBecomesErrorResult(t *testing.T) {
	testRunner := mocks.NewMockTestRunner(t)
	testRunner.EXPECT().Init(mock.Anything).Return(nil)
	testRunner.EXPECT().Run(mock.Anything, mock.Anything).Return(m.RunResult{}, errors.New("boom"))
	testRunner.EXPECT().Dispose(mock.Anything).Return(nil)

	in := encodeCommands(t,
		protocol.StartCommand("fake", nil, "/tmp"),
		protocol.InitCommand(),
		protocol.RunCommand(protocol.RunOptions{}),
	)

	var out bytes.Buffer

	err := worker.Serve(context.Background(), in, &out, func(protocol.StartPayload) (runner.TestRunner, error) {
		return testRunner, nil
	})
	require.NoError(t, err)

	replies := decodeReplies(t, &out)
	require.Len(t, replies, 2)
	require.NotNil(t, replies[1].Result)
	assert.Equal(t, m.RunError, replies[1].Result.Status)
	assert.Equal(t, []string{"boom"}, replies[1].Result.ErrorMessages)
}

func TestServe_MalformedCommand(t *testing.T) {
	var out bytes.Buffer

	err := worker.Serve(context.Background(), bytes.NewBufferString("{nope\n"), &out, nil)
	require.Error(t, err)
	assert.Empty(t, out.Bytes())
}
