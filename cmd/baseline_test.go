package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/mutexec/internal/domain"
	domainmocks "gooze.dev/pkg/mutexec/internal/domain/mocks"
	m "gooze.dev/pkg/mutexec/internal/model"
)

func TestBaselineCmd(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	useWorkflow(t, mockWorkflow)

	mockWorkflow.EXPECT().Baseline(mock.Anything, domain.BaselineArgs{Plan: m.Path("plans/calc.yaml")}).Return(nil)

	cmd := newTestRootCmd(newBaselineCmd())
	cmd.SetArgs([]string{"baseline", "plans/calc.yaml"})

	require.NoError(t, cmd.Execute())
}

func TestBaselineCmd_Error(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	useWorkflow(t, mockWorkflow)

	failure := errors.New("suite failed")
	mockWorkflow.EXPECT().Baseline(mock.Anything, mock.Anything).Return(failure)

	cmd := newTestRootCmd(newBaselineCmd())
	cmd.SetArgs([]string{"baseline", "plan.yaml"})

	require.ErrorIs(t, cmd.Execute(), failure)
}
