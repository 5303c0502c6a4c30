package sandbox

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/bytedance/sonic"

	"gooze.dev/pkg/mutexec/internal/adapter"
	m "gooze.dev/pkg/mutexec/internal/model"
)

// SelectionFileName is the fragment written by FileSelector.
const SelectionFileName = ".mutexec-tests.json"

// TestSelector writes a "run only these tests" fragment into a sandbox for
// runners that read their selection from disk.
type TestSelector interface {
	Write(fs adapter.SourceFSAdapter, workDir m.Path, testIDs []string) error
	Clear(fs adapter.SourceFSAdapter, workDir m.Path) error
}

// FileSelector stores the selection as a JSON array in SelectionFileName.
type FileSelector struct{}

// Write stores testIDs.
func (FileSelector) Write(fs adapter.SourceFSAdapter, workDir m.Path, testIDs []string) error {
	if testIDs == nil {
		testIDs = []string{}
	}

	data, err := sonic.Marshal(testIDs)
	if err != nil {
		return err
	}

	return fs.WriteFile(selectionPath(workDir), data)
}

// Clear removes the fragment.
func (FileSelector) Clear(fsa adapter.SourceFSAdapter, workDir m.Path) error {
	err := fsa.RemoveAll(selectionPath(workDir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

func selectionPath(workDir m.Path) m.Path {
	return m.Path(filepath.Join(string(workDir), SelectionFileName))
}
