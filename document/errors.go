package document

import (
	"fmt"

	"github.com/hupe1980/bpmcore/core"
)

var (
	// ErrNotFound is returned when a document for the given container / name
	// pair does not exist. It matches core.ErrNotFound.
	ErrNotFound = fmt.Errorf("document %w", core.ErrNotFound)
)
