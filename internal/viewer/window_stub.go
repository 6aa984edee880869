//go:build !cgo

package viewer

import (
	"context"

	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/pipeline"
)

// Run reports that the window is unavailable in builds without cgo.
func Run(_ context.Context, _ *pipeline.Scene, _ Options) error {
	return errors.New(errors.ErrCodeUnsupported, "the viewer window requires cgo (build with CGO_ENABLED=1)")
}
