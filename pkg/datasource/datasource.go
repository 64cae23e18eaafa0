package datasource

import (
	"context"

	"github.com/brewtap-tools/tapsync/pkg/tapconfig"
)

// SourceAdapter generates a formula declaration from an external
// source, like a GoReleaser config file or the repository's own release
// assets.
type SourceAdapter interface {
	// GenerateFormula generates a formula declaration using the
	// context provided at construction.
	GenerateFormula(ctx context.Context) (*tapconfig.Formula, error)
}
