package datasource

import (
	"context"
	"regexp"
	"strings"

	"github.com/apex/log"
	"github.com/brewtap-tools/tapsync/pkg/tapconfig"
	"github.com/goreleaser/goreleaser/v2/pkg/config"
	"github.com/pkg/errors"
)

// goreleaserVarMap translates GoReleaser template fields to the
// interpolation variables used in asset templates.
var goreleaserVarMap = map[string]string{
	"ProjectName": "${NAME}",
	"Binary":      "${NAME}",
	"Version":     "${VERSION}",
	"Tag":         "${TAG}",
	"Os":          "${OS}",
	"Arch":        "${ARCH}",
}

var goreleaserFieldRe = regexp.MustCompile(`\{\{\s*\.(\w+)\s*\}\}`)

// GoReleaserAdapter derives a formula declaration from a project's
// .goreleaser.yml, so the tap config matches how the upstream actually
// names its release archives.
type GoReleaserAdapter struct {
	repo         string
	filePath     string
	nameOverride string
}

// NewGoReleaserAdapter creates an adapter reading the GoReleaser config
// at filePath. repo is the upstream "owner/name" the formula tracks.
func NewGoReleaserAdapter(repo, filePath, nameOverride string) *GoReleaserAdapter {
	return &GoReleaserAdapter{repo: repo, filePath: filePath, nameOverride: nameOverride}
}

// GenerateFormula implements SourceAdapter.
func (a *GoReleaserAdapter) GenerateFormula(_ context.Context) (*tapconfig.Formula, error) {
	project, err := config.Load(a.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load GoReleaser config %s", a.filePath)
	}

	name := a.nameOverride
	if name == "" {
		name = project.ProjectName
	}
	if name == "" && a.repo != "" {
		parts := strings.SplitN(a.repo, "/", 2)
		name = parts[len(parts)-1]
	}
	if name == "" {
		return nil, errors.New("could not determine formula name from GoReleaser config")
	}

	template := defaultArchiveTemplate
	if len(project.Archives) > 0 && project.Archives[0].NameTemplate != "" {
		template = translateTemplate(project.Archives[0].NameTemplate)
	}
	if !strings.HasSuffix(template, ".tar.gz") && !strings.HasSuffix(template, ".zip") {
		template += ".tar.gz"
	}
	log.Debugf("derived asset template: %s", template)

	return &tapconfig.Formula{
		Name:          name,
		Repo:          a.repo,
		AssetTemplate: template,
	}, nil
}

// defaultArchiveTemplate mirrors GoReleaser's default archive
// name_template.
const defaultArchiveTemplate = "${NAME}_${VERSION}_${OS}_${ARCH}"

// translateTemplate rewrites GoReleaser {{ .Field }} references into
// interpolation variables. Unknown fields and template pipelines are
// dropped; the result is a best-effort seed the user can adjust.
func translateTemplate(t string) string {
	return goreleaserFieldRe.ReplaceAllStringFunc(t, func(m string) string {
		field := goreleaserFieldRe.FindStringSubmatch(m)[1]
		if v, ok := goreleaserVarMap[field]; ok {
			return v
		}
		log.Warnf("dropping unsupported GoReleaser template field .%s", field)
		return ""
	})
}
