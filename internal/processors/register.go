package processors

import (
	"git.home.luguber.info/inful/pagepipe/internal/engine"
	"git.home.luguber.info/inful/pagepipe/internal/params"
)

// RegisterDefaults registers every built-in processor on app.
func RegisterDefaults(app *engine.Application) error {
	for name, fn := range map[string]engine.Processor{
		"archive":     params.Bind(archive),
		"chain":       params.Bind(chain),
		"commonmark":  params.Bind(commonmark),
		"feed":        params.Bind(feed),
		"fingerprint": params.Bind(fingerprint),
		"frontmatter": params.Bind(frontmatterProc),
		"gitdates":    params.Bind(gitdates),
		"markdown":    params.Bind(markdown),
		"metadata":    params.Bind(metadataProc),
		"pipe":        params.Bind(pipe),
		"prettyuri":   params.Bind(prettyuri),
		"render":      params.Bind(render),
		"save":        params.Bind(save),
		"sitemap":     params.Bind(sitemap),
		"source":      params.Bind(source),
		"todatetime":  params.Bind(todatetime),
	} {
		app.AddProcessor(name, fn)
	}
	return app.AddProcessorWrapper("when", params.Bind(when))
}
