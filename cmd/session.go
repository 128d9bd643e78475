package cmd

import (
	"net/http"

	"github.com/brogergvhs/mangasee/internal/config"
	"github.com/brogergvhs/mangasee/internal/mangasee"
	"github.com/brogergvhs/mangasee/internal/ui"
	"github.com/brogergvhs/mangasee/internal/util"
)

// session is everything a command needs to talk to the site.
type session struct {
	cfg    *config.Config
	log    *ui.Logger
	http   *http.Client
	site   mangasee.Site
	source *mangasee.Client
}

func newSession(opts config.Options) (*session, string, error) {
	cfg, usedPath, err := config.LoadMerged(opts)
	if err != nil {
		return nil, "", err
	}

	logSvc := ui.NewLogger(cfg.Verbose)

	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:          cfg.Timeout,
		UserAgent:        cfg.UserAgent,
		Cookie:           cfg.Cookie,
		CookieFile:       cfg.CookieFile,
		CloudflareBypass: cfg.CloudflareBypass,
		DebugLogger:      logSvc,
	})
	if err != nil {
		return nil, "", err
	}

	site := mangasee.Default()
	site.Origin = cfg.Origin

	return &session{
		cfg:  cfg,
		log:  logSvc,
		http: client,
		site: site,
		source: mangasee.NewClient(client, mangasee.Options{
			Site:    site,
			Timeout: cfg.Timeout,
			Log:     logSvc,
		}),
	}, usedPath, nil
}
