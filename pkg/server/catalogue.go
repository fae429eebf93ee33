package server

import (
	"context"
	"os"

	"github.com/doodlesbykumbi/registrar/pkg/audit"
	"github.com/doodlesbykumbi/registrar/pkg/catalogue"
)

// TriggerCatalogue marks a cache reload that follows a catalogue load.
const TriggerCatalogue = "catalogue"

// LoadCatalogue applies the catalogue file at filename and, when it created
// identities, reloads the identity cache.
func (s *Server) LoadCatalogue(ctx context.Context, filename string) (*catalogue.Result, error) {
	res, err := loadCatalogueFile(ctx, catalogue.NewLoader(s.DB).WithValidator(s.Validate), filename)

	event := audit.CatalogueLoadEvent{File: filename, Success: err == nil}
	if err != nil {
		event.ErrorMessage = err.Error()
		audit.Log(event)
		s.Logger.Error().Err(err).Str("file", filename).Msg("catalogue load failed")
		return nil, err
	}
	event.SHA256 = res.SHA256
	for _, n := range res.Created {
		event.Created += n
	}
	audit.Log(event)
	s.Logger.Info().
		Str("file", filename).
		Interface("created", res.Created).
		Interface("existing", res.Existing).
		Msg("catalogue loaded")

	if res.Created[catalogue.KindInstructor]+res.Created[catalogue.KindStudent] > 0 {
		if err := s.ReloadCache(ctx, TriggerCatalogue, ""); err != nil {
			return res, err
		}
	}
	return res, nil
}

// WatchCatalogue loads filename now and again whenever it changes, until ctx
// is done. Load failures after the first are logged only.
func (s *Server) WatchCatalogue(ctx context.Context, filename string) error {
	if _, err := s.LoadCatalogue(ctx, filename); err != nil {
		return err
	}
	return WatchFile(ctx, s.Logger, filename, func() {
		_, _ = s.LoadCatalogue(ctx, filename)
	})
}

func loadCatalogueFile(ctx context.Context, loader *catalogue.Loader, filename string) (*catalogue.Result, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return loader.LoadFromReader(ctx, f)
}
