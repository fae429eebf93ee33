package server

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/doodlesbykumbi/registrar/pkg/audit"
	"github.com/doodlesbykumbi/registrar/pkg/entity"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
)

// Cache reload triggers
const (
	TriggerStartup = "startup"
	TriggerAPI     = "api"
	TriggerFile    = "file"
)

// ReloadCache rebuilds the identity cache from the store. userID names the
// requesting administrator and is empty for startup and file triggers. A
// failed reload leaves the previous cache contents in place.
func (s *Server) ReloadCache(ctx context.Context, trigger, userID string) error {
	unlock := entity.LockIdentities()
	err := s.Cache.Reload(ctx, s.IdentityStore)
	count := s.Cache.Count(identity.RoleAny)
	unlock()

	event := audit.CacheReloadEvent{
		UserID:     userID,
		Trigger:    trigger,
		Identities: count,
		Success:    err == nil,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
		audit.Log(event)
		s.Logger.Error().Err(err).Str("trigger", trigger).Msg("identity cache reload failed")
		return fmt.Errorf("failed to reload identity cache: %w", err)
	}
	audit.Log(event)
	s.Logger.Info().Str("trigger", trigger).Int("identities", count).Msg("identity cache reloaded")
	return nil
}

// WatchReloadTrigger reloads the identity cache whenever filename is written
// or recreated, until ctx is done. The file must exist.
func (s *Server) WatchReloadTrigger(ctx context.Context, filename string) error {
	return WatchFile(ctx, s.Logger, filename, func() {
		_ = s.ReloadCache(ctx, TriggerFile, "")
	})
}

// WatchFile calls onChange each time filename is written or created, until
// ctx is done. The file must exist when the watch starts.
func WatchFile(ctx context.Context, logger zerolog.Logger, filename string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filename); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch file %s: %w", filename, err)
	}
	logger.Info().Str("file", filename).Msg("watching for changes")

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
					logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("file changed")
					onChange()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn().Err(err).Str("file", filename).Msg("watcher error")
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
