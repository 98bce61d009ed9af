package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/soyeahso/hookmount/internal/builtin"
	"github.com/soyeahso/hookmount/internal/bus"
	"github.com/soyeahso/hookmount/internal/config"
	"github.com/soyeahso/hookmount/internal/hook"
	"github.com/soyeahso/hookmount/internal/logging"
	"github.com/soyeahso/hookmount/internal/manifest"
	"github.com/soyeahso/hookmount/internal/script"
	"github.com/soyeahso/hookmount/internal/store"
)

// session is one command's hook environment: a bus with its mounter and
// binder, the Lua runtime, and optionally the store.
type session struct {
	bus      *bus.Bus
	mounter  *hook.Mounter
	binder   *hook.Binder
	scripts  *script.Runtime
	db       *store.DB
	journal  *store.Journal
	recorder *builtin.Recorder
	log      *logging.Logger
}

type sessionOptions struct {
	withStore bool
	record    bool
}

func openSession(cfg config.Config, out io.Writer, log *logging.Logger, opts sessionOptions) (*session, error) {
	catalog, err := builtin.Catalog(out)
	if err != nil {
		return nil, err
	}

	b := bus.New(log)
	registry := hook.NewRegistry()
	scripts := script.New(cfg.Hooks.ScriptsDir, log)
	s := &session{
		bus: b,
		mounter: hook.NewMounter(b,
			hook.WithLogger(log),
			hook.WithRegistry(registry),
			hook.WithLoader(scripts),
			hook.WithDefaultPriority(cfg.Hooks.DefaultPriority),
		),
		binder: hook.NewBinder(b,
			hook.WithLogger(log),
			hook.WithRegistry(registry),
			hook.WithCatalog(catalog),
		),
		scripts: scripts,
		log:     log,
	}

	if !opts.withStore && !opts.record {
		return s, nil
	}

	s.db, err = store.Open(cfg.Store.Path, log, store.WithTablePrefix(cfg.Store.TablePrefix))
	if err != nil {
		s.close()
		return nil, err
	}
	s.journal = store.NewJournal(s.db)

	delegate := store.NewDelegate(s.db)
	if err := scripts.Register("db", func(args ...any) (any, error) {
		if len(args) == 0 {
			return nil, errors.New("db: missing member name")
		}
		name, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("db: member name must be a string, got %T", args[0])
		}
		return delegate.Call(name, args[1:]...)
	}); err != nil {
		s.close()
		return nil, err
	}

	if opts.record {
		s.recorder = builtin.NewRecorder(s.journal, b.Count)
		if _, err := builtin.MountRecorder(s.mounter, s.recorder); err != nil {
			s.close()
			return nil, err
		}
	}
	return s, nil
}

// apply mounts the manifest at path. A missing default manifest is not an
// error; an explicitly named one is.
func (s *session) apply(path string, explicit bool, defaultPriority int) (*manifest.Manifest, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			s.log.Debug().Str("path", path).Msg("no manifest")
			return nil, nil
		}
		return nil, err
	}

	m, err := manifest.Load(path, defaultPriority)
	if err != nil {
		return nil, err
	}
	keys, err := m.Apply(s.mounter, s.binder, s.scripts, s.scripts.Func)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("path", path).Int("hooks", len(keys)).Int("bindings", len(m.Bindings)).Int("mounts", len(m.Mounts)).Msg("manifest applied")
	return m, nil
}

// complete journals the outcome of a firing when firings are recorded.
func (s *session) complete(hook string, handlers int, fireErr error) error {
	if s.recorder == nil {
		return nil
	}
	return s.recorder.Complete(hook, handlers, fireErr)
}

func (s *session) close() {
	s.scripts.Close()
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Warn().Err(err).Msg("closing store")
		}
	}
}
