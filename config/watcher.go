package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"

	"github.com/orderflow-labs/relayer/logging"
)

const (
	configFileName = "relayer.toml"
	namedLogger    = "cfgwatcher"
)

// Watcher reloads Config from disk on every write or rename of
// relayer.toml and passes the new value to the listeners registered with
// OnConfigUpdate. Components that read Config once at startup do not see
// later reloads.
type Watcher struct {
	log  *logging.Logger
	cfg  Config
	path string

	hasChanged         int32
	cfgUpdateListeners []func(Config)
	mu                 sync.Mutex
}

// NewFromFile instantiates a watcher rooted at configDir/relayer.toml.
func NewFromFile(ctx context.Context, log *logging.Logger, configDir string) (*Watcher, error) {
	watcherLog := log.Named(namedLogger)
	watcherLog.SetLevel(logging.DebugLevel)

	w := &Watcher{
		log:                watcherLog,
		cfg:                NewDefaultConfig(),
		path:               filepath.Join(configDir, configFileName),
		cfgUpdateListeners: []func(Config){},
	}

	if err := w.load(); err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(w.path); err != nil {
		return nil, err
	}

	w.log.Info("config watcher started successfully", logging.String("config", w.path))

	go w.watch(ctx, fsWatcher)

	return w, nil
}

// Get returns the most recently loaded configuration.
func (w *Watcher) Get() Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

// OnConfigUpdate registers callbacks invoked after every successful reload.
func (w *Watcher) OnConfigUpdate(fns ...func(Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cfgUpdateListeners = append(w.cfgUpdateListeners, fns...)
}

func (w *Watcher) load() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	buf, err := os.ReadFile(w.path)
	if err != nil {
		return err
	}
	cfg := NewDefaultConfig()
	if _, err := toml.Decode(string(buf), &cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	w.cfg = cfg
	return nil
}

func (w *Watcher) watch(ctx context.Context, fsWatcher *fsnotify.Watcher) {
	defer fsWatcher.Close()
	for {
		select {
		case event := <-fsWatcher.Events:
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Rename == fsnotify.Rename {
				if event.Op&fsnotify.Rename == fsnotify.Rename {
					// editors that write-then-rename briefly leave the path
					// missing; give the rename a moment to land.
					time.Sleep(50 * time.Millisecond)
				}
				w.log.Info("configuration file changed", logging.String("event", event.Name))
				if err := w.load(); err != nil {
					w.log.Error("unable to load configuration", logging.Error(err))
					continue
				}
				if atomic.CompareAndSwapInt32(&w.hasChanged, 0, 1) {
					cfg := w.Get()
					for _, f := range w.cfgUpdateListeners {
						f(cfg)
					}
					atomic.StoreInt32(&w.hasChanged, 0)
				}
			}
		case err := <-fsWatcher.Errors:
			w.log.Error("config watcher received error event", logging.Error(err))
		case <-ctx.Done():
			return
		}
	}
}
