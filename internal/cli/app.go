package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/logging"
	"github.com/mesh-intelligence/pantry/internal/metrics"
	"github.com/mesh-intelligence/pantry/internal/paths"
	"github.com/mesh-intelligence/pantry/internal/session"
	"github.com/mesh-intelligence/pantry/internal/sqlite"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// app carries the state of one command invocation.
type app struct {
	flags rootFlags

	configDir string
	config    types.Config
	log       *logrus.Logger
	metrics   *metrics.Recorder
	backend   *sqlite.Backend
	session   *session.Session
}

// attach resolves directories, loads the configuration and attaches the
// backend. Safe to call more than once per invocation.
func (a *app) attach(cmd *cobra.Command) error {
	if a.backend != nil {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = dataDir
	if a.flags.logLevel != "" {
		cfg.LogLevel = a.flags.logLevel
	}

	a.configDir = configDir
	a.config = cfg
	a.log = logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	a.metrics = metrics.New()

	backend := sqlite.NewBackend(sqlite.WithLogger(a.log), sqlite.WithMetrics(a.metrics))
	if err := backend.Attach(cmd.Context(), cfg); err != nil {
		return fmt.Errorf("attach pantry: %w", err)
	}
	a.backend = backend
	a.session = session.New(backend.Store())
	a.log.WithFields(logrus.Fields{
		"config_dir": configDir,
		"data_dir":   dataDir,
	}).Debug("pantry ready")
	return nil
}

// run wraps a command body so that it runs against an attached backend that
// is detached afterwards, whatever the outcome.
func (a *app) run(fn func(ctx context.Context, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		if err := a.attach(cmd); err != nil {
			return err
		}
		defer func() {
			if cerr := a.close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		return fn(cmd.Context(), cmd, args)
	}
}

func (a *app) close() error {
	if a.backend == nil {
		return nil
	}
	err := a.backend.Detach()
	a.backend = nil
	a.session = nil
	return err
}

// currentUser returns --user when given, otherwise the active user.
func (a *app) currentUser(ctx context.Context) (int64, error) {
	if a.flags.userID != 0 {
		return a.flags.userID, nil
	}
	id, ok, err := a.session.ActiveUser(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, usagef("no active user; run 'pantry user use <id>' or pass --user")
	}
	return id, nil
}

// emit writes v as indented JSON in --json mode, otherwise calls text.
func (a *app) emit(w io.Writer, v any, text func(io.Writer)) error {
	if a.flags.jsonMode {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	}
	text(w)
	return nil
}

// created reports the id of a new entity.
func (a *app) created(w io.Writer, kind string, id int64) error {
	return a.emit(w, map[string]int64{"id": id}, func(w io.Writer) {
		fmt.Fprintf(w, "Created %s %d\n", kind, id)
	})
}

// done reports a mutation without a result.
func (a *app) done(w io.Writer, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return a.emit(w, map[string]string{"status": "ok", "message": msg}, func(w io.Writer) {
		fmt.Fprintln(w, msg)
	})
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("invalid %s id %q", kind, s)
	}
	return id, nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
