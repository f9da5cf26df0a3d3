package client

import (
	"context"

	"gerador/api"
	"gerador/config"
	"gerador/connect"
	"gerador/session"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"
)

// Run starts the terminal UI against the configured origin and blocks until
// the user quits. Logs go to the configured file so the screen stays clean.
func Run(ctx context.Context, cfg *config.Config) error {
	closer, err := config.InitLogger(cfg.Log, true)
	if err != nil {
		return err
	}
	defer closer.Close()

	backend, err := api.NewClient(cfg.Client.Origin, cfg.Client.RequestTimeout)
	if err != nil {
		return err
	}
	wsURL, err := connect.WebsocketURL(cfg.Client.Origin)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tea.Msg, 256)
	mgr := connect.NewManager(wsURL, Hooks(ctx, events), connect.OptionsFromConfig(cfg), metrics.DefaultRegistry)
	ctrl := session.New(mgr, backend, backend, metrics.DefaultRegistry)

	logrus.Infof("[tui] start origin=%s ws=%s", backend.Origin(), mgr.URL())
	mgr.Start(ctx)
	defer mgr.Close()

	p := tea.NewProgram(newModel(ctx, ctrl, backend, events, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "run terminal ui")
	}
	logrus.Info("[tui] exit")
	return nil
}
