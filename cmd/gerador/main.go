package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"gerador/client"
	"gerador/config"
	"gerador/connect"
	"gerador/devserver"
	"gerador/gerador_cli"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const usage = `uso: gerador <comando> [flags]

comandos:
  tui        interface de terminal
  run        gera uma vez sem interface (--radical, --insumos, ...)
  devserver  backend de desenvolvimento com respostas roteirizadas

flags comuns:
  --config   caminho do gerador.yaml
  --origin   origem do backend, ex. http://localhost:8000
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1], os.Args[2:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, cmd string, args []string) int {
	cfg, err := loadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}

	switch cmd {
	case "tui":
		fs := commonFlags("tui")
		if err := fs.Parse(args); err != nil {
			return 2
		}
		if err := client.Run(ctx, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "tui: %v\n", err)
			return 1
		}
		return 0

	case "run":
		fs, opts := gerador_cli.NewFlagSet(cfg.Defaults)
		fs.AddFlagSet(commonFlags("run"))
		if err := fs.Parse(args); err != nil {
			return 2
		}
		o, err := opts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "run: %v\n", err)
			return 2
		}
		if _, err := config.InitLogger(cfg.Log, false); err != nil {
			fmt.Fprintf(os.Stderr, "log: %v\n", err)
			return 2
		}
		return gerador_cli.Run(ctx, cfg, o, os.Stdout)

	case "devserver":
		fs := commonFlags("devserver")
		fs.StringVar(&cfg.DevServer.Bind, "bind", cfg.DevServer.Bind, "listen address")
		fs.StringVar(&cfg.DevServer.OutputsDir, "outputs", cfg.DevServer.OutputsDir, "outputs directory")
		if err := fs.Parse(args); err != nil {
			return 2
		}
		if _, err := config.InitLogger(cfg.Log, false); err != nil {
			fmt.Fprintf(os.Stderr, "log: %v\n", err)
			return 2
		}
		if err := os.MkdirAll(cfg.DevServer.OutputsDir, 0o755); err != nil {
			logrus.Errorf("[devserver] outputs dir: %s", err.Error())
			return 1
		}
		s := devserver.New(cfg.DevServer, connect.OptionsFromConfig(cfg))
		if err := s.Run(ctx); err != nil {
			logrus.Errorf("[devserver] %s", err.Error())
			return 1
		}
		return 0

	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return 0
	}
	fmt.Fprintf(os.Stderr, "comando desconhecido %q\n\n%s", cmd, usage)
	return 2
}

// commonFlags declares --config and --origin so every subcommand accepts
// them; their values are read earlier by loadConfig.
func commonFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "path to gerador.yaml")
	fs.String("origin", "", "backend origin, e.g. http://localhost:8000")
	return fs
}

// loadConfig picks --config and --origin out of args before the subcommand
// flags exist, since their defaults come from the loaded config.
func loadConfig(args []string) (*config.Config, error) {
	pre := commonFlags("gerador")
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.SetOutput(io.Discard)
	if err := pre.Parse(args); err != nil && !errors.Is(err, pflag.ErrHelp) {
		return nil, errors.Wrap(err, "parse flags")
	}
	path, _ := pre.GetString("config")
	origin, _ := pre.GetString("origin")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if origin != "" {
		cfg.Client.Origin = origin
	}
	return cfg, nil
}
