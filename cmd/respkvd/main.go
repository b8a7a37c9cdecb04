// Command respkvd runs the RESP key-value server.
package main

import (
	"fmt"
	"os"

	"github.com/ambervale/respkv/internal/respkv/server"
	"github.com/ambervale/respkv/internal/respkv/store"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		port     int
		addr     string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:           "respkvd",
		Short:         "respkvd serves a RESP-speaking in-memory key-value store",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(logLevel)
			listenAddr := fmt.Sprintf("%s:%d", addr, port)

			srv := server.New(listenAddr, store.New(), log)
			if err := srv.ListenAndServe(); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 6379, "listen port")
	cmd.Flags().StringVar(&addr, "addr", "0.0.0.0", "listen address")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.SetOutput(colorable.NewColorableStderr())
		log.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true})
	} else {
		log.SetOutput(os.Stderr)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
