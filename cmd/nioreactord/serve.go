/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nabbar/nioreactor/appconfig"
	"github.com/nabbar/nioreactor/logger"
	"github.com/nabbar/nioreactor/socket/server/tcp"
	_ "github.com/nabbar/nioreactor/socket/worker" // registers "echo"
	_ "github.com/nabbar/nioreactor/socket/worker/uppercase"
)

func newServeCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start the reactor TCP server and block until signalled",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cmd.Flags(), configFile)
			if err != nil {
				return err
			}

			log := logger.New("nioreactord", cfg.Debug, cmd.OutOrStderr())

			srv, err := tcp.New(cfg, log)
			if err != nil {
				return err
			}

			srv.RegisterFuncError(func(errs ...error) {
				for _, e := range errs {
					log.Error("server error", "error", e)
				}
			})

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			log.Info("listening", "address", cfg.Address)
			return srv.Listen(ctx)
		},
	}

	appconfig.BindFlags(cmd.Flags())
	cmd.Flags().StringVar(&configFile, "config", "", "optional YAML configuration file")

	return cmd
}
