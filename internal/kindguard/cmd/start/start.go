// Copyright © 2025 kindguard authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

package start

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yyup/kindguard/internal/kindguard"
	"github.com/yyup/kindguard/internal/kindguard/config"
	"github.com/yyup/kindguard/pkg/logger"
)

var cfg *config.Config

// NewStartCmd creates the start command for the access-control service.
func NewStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the kindguard access-control service",
		Long:    "Start the kindguard access-control service with all necessary configurations and dependencies.",
		Version: "0.0.1",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := kindguard.NewServer()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			startupErr := make(chan error, 1)
			var wg sync.WaitGroup

			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := srv.Start(ctx); err != nil {
					startupErr <- err
				}
			}()

			select {
			case err := <-startupErr:
				logger.Logger.Error("Server startup failed", zap.Error(err))
				return err
			case <-time.After(5 * time.Second):
				logger.Logger.Info("Server started successfully",
					zap.String("port", cfg.Server.Port))
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt)
			<-quit

			logger.Logger.Info("Shutting down access-control server...")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()

			if err := srv.Stop(shutdownCtx); err != nil {
				logger.Logger.Error("Error during server shutdown", zap.Error(err))
			}

			cancel()
			wg.Wait()

			logger.Logger.Info("Server shut down successfully")
			return nil
		},
	}

	cobra.OnInitialize(initConfig)

	return cmd
}

// initConfig prepares logging and loads the service configuration.
func initConfig() {
	logger.InitLogger()
	cfg = config.GetConfig()
}
