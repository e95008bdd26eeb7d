package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"game-reports/report-desk/internal/database"
	"game-reports/report-desk/internal/notifications"
	"game-reports/report-desk/internal/notifications/websocket"
	"game-reports/report-desk/internal/reports"
	"game-reports/report-desk/internal/reports/export"
	"game-reports/report-desk/internal/reports/scheduler"
	"game-reports/report-desk/internal/tui"
)

// =====================================================
// tui
// =====================================================

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{logToFile: true})
			if err != nil {
				return err
			}
			defer a.close()

			toasts := notifications.NewManager(a.cfg.Notifications, a.logger)
			model := tui.NewModel(ctx, a.engine(toasts), a.service, toasts, a.exporter,
				tui.Options{OutputDir: a.cfg.Export.OutputDir}, a.logger)
			return tui.Run(model)
		},
	}
}

// =====================================================
// serve
// =====================================================

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the report over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			sockets := websocket.NewManager(a.logger)
			defer sockets.Close()

			toasts := notifications.NewManager(a.cfg.Notifications, a.logger)
			toasts.Subscribe(sockets.PublishNotification)
			go expireLoop(ctx, toasts)

			engine := a.engine(toasts)
			controller := reports.NewController(engine, a.service, reports.NewSnapshotPresenter(), toasts, a.logger)
			if err := controller.Initialize(ctx); err != nil {
				a.logger.Warn("Serving without initial data", zap.Error(err))
			}
			handler := reports.NewHandler(controller, a.service, a.exporter, sockets, a.logger)

			if a.cfg.Export.Schedule != "" {
				executor, err := a.snapshotExecutor(engine)
				if err != nil {
					return err
				}
				snapshots := scheduler.NewSnapshotScheduler(executor, a.logger)
				if err := snapshots.Schedule(a.cfg.Export.Schedule); err != nil {
					return err
				}
				if err := snapshots.Start(); err != nil {
					return err
				}
				defer snapshots.Stop()
			}

			gin.SetMode(gin.ReleaseMode)
			router := gin.New()
			router.Use(gin.Recovery(), requestLogger(a.logger))

			// CORS Middleware
			router.Use(func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control")
				c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				if c.Request.Method == http.MethodOptions {
					c.AbortWithStatus(http.StatusNoContent)
					return
				}
				c.Next()
			})

			api := router.Group("/api/v1")
			{
				handler.RegisterRoutes(api)
			}

			router.GET("/health", func(c *gin.Context) {
				status := "healthy"
				if err := a.gateway.Ping(c.Request.Context()); err != nil {
					status = "degraded"
				}
				c.JSON(http.StatusOK, gin.H{
					"status":      status,
					"timestamp":   time.Now(),
					"connections": sockets.GetConnectionCount(),
				})
			})

			srv := &http.Server{
				Addr:         a.cfg.Server.GetServerAddr(),
				Handler:      router,
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
				IdleTimeout:  a.cfg.Server.IdleTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()
			a.logger.Info("Server started", zap.String("addr", srv.Addr))

			select {
			case err := <-errCh:
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
			}

			a.logger.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			a.logger.Info("Server exiting")
			return nil
		},
	}
}

func expireLoop(ctx context.Context, toasts *notifications.Manager) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			toasts.Expire(now)
		}
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.New().String()
		c.Header("X-Request-ID", requestID)
		c.Next()
		logger.Info("Request handled",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// =====================================================
// export / print
// =====================================================

type filterFlags struct {
	search   string
	category string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "case-insensitive search text")
	cmd.Flags().StringVar(&f.category, "category", "", "category name (default: all)")
}

// applyHeadless runs one filter apply with notifications going to the log
func applyHeadless(ctx context.Context, a *app, flags filterFlags) (*reports.Report, error) {
	notifier := notifications.NewLogNotifier(a.logger)
	controller, _ := a.headless(notifier)
	return controller.ApplyFilters(ctx, flags.search, flags.category)
}

func exportCmd() *cobra.Command {
	var (
		flags  filterFlags
		format string
		out    string
		title  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{requireDB: true})
			if err != nil {
				return err
			}
			defer a.close()

			report, err := applyHeadless(ctx, a, flags)
			if err != nil {
				return err
			}

			if out == "" {
				out = filepath.Join(a.cfg.Export.OutputDir, "game-sales-"+time.Now().Format("20060102-150405"))
			}
			location, err := a.exporter.Export(ctx, f, reports.ToDocument(report, title), out)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), location)
			return nil
		},
	}
	flags.bind(cmd)
	names := make([]string, 0, len(export.Formats()))
	for _, f := range export.Formats() {
		names = append(names, string(f))
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatTablePDF), "one of "+strings.Join(names, ", "))
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path; the extension is added when missing")
	cmd.Flags().StringVar(&title, "title", "Game Sales", "document title")
	return cmd
}

func printCmd() *cobra.Command {
	var flags filterFlags
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the filtered report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{requireDB: true})
			if err != nil {
				return err
			}
			defer a.close()

			report, err := applyHeadless(ctx, a, flags)
			if err != nil {
				return err
			}
			doc := reports.ToDocument(report, "")
			return export.RenderConsoleTable(cmd.OutOrStdout(), doc.Table, doc.Summary)
		},
	}
	flags.bind(cmd)
	return cmd
}

// =====================================================
// tables / snapshot
// =====================================================

func tablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables [name]",
		Short: "List allowed tables, or dump one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{requireDB: true})
			if err != nil {
				return err
			}
			defer a.close()

			if len(args) == 1 {
				model, err := a.service.LoadTable(ctx, args[0])
				if err != nil {
					return err
				}
				tv := reports.TableFromModel(model)
				return export.RenderConsoleTable(cmd.OutOrStdout(),
					export.Table{Title: args[0], Columns: tv.Columns, Rows: tv.Rows},
					[]export.SummaryItem{{Label: "Rows", Value: fmt.Sprint(len(tv.Rows))}})
			}

			listing := export.Table{Title: "Tables", Columns: []string{"table", "columns"}}
			for _, t := range database.AllowedTables() {
				cols, err := a.gateway.FetchColumns(ctx, t)
				if err != nil {
					return err
				}
				listing.Rows = append(listing.Rows, map[string]string{
					"table":   t.String(),
					"columns": strings.Join(cols, ", "),
				})
			}
			return export.RenderConsoleTable(cmd.OutOrStdout(), listing, nil)
		},
	}
}

func snapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Export one unfiltered snapshot in the configured formats",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{requireDB: true})
			if err != nil {
				return err
			}
			defer a.close()

			executor, err := a.snapshotExecutor(a.engine(notifications.NewLogNotifier(a.logger)))
			if err != nil {
				return err
			}
			result, err := scheduler.NewSnapshotScheduler(executor, a.logger).RunOnce(ctx)
			if err != nil {
				return err
			}
			for _, f := range result.Files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
}
