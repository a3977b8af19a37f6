// Entry point for the proxy-lite browsing service: chi router over the
// session/observe/act API, optional MCP over stdio, sqlite-backed history.
package main

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/yhl48/proxy-lite/browser"
	"github.com/yhl48/proxy-lite/config"
	"github.com/yhl48/proxy-lite/idgen"
	"github.com/yhl48/proxy-lite/safeurl"
	"github.com/yhl48/proxy-lite/store"
)

func main() {
	configPath := env("CONFIG", "")
	mcpTransport := env("MCP_TRANSPORT", "")
	logLevel := env("LOG_LEVEL", "info")

	// Logging.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	var cfg *config.Config
	if configPath != "" {
		var err error
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			slog.Error("load config", "error", err)
			os.Exit(1)
		}
	} else {
		cfg = &config.Config{}
		cfg.ApplyDefaults()
	}
	if v := env("LISTEN", ""); v != "" {
		cfg.Listen = v
	}
	if v := env("DB_PATH", ""); v != "" {
		cfg.DBPath = v
	}
	if v := env("BROWSER_REMOTE", ""); v != "" {
		cfg.Browser.Remote = v
	}

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Observation DB.
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		slog.Error("db dir", "error", err)
		os.Exit(1)
	}
	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		slog.Error("open db", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	st := store.New(db)
	if err := st.Init(ctx); err != nil {
		slog.Error("init db", "error", err)
		os.Exit(1)
	}

	// Browser.
	manager := browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		MemoryLimit:      cfg.Browser.MemoryLimit,
		RecycleInterval:  cfg.Browser.RecycleInterval,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		Stealth:          browser.ParseStealthLevel(cfg.Browser.Stealth),
		XvfbDisplay:      cfg.Browser.XvfbDisplay,
		Logger:           logger,
	})
	if _, err := manager.Start(ctx); err != nil {
		slog.Error("start browser", "error", err)
		os.Exit(1)
	}
	defer manager.Close()

	observer := browser.NewObserver(browser.ObserveConfig{
		MaxIframes:        cfg.Observe.MaxIframes,
		MinIframeSize:     float64(cfg.Observe.MinIframeSize),
		ScreenshotQuality: cfg.Observe.ScreenshotQuality,
		Logger:            logger,
	})

	svc := browser.NewService(browser.ServiceConfig{
		Manager:  manager,
		Observer: observer,
		Store:    st,
		Guard: safeurl.Guard{
			AllowPrivate:  cfg.Nav.AllowPrivate,
			AllowLoopback: cfg.Nav.AllowLoopback,
		},
		NewID:            idgen.Default,
		ViewportWidth:    cfg.Browser.ViewportWidth,
		ViewportHeight:   cfg.Browser.ViewportHeight,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		AnnotateQuality:  cfg.Observe.ScreenshotQuality,
		Logger:           logger,
	})
	defer svc.Close(context.Background())

	// Optional MCP over stdio.
	if mcpTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "proxy-lite",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)
		go func() {
			slog.Info("MCP stdio starting")
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("MCP stdio", "error", err)
			}
		}()
	}

	// Basic auth: a single shared password, bcrypt-compared per request.
	var passwordHash []byte
	if pw := os.Getenv("AUTH_PASSWORD"); pw != "" {
		passwordHash, err = bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if err != nil {
			slog.Error("hash password", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("AUTH_PASSWORD not set; API is unauthenticated")
	}

	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth(passwordHash))

		r.Post("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				URL string `json:"url"`
			}
			if r.Body != nil {
				_ = json.NewDecoder(r.Body).Decode(&req)
			}
			id, err := svc.StartSession(r.Context(), req.URL)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 201, map[string]string{"session_id": id})
		})

		r.Delete("/api/sessions/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			if err := svc.CloseSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 200, map[string]string{"status": "closed"})
		})

		r.Post("/api/sessions/{sessionID}/observe", func(w http.ResponseWriter, r *http.Request) {
			res, err := svc.Observe(r.Context(), chi.URLParam(r, "sessionID"))
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 200, res)
		})

		r.Post("/api/sessions/{sessionID}/actions", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			var req struct {
				Type      string `json:"type"`
				Mark      *int   `json:"mark"`
				Text      string `json:"text"`
				Submit    bool   `json:"submit"`
				NewTab    bool   `json:"new_tab"`
				Direction string `json:"direction"`
				URL       string `json:"url"`
				Value     string `json:"value"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, 400, err)
				return
			}
			mark := -1
			if req.Mark != nil {
				mark = *req.Mark
			}

			var err error
			switch req.Type {
			case "goto":
				err = svc.Goto(r.Context(), sessionID, req.URL)
			case "back":
				err = svc.Back(r.Context(), sessionID)
			case "reload":
				err = svc.Reload(r.Context(), sessionID)
			case "click":
				err = svc.Click(r.Context(), sessionID, mark, req.NewTab)
			case "hover":
				err = svc.Hover(r.Context(), sessionID, mark)
			case "focus":
				err = svc.Focus(r.Context(), sessionID, mark)
			case "type":
				err = svc.Type(r.Context(), sessionID, mark, req.Text, req.Submit)
			case "clear":
				err = svc.ClearField(r.Context(), sessionID, mark)
			case "scroll":
				err = svc.Scroll(r.Context(), sessionID, mark, req.Direction)
			case "select":
				err = svc.Select(r.Context(), sessionID, mark, req.Value)
			default:
				writeJSON(w, 400, map[string]string{"error": "unknown action type: " + req.Type})
				return
			}
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 200, map[string]string{"status": "ok"})
		})

		r.Get("/api/sessions/{sessionID}/marks/{mark}/text", func(w http.ResponseWriter, r *http.Request) {
			mark, err := strconv.Atoi(chi.URLParam(r, "mark"))
			if err != nil {
				writeError(w, 400, err)
				return
			}
			text, err := svc.MarkText(chi.URLParam(r, "sessionID"), mark)
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 200, map[string]string{"text": text})
		})

		r.Get("/api/sessions/{sessionID}/text", func(w http.ResponseWriter, r *http.Request) {
			text, err := svc.PageText(r.Context(), chi.URLParam(r, "sessionID"))
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			writeJSON(w, 200, map[string]string{"text": text})
		})

		r.Get("/api/sessions/{sessionID}/observations", func(w http.ResponseWriter, r *http.Request) {
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			list, err := svc.History(r.Context(), chi.URLParam(r, "sessionID"), limit)
			if err != nil {
				writeError(w, 500, err)
				return
			}
			writeJSON(w, 200, list)
		})

		r.Get("/api/sessions/{sessionID}/replay.gif", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/gif")
			if err := svc.Replay(r.Context(), chi.URLParam(r, "sessionID"), w); err != nil {
				slog.Error("replay", "error", err)
			}
		})

		r.Get("/api/observations/{observationID}", func(w http.ResponseWriter, r *http.Request) {
			obs, result, err := svc.Observation(r.Context(), chi.URLParam(r, "observationID"))
			if err != nil {
				writeError(w, 404, err)
				return
			}
			writeJSON(w, 200, map[string]any{
				"id":         obs.ID,
				"session_id": obs.SessionID,
				"url":        obs.URL,
				"created_at": obs.Created,
				"mark_count": obs.MarkCount,
				"partial":    obs.Partial,
				"marks":      result,
			})
		})

		r.Get("/api/observations/{observationID}/screenshot", func(w http.ResponseWriter, r *http.Request) {
			serveImage(w, r, svc, chi.URLParam(r, "observationID"), false)
		})
		r.Get("/api/observations/{observationID}/annotated", func(w http.ResponseWriter, r *http.Request) {
			serveImage(w, r, svc, chi.URLParam(r, "observationID"), true)
		})
	})

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func serveImage(w http.ResponseWriter, r *http.Request, svc *browser.Service, observationID string, annotated bool) {
	obs, _, err := svc.Observation(r.Context(), observationID)
	if err != nil {
		writeError(w, 404, err)
		return
	}
	blob := obs.Screenshot
	if annotated {
		blob = obs.Annotated
	}
	if len(blob) == 0 {
		writeJSON(w, 404, map[string]string{"error": "no image"})
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(blob)
}

// requireAuth enforces HTTP basic auth against the shared password hash.
// A nil hash disables authentication.
func requireAuth(hash []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hash == nil {
				next.ServeHTTP(w, r)
				return
			}
			user, pass, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(user), []byte("agent")) != 1 ||
				bcrypt.CompareHashAndPassword(hash, []byte(pass)) != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="proxy-lite"`)
				writeJSON(w, 401, map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, browser.ErrNoSession):
		return 404
	case errors.Is(err, browser.ErrNoObservation), errors.Is(err, browser.ErrBadMark):
		return 400
	case errors.Is(err, safeurl.ErrPrivateAddress), errors.Is(err, safeurl.ErrUnsafeScheme):
		return 400
	default:
		return 500
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
