package main

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/kyanagi/yamabuki-cup-app/internal/broadcast"
	"github.com/kyanagi/yamabuki-cup-app/internal/httputil"
	"github.com/kyanagi/yamabuki-cup-app/internal/importer"
	"github.com/kyanagi/yamabuki-cup-app/internal/middleware"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
	"github.com/kyanagi/yamabuki-cup-app/internal/rule"
	"github.com/kyanagi/yamabuki-cup-app/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxSheetSize = 4 << 20

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: app.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.OperatorHeader},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.NotFound(w, "No route for "+r.URL.Path, nil)
	})

	r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	upgrader := broadcast.Upgrader(app.cfg.Server.AllowedOrigins)
	r.Get("/ws/matches/{matchID}", func(w http.ResponseWriter, r *http.Request) {
		matchID, ok := urlID(w, r, "matchID")
		if !ok {
			return
		}
		if _, err := app.matches.GetMatch(r.Context(), matchID); err != nil {
			httputil.Error(w, "Failed to get match", err)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			app.logger.Warn("websocket upgrade failed", "match_id", matchID, "error", err)
			return
		}
		app.hub.Attach(conn, broadcast.RoomFor(matchID))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Operator("anonymous"))

		r.Get("/rules", func(w http.ResponseWriter, r *http.Request) {
			httputil.JSON(w, http.StatusOK, rule.Names())
		})

		r.Post("/players", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Name string `json:"name"`
			}
			if !decode(w, r, &body) {
				return
			}
			player, err := app.matches.CreatePlayer(r.Context(), body.Name)
			if err != nil {
				httputil.Error(w, "Failed to create player", err)
				return
			}
			httputil.JSON(w, http.StatusCreated, player)
		})

		r.Post("/rounds", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Name string `json:"name"`
				Rule string `json:"rule"`
			}
			if !decode(w, r, &body) {
				return
			}
			round, err := app.matches.CreateRound(r.Context(), body.Name, body.Rule)
			if err != nil {
				httputil.Error(w, "Failed to create round", err)
				return
			}
			httputil.JSON(w, http.StatusCreated, round)
		})

		r.Post("/rounds/{roundID}/matches", func(w http.ResponseWriter, r *http.Request) {
			roundID, ok := urlID(w, r, "roundID")
			if !ok {
				return
			}
			var body struct {
				Number    int         `json:"number"`
				Name      string      `json:"name"`
				PlayerIDs []uuid.UUID `json:"player_ids"`
			}
			if !decode(w, r, &body) {
				return
			}
			match, err := app.matches.CreateMatch(r.Context(), roundID, body.Number, body.Name, body.PlayerIDs)
			if err != nil {
				httputil.Error(w, "Failed to create match", err)
				return
			}
			httputil.JSON(w, http.StatusCreated, match)
		})

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				matchID, ok := urlID(w, r, "matchID")
				if !ok {
					return
				}
				board, err := app.matches.Board(r.Context(), matchID)
				if err != nil {
					httputil.Error(w, "Failed to get match", err)
					return
				}
				httputil.JSON(w, http.StatusOK, board)
			})

			r.Get("/scores", func(w http.ResponseWriter, r *http.Request) {
				matchID, ok := urlID(w, r, "matchID")
				if !ok {
					return
				}
				scores, err := app.matches.CurrentScores(r.Context(), matchID)
				if err != nil {
					httputil.Error(w, "Failed to get scores", err)
					return
				}
				httputil.JSON(w, http.StatusOK, scores)
			})

			r.Get("/progress", func(w http.ResponseWriter, r *http.Request) {
				matchID, ok := urlID(w, r, "matchID")
				if !ok {
					return
				}
				progress, err := app.matches.ProgressSummary(r.Context(), matchID)
				if err != nil {
					httputil.Error(w, "Failed to get progress", err)
					return
				}
				httputil.JSON(w, http.StatusOK, map[string]string{"progress": progress})
			})

			r.Get("/history", func(w http.ResponseWriter, r *http.Request) {
				matchID, ok := urlID(w, r, "matchID")
				if !ok {
					return
				}
				items, err := app.operations.MatchHistoryWithSummaries(r.Context(), matchID)
				if err != nil {
					httputil.Error(w, "Failed to get history", err)
					return
				}
				httputil.JSON(w, http.StatusOK, items)
			})

			r.Post("/operations", func(w http.ResponseWriter, r *http.Request) {
				matchID, ok := urlID(w, r, "matchID")
				if !ok {
					return
				}
				var req service.OperationRequest
				if !decode(w, r, &req) {
					return
				}
				op, err := app.operations.CreateOperation(r.Context(), matchID, req)
				if err != nil {
					httputil.Error(w, "Failed to create operation", err)
					return
				}
				status := http.StatusCreated
				if req.Kind == quiz.KindUndo {
					status = http.StatusOK
				}
				httputil.JSON(w, status, map[string]any{"operation": op})
			})

			r.Post("/undo", func(w http.ResponseWriter, r *http.Request) {
				matchID, ok := urlID(w, r, "matchID")
				if !ok {
					return
				}
				head, err := app.operations.Undo(r.Context(), matchID)
				if err != nil {
					httputil.Error(w, "Failed to undo", err)
					return
				}
				httputil.JSON(w, http.StatusOK, map[string]any{"operation": head})
			})
		})

		r.Get("/operations/{operationID}/history", func(w http.ResponseWriter, r *http.Request) {
			operationID, ok := urlID(w, r, "operationID")
			if !ok {
				return
			}
			history, err := app.operations.OperationHistory(r.Context(), operationID)
			if err != nil {
				httputil.Error(w, "Failed to get history", err)
				return
			}
			httputil.JSON(w, http.StatusOK, history)
		})

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				entries, err := app.entries.ForEntryList(r.Context())
				if err != nil {
					httputil.Error(w, "Failed to list entries", err)
					return
				}
				httputil.JSON(w, http.StatusOK, entries)
			})

			r.Get("/waitlist", func(w http.ResponseWriter, r *http.Request) {
				entries, err := app.entries.PromotionCandidates(r.Context())
				if err != nil {
					httputil.Error(w, "Failed to list waitlist", err)
					return
				}
				httputil.JSON(w, http.StatusOK, entries)
			})

			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				var body struct {
					PlayerID uuid.UUID `json:"player_id"`
				}
				if !decode(w, r, &body) {
					return
				}
				entry, err := app.entries.Register(r.Context(), body.PlayerID)
				if err != nil {
					httputil.Error(w, "Failed to register entry", err)
					return
				}
				httputil.JSON(w, http.StatusCreated, entry)
			})

			r.Post("/secondary", func(w http.ResponseWriter, r *http.Request) {
				var body struct {
					PlayerID uuid.UUID `json:"player_id"`
				}
				if !decode(w, r, &body) {
					return
				}
				entry, err := app.entries.CreateSecondaryEntry(r.Context(), body.PlayerID, app.cfg.Entry.Capacity)
				if err != nil {
					httputil.Error(w, "Failed to create secondary entry", err)
					return
				}
				httputil.JSON(w, http.StatusCreated, entry)
			})

			r.Post("/priorities", func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseMultipartForm(maxSheetSize); err != nil {
					httputil.BadRequest(w, "Invalid form data", err)
					return
				}
				file, header, err := r.FormFile("sheet")
				if err != nil {
					httputil.BadRequest(w, "Missing priority sheet", err)
					return
				}
				defer file.Close()
				data, err := io.ReadAll(file)
				if err != nil {
					httputil.BadRequest(w, "Failed to read priority sheet", err)
					return
				}
				rows, err := importer.Parse(header.Filename, data)
				if err != nil {
					httputil.Error(w, "Failed to parse priority sheet", err)
					return
				}
				result, err := app.entries.BulkReassignPriorities(r.Context(), rows, app.cfg.Entry.Capacity)
				if err != nil {
					httputil.Error(w, "Failed to reassign priorities", err)
					return
				}
				httputil.JSON(w, http.StatusOK, result)
			})

			r.Get("/{entryID}", func(w http.ResponseWriter, r *http.Request) {
				entryID, ok := urlID(w, r, "entryID")
				if !ok {
					return
				}
				entry, err := app.entries.GetEntry(r.Context(), entryID)
				if err != nil {
					httputil.Error(w, "Failed to get entry", err)
					return
				}
				httputil.JSON(w, http.StatusOK, entry)
			})

			r.Post("/{entryID}/cancel", func(w http.ResponseWriter, r *http.Request) {
				entryID, ok := urlID(w, r, "entryID")
				if !ok {
					return
				}
				promoted, err := app.entries.Cancel(r.Context(), entryID)
				if err != nil {
					httputil.Error(w, "Failed to cancel entry", err)
					return
				}
				httputil.JSON(w, http.StatusOK, map[string]any{"promoted": promoted})
			})
		})
	})

	return r
}

func urlID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+param, err)
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httputil.BadRequest(w, "Invalid JSON body", err)
		return false
	}
	return true
}
