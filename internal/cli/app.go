package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/paper-nest/backend/internal/config"
	"github.com/paper-nest/backend/internal/corpus"
	"github.com/paper-nest/backend/internal/database"
	"github.com/paper-nest/backend/internal/middleware"
	"github.com/paper-nest/backend/internal/papers"
	"github.com/paper-nest/backend/internal/solutions"
	"github.com/paper-nest/backend/internal/storage"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// app holds the long-lived components shared by the server and commands.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	loader  *corpus.Loader
	papers  *papers.Service
	drafter *solutions.Drafter
	db      *sql.DB
}

type appOptions struct {
	// withDatabase connects and migrates when database.url is set. Commands
	// that never persist papers leave it off.
	withDatabase bool
}

func newApp(cfg *config.Config, log *zap.Logger, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, log: log}

	a.loader = corpus.NewLoader(corpus.Options{
		Candidates:    cfg.Corpus.Candidates,
		Concurrency:   cfg.Corpus.Concurrency,
		MaxEntryBytes: cfg.Corpus.MaxEntryBytes,
	}, corpus.NewMemoryCache(), log.Named("corpus"))

	var store papers.Store = papers.NewMemoryStore()
	if opts.withDatabase && cfg.Database.URL != "" {
		db, err := database.Connect(cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		store = database.NewPaperStore(db)
		log.Info("papers stored in postgres")
	} else if opts.withDatabase {
		log.Warn("database.url not set, generated papers are kept in memory only")
	}

	a.papers = papers.NewService(a.loader, storage.NewPathResolver(cfg.Storage.ImageBaseURL), store, log.Named("papers"))

	llm, model, err := solutions.NewClient(solutions.Config{
		Provider:   cfg.Solutions.Provider,
		Model:      cfg.Solutions.Model,
		APIKey:     cfg.Solutions.APIKey,
		CLIPath:    cfg.Solutions.CLIPath,
		CLITimeout: cfg.Solutions.CLITimeout,
		MaxTokens:  cfg.Solutions.MaxTokens,
	}, log.Named("solutions"))
	switch {
	case errors.Is(err, solutions.ErrDisabled):
	case err != nil:
		a.Close()
		return nil, err
	default:
		a.drafter = solutions.NewDrafter(llm, model, a.loader, log.Named("solutions"))
	}

	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

func (a *app) routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", a.health).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Auth(middleware.AuthConfig{
		JWTSecret:    a.cfg.Auth.JWTSecret,
		APIKeyHashes: a.cfg.Auth.APIKeyHashes,
	}, a.log.Named("auth")))

	papers.NewHandler(a.papers, a.log.Named("http")).Register(api)
	solutions.NewHandler(a.drafter, a.log.Named("http")).Register(api)

	c := cors.New(cors.Options{
		AllowedOrigins:   a.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: true,
	})

	return middleware.RequestLogger(a.log.Named("http"))(c.Handler(r))
}

func (a *app) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"status": "ok", "corpus": nil}
	if snap := a.loader.Current(); snap != nil {
		resp["corpus"] = snap.SourceID()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}
