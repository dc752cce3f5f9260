package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/partkeeper/partkeeper/internal/database"
	"github.com/partkeeper/partkeeper/internal/server"
	"github.com/partkeeper/partkeeper/internal/song"
	"github.com/partkeeper/partkeeper/internal/storage"
)

func main() {
	port := getEnv("PORT", "8080")
	baseURL := getEnv("BASE_URL", "http://localhost:8080")
	databaseURL := os.Getenv("DATABASE_URL")
	songsFile := os.Getenv("SONGS_FILE")

	backend, err := storeBackend(os.Getenv("STORE_BACKEND"), databaseURL, songsFile)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := server.Config{
		JWTSecret:          os.Getenv("JWT_SECRET"),
		AccessCode:         os.Getenv("ACCESS_CODE"),
		AccessCodeHash:     os.Getenv("ACCESS_CODE_HASH"),
		BaseURL:            baseURL,
		S3PublicEndpoint:   os.Getenv("S3_PUBLIC_ENDPOINT"),
		MaxSoundtrackBytes: getEnvInt64("MAX_SOUNDTRACK_BYTES", song.DefaultMaxSoundtrackBytes),
	}

	switch backend {
	case "postgres":
		db, err := database.Connect(ctx, databaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer db.Close()

		if err := db.Migrate(databaseURL); err != nil {
			log.Fatalf("database migration failed: %v", err)
		}
		log.Println("database migrations applied")

		cfg.Songs = song.NewPostgresRepository(db.Pool)
		cfg.Pinger = db
	case "file":
		cfg.Songs = song.NewFileRepository(songsFile)
		log.Printf("songs stored in %s", songsFile)
	default:
		cfg.Songs = song.NewMemoryRepository()
		log.Println("songs kept in memory; set DATABASE_URL or SONGS_FILE to persist them")
	}

	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		store, err := storage.New(ctx, storage.Config{
			Endpoint:       getEnv("S3_ENDPOINT", "http://localhost:3900"),
			PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
			Bucket:         bucket,
			AccessKey:      os.Getenv("S3_ACCESS_KEY"),
			SecretKey:      os.Getenv("S3_SECRET_KEY"),
			Region:         getEnv("S3_REGION", "eu-central-1"),
			MaxUploadBytes: cfg.MaxSoundtrackBytes,
		})
		if err != nil {
			log.Fatalf("storage initialization failed: %v", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			log.Fatalf("storage bucket check failed: %v", err)
		}
		if err := store.SetCORS(ctx, []string{baseURL}); err != nil {
			log.Printf("storage CORS not applied: %v", err)
		}
		cfg.Storage = store
		log.Println("soundtrack storage ready")
	} else {
		log.Println("S3_BUCKET not set, soundtrack uploads disabled")
	}

	if dir := os.Getenv("STATIC_DIR"); dir != "" {
		webFS, err := staticFS(dir)
		if err != nil {
			log.Fatalf("static files: %v", err)
		}
		cfg.WebFS = webFS
		log.Printf("serving web client from %s", dir)
	}

	serveCtx, stopServe := context.WithCancel(context.Background())
	defer stopServe()

	srv, err := server.New(serveCtx, cfg)
	if err != nil {
		log.Fatalf("server configuration failed: %v", err)
	}
	if cfg.AccessCode != "" || cfg.AccessCodeHash != "" {
		log.Println("access code required")
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("partkeeper listening on :%s (%s store)", port, backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-shutdownCh
	log.Println("shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}
	log.Println("shutdown complete")
}

// storeBackend picks the song store: an explicit STORE_BACKEND, else postgres
// when a database is configured, else a file when one is named, else memory.
func storeBackend(explicit, databaseURL, songsFile string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case "":
	case "postgres":
		if databaseURL == "" {
			return "", errors.New("STORE_BACKEND=postgres requires DATABASE_URL")
		}
		return "postgres", nil
	case "file":
		if songsFile == "" {
			return "", errors.New("STORE_BACKEND=file requires SONGS_FILE")
		}
		return "file", nil
	case "memory":
		return "memory", nil
	default:
		return "", fmt.Errorf("unknown STORE_BACKEND %q (want postgres, file or memory)", explicit)
	}

	switch {
	case databaseURL != "":
		return "postgres", nil
	case songsFile != "":
		return "file", nil
	default:
		return "memory", nil
	}
}

func staticFS(dir string) (fs.FS, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
