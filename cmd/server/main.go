package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signhub/internal"
	"signhub/internal/composer"
	"signhub/internal/config"
	"signhub/internal/fontcache"
	"signhub/internal/handlers"
	"signhub/internal/services"
	"signhub/internal/storage"
	"signhub/internal/viewport"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := internal.InitDB(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer internal.CloseDB()

	ctx := context.Background()
	gcsClient, err := storageClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize GCS client: %v", err)
	}
	defer gcsClient.Close()

	catalog, err := fontcache.LoadCatalog(cfg.Fonts.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load font catalog: %v", err)
	}

	if err := os.MkdirAll(cfg.Fonts.Dir, 0o755); err != nil {
		log.Fatalf("Failed to create font dir: %v", err)
	}
	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		log.Fatalf("Failed to create work dir: %v", err)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	fontCache := fontcache.New(cfg.Fonts.BaseURL, cfg.Fonts.Dir, httpClient)
	fontWatcher, err := fontCache.Watch()
	if err != nil {
		log.Printf("Font watcher disabled: %v", err)
	} else {
		defer fontWatcher.Close()
	}

	converter, err := services.NewConvertService(cfg.Gotenberg.URL, cfg.Gotenberg.Timeout)
	if err != nil {
		log.Fatalf("Failed to initialize converter: %v", err)
	}

	comp := composer.New(fontCache, httpClient, cfg.WorkDir)
	renderer := viewport.NewRenderer()

	docService := services.NewDocumentService(gcsClient, converter)
	sigService := services.NewSignatureService(gcsClient, catalog)
	finalizeService := services.NewFinalizeService(docService, sigService, comp, gcsClient, httpClient)
	logService := services.NewActivityLogService()

	docHandler := handlers.NewDocumentHandler(docService)
	sigHandler := handlers.NewSignatureHandler(sigService)
	renderHandler := handlers.NewRenderHandler(docService, renderer)
	finalizeHandler := handlers.NewFinalizeHandler(finalizeService)
	fontsHandler := handlers.NewFontsHandler(catalog, fontCache)
	logsHandler := handlers.NewLogsHandler(logService)

	cleanupService := handlers.NewFileCleanupService(cfg.WorkDir, cfg.Fonts.Dir, 24*time.Hour)
	cleanupService.Start()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Signed-File-Name", "X-Upload-Warning", "X-Page-Number", "X-Page-Count", "X-Render-Scale", "X-Page-Width", "X-Page-Height"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(handlers.ActivityLogger(logService))

	r.Static("/fonts", cfg.Fonts.Dir)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/docs/upload", docHandler.Upload)
		v1.GET("/docs/list", docHandler.List)
		v1.GET("/docs/trash", docHandler.Trash)
		v1.PUT("/docs/soft-delete/:id", docHandler.SoftDelete)
		v1.PUT("/docs/restore/:id", docHandler.Restore)
		v1.DELETE("/docs/permanent-delete/:id", docHandler.PermanentDelete)
		v1.GET("/docs/:id/download", docHandler.Download)

		v1.GET("/docs/:id/pages/:page/render", renderHandler.RenderPage)
		v1.GET("/docs/:id/geometry", renderHandler.PageGeometry)
		v1.GET("/docs/:id/thumbnails", renderHandler.Thumbnails)

		v1.POST("/signatures", sigHandler.Create)
		v1.GET("/signatures/:docId", sigHandler.ListByDocument)
		v1.PUT("/signatures/:id", sigHandler.Update)
		v1.PUT("/signatures/:id/rect", sigHandler.UpdateRect)
		v1.DELETE("/signatures/:id", sigHandler.Delete)
		v1.POST("/signatures/upload-image", sigHandler.UploadImage)

		v1.POST("/pdf/finalize", finalizeHandler.Finalize)

		v1.GET("/fonts/catalog", fontsHandler.Catalog)
		v1.POST("/fonts/preload", fontsHandler.Preload)

		v1.GET("/logs", logsHandler.GetLogs)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cleanupService.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}

func storageClient(ctx context.Context, cfg *config.Config) (*storage.GCSClient, error) {
	return storage.NewGCSClient(ctx, cfg.GCS.BucketName, cfg.GCS.ProjectID, cfg.GCS.CredentialsPath)
}
