package handler

import (
	"log"
	"net/http"
	"sync"

	config "tourism-dashboard-api/configs"
	"tourism-dashboard-api/pkg/handlers"

	"github.com/gin-gonic/gin"
)

var (
	app     *gin.Engine
	once    sync.Once
	initErr error
)

// setupApp はGinアプリケーションを初期化します。
// サーバーレス環境ではインスタンスごとに一度だけ実行します。
// セッションはインスタンスのメモリ上にあるため、別インスタンスからは見えません。
func setupApp() (*gin.Engine, error) {
	once.Do(func() {
		log.Printf("🟢 [setupApp] Initializing Gin application")

		// 環境変数は Vercel の設定から渡されるため godotenv は使わない
		cfg := config.LoadConfig()

		deps, err := handlers.NewDependencies(cfg)
		if err != nil {
			initErr = err
			log.Printf("❌ [setupApp] Failed to initialize services: %v", err)
			return
		}
		app = handlers.NewRouter(cfg, deps)
		log.Printf("🟢 [setupApp] Ready (data source: %s)", cfg.DataSource)
	})
	return app, initErr
}

// Handler は Vercel のサーバーレス関数のエントリーポイントです。
func Handler(w http.ResponseWriter, r *http.Request) {
	engine, err := setupApp()
	if err != nil {
		http.Error(w, "service initialization failed", http.StatusInternalServerError)
		return
	}
	engine.ServeHTTP(w, r)
}
