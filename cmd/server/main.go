package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/inkfolio/internal/cache"
	"github.com/inkfolio/internal/config"
	"github.com/inkfolio/internal/db"
	"github.com/inkfolio/internal/handler"
	"github.com/inkfolio/internal/logging"
	"github.com/inkfolio/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if err := logging.Init(cfg.Logging); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logging.Sync()

	// 初始化数据库
	if err := db.Init(cfg.Database.Path); err != nil {
		logging.L().Fatal("failed to initialize database", zap.Error(err))
	}

	// 可选的统计读缓存
	analyticsCache, err := cache.New(cfg.Redis)
	if err != nil {
		logging.L().Fatal("failed to initialize cache", zap.Error(err))
	}
	defer analyticsCache.Close()

	api := handler.NewAPI(db.DB, analyticsCache, cfg)

	// 按配置创建引导管理员
	if err := api.Users().EnsureAdmin(cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logging.L().Fatal("failed to ensure admin user", zap.Error(err))
	}

	r := router.SetupRouter(api, cfg)

	logging.L().Info("server listening", zap.String("addr", cfg.Server.ListenAddr))
	if err := r.Run(cfg.Server.ListenAddr); err != nil {
		logging.L().Fatal("server exited", zap.Error(err))
	}
}
