package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talent-search-go/internal/api/handler"
	"talent-search-go/internal/api/router"
	"talent-search-go/internal/config"
	"talent-search-go/internal/embedding"
	"talent-search-go/internal/search"
	"talent-search-go/internal/storage"
	"talent-search-go/internal/tracing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"

	appCoreLogger "talent-search-go/internal/logger"
)

var (
	version     = "1.0.0"            //nolint:gochecknoglobals
	serviceName = "talent-search-go" //nolint:gochecknoglobals
)

func main() {
	initLogger()

	var configPath string
	var genConfig string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.StringVar(&genConfig, "gen-config", "", "Write a sample config file to the given path and exit")
	pflag.Parse()

	if genConfig != "" {
		if err := config.CreateSampleConfig(genConfig); err != nil {
			log.Fatalf("生成示例配置失败: %v", err)
		}
		return
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, &cfg.Tracing)
	if err != nil {
		glog.Fatalf("初始化追踪失败: %v", err)
	}
	glog.Info("追踪初始化成功")

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	aliyunEmbedder, err := embedding.NewAliyunEmbedder(cfg.Aliyun.APIKey, cfg.Aliyun.Embedding)
	if err != nil {
		glog.Fatalf("初始化阿里云Embedder失败: %v", err)
	}
	glog.Info("阿里云Embedder初始化成功")

	searchService := search.NewService(storageManager, aliyunEmbedder, &cfg.Search)
	glog.Info("搜索服务初始化成功")

	searchHandler := handler.NewSearchHandler(cfg, searchService, storageManager)
	glog.Info("SearchHandler初始化成功")

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		requestID := string(ctx.GetHeader("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx.Response.Header.Set("X-Request-ID", requestID)
		glog.CtxInfof(c, "Request: %s %s request_id=%s", string(ctx.Method()), string(ctx.Path()), requestID)
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d request_id=%s", ctx.Response.StatusCode(), requestID)
	})

	router.RegisterRoutes(h, searchHandler, cfg)
	glog.Info("HTTP路由注册成功")

	glog.Infof("%s v%s HTTP 服务器启动中，监听地址: %s", serviceName, version, cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		glog.Warnf("追踪上报关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

func initLogger() {
	logFilePath := "logs/app.log"
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Fatalf("无法创建日志目录: %v", err)
	}
	fileWriter, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatalf("无法打开日志文件 %s: %v", logFilePath, err)
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}

	multiWriter := zerolog.MultiLevelWriter(consoleWriter, fileWriter)

	level := zerolog.InfoLevel
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = "15:04:05"

	logger := zerolog.New(multiWriter).With().Timestamp().Caller().Logger()

	// 同步到应用全局logger和zerolog的stdlib包装
	appCoreLogger.Logger = logger
	zlog.Logger = logger

	// Hertz的日志走zerolog适配器，保证一个输出口径
	hertzCompatibleLogger := hertzadapter.From(appCoreLogger.Logger)
	glog.SetLogger(hertzCompatibleLogger)
	glog.SetLevel(glog.LevelInfo)

	log.Println("Logger initialized with Zerolog, writing to console and file:", logFilePath)
}
