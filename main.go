package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"kdsboard/server/internal/api"
	"kdsboard/server/internal/config"
	"kdsboard/server/internal/database"
	"kdsboard/server/internal/models"
	"kdsboard/server/internal/services"
	"kdsboard/server/internal/utils"
)

func main() {
	// Загружаем переменные окружения из .env файла (если существует)
	// Игнорируем ошибку, если файл не найден (для production окружений)
	if err := godotenv.Load(); err != nil {
		log.Printf("ℹ️ .env файл не найден, используем переменные окружения системы")
	} else {
		log.Printf("✅ Переменные окружения загружены из .env файла")
	}

	// Загрузка конфигурации
	cfg := config.Load()
	log.Printf("📋 Upstream API: %s, интервал опроса: %v", cfg.UpstreamBaseURL, cfg.PollInterval)

	// Часовой пояс ресторана (date_time заказов приходит без зоны)
	loc, err := time.LoadLocation(cfg.RestaurantTimezone)
	if err != nil {
		log.Printf("⚠️ Не удалось загрузить часовой пояс %q: %v, используем локальный", cfg.RestaurantTimezone, err)
		loc = time.Local
	}

	// Подключение к Redis (с поддержкой Sentinel)
	// Без Redis продолжаем на in-memory сессии: доска работает,
	// но сессия не переживет рестарт процесса
	var sessionStore services.SessionStore
	redisClient, err := database.ConnectRedis(
		cfg.RedisURL,
		cfg.RedisSentinelAddrs,
		cfg.RedisMasterName,
	)
	if err != nil {
		log.Printf("⚠️ Redis connection failed: %v (сессия будет в памяти)", err)
		redisClient = nil
		sessionStore = services.NewMemorySessionStore()
	} else {
		sessionStore = services.NewRedisSessionStore(utils.NewRedisClient(redisClient))
	}
	defer database.CloseRedis(redisClient)

	// Сессия и сервисы
	session := services.NewSession(sessionStore)
	upstream := services.NewUpstreamClient(cfg.UpstreamBaseURL)
	auth := services.NewAuthService(upstream, session, cfg.FCMToken, cfg.DeviceModel)
	board := services.NewBoardService(auth, upstream, session, loc)
	outlets := services.NewOutletService(auth, upstream, session, board)
	subscriptions := services.NewSubscriptionService(auth, upstream, session)

	// Доска рассылает каждый примененный снапшот на подключенные экраны
	board.OnSnapshot(func(snapshot *models.BoardSnapshot) {
		broadcastSnapshot(snapshot)
	})

	// Отключаем логи gin для чистоты вывода
	gin.SetMode(gin.ReleaseMode)

	// Создаем пустой движок без лишних прослоек
	r := gin.New()

	// Health check endpoint
	r.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "KDS Board Bridge",
			"version": "1.0.0",
		})
	})

	// Логирование всех запросов
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		log.Printf("🌐 %s %s - Status: %d - Latency: %v", method, path, status, latency)
	})

	// CORS для экранов
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Контроллеры
	authController := api.NewAuthController(auth, outlets, session)
	boardController := api.NewBoardController(board, session)
	outletController := api.NewOutletController(outlets, session)
	subscriptionController := api.NewSubscriptionController(subscriptions, session)

	// API routes
	apiGroup := r.Group("/api/v1")

	authGroup := apiGroup.Group("/auth")
	{
		authGroup.POST("/otp", authController.SendOTP)
		authGroup.POST("/verify", authController.VerifyOTP)
		authGroup.POST("/logout", authController.Logout)
	}

	apiGroup.GET("/outlets", outletController.ListOutlets)
	apiGroup.POST("/outlets/select", outletController.SelectOutlet)

	boardGroup := apiGroup.Group("/board")
	{
		boardGroup.GET("", boardController.GetBoard)
		boardGroup.POST("/refresh", boardController.Refresh)
		boardGroup.PATCH("/filter", boardController.SetFilter)
		boardGroup.PATCH("/mode", boardController.SetMode)
	}

	apiGroup.POST("/orders/:id/complete", boardController.CompleteOrder)
	apiGroup.POST("/orders/:id/reject", boardController.RejectOrder)

	apiGroup.GET("/subscription", subscriptionController.GetStatus)

	// WebSocket для экранов KDS
	r.GET("/ws", api.ServeWS(board))

	// Запускаем хаб рассылки на экраны
	go api.DisplayHub.Run()

	// Планировщик опроса доски
	poller := services.NewBoardPoller(board, cfg.PollInterval)
	poller.Start()

	// Остановка по сигналу: гасим планировщик, чтобы не текли колбеки
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctrlc
		log.Printf("🛑 Получен сигнал остановки")
		poller.Stop()
		os.Exit(0)
	}()

	log.Printf("🚀 KDS Board Bridge starting on port %s", cfg.ServerPort)
	log.Printf("📡 API доступен на http://0.0.0.0:%s/api/v1", cfg.ServerPort)
	if err := r.Run("0.0.0.0:" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// broadcastSnapshot сериализует снапшот доски и отправляет его в хаб
func broadcastSnapshot(snapshot *models.BoardSnapshot) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("⚠️ Не удалось сериализовать снапшот доски: %v", err)
		return
	}
	api.DisplayHub.BroadcastMessage(data)
}
