package routes

import (
	"github.com/Morris-wambua/fabs-store-sub000/internal/chatfeed"
	"github.com/Morris-wambua/fabs-store-sub000/internal/config"
	"github.com/Morris-wambua/fabs-store-sub000/internal/handlers"
	"github.com/Morris-wambua/fabs-store-sub000/internal/middleware"
	"github.com/Morris-wambua/fabs-store-sub000/internal/repository"
	"github.com/Morris-wambua/fabs-store-sub000/internal/services"
	ws "github.com/Morris-wambua/fabs-store-sub000/internal/websocket"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) error {
	userRepo := repository.NewUserRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	expertRepo := repository.NewExpertRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	var storageService services.StorageService
	if cfg.SupabaseURL != "" && cfg.SupabaseBucket != "" && cfg.SupabaseServiceKey != "" {
		storageService = services.NewSupabaseStorageService(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}

	feedHub := ws.NewFeedHub()
	broker := chatfeed.NewBroker(chatfeed.RepoLoader{
		Conversations: conversationRepo,
		Messages:      messageRepo,
	})
	chatHub := ws.NewHub()
	go chatHub.Run()

	reservationService := services.NewReservationService(db, reservationRepo, serviceRepo, expertRepo, storeRepo, feedHub)
	chatService := services.NewChatService(db, conversationRepo, messageRepo, storeRepo, userRepo, broker)

	authHandler := handlers.NewAuthHandler(db, userRepo, storeRepo, cfg.JWTSecret)
	storeHandler := handlers.NewStoreHandler(storeRepo, storageService)
	expertHandler := handlers.NewExpertHandler(expertRepo, storeRepo, storageService)
	serviceHandler := handlers.NewServiceHandler(serviceRepo, expertRepo, storeRepo)
	reservationHandler := handlers.NewReservationHandler(reservationService)
	chatHandler := handlers.NewChatHandler(chatService, chatHub, cfg.JWTSecret)
	chatFeedHandler := handlers.NewChatFeedHandler(broker, storeRepo, conversationRepo)
	feedHandler := handlers.NewFeedHandler(reservationService, storeRepo, feedHub)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	stores := authProtected.Group("/stores")
	stores.Post("/onboarding", storeHandler.CompleteOnboarding)
	stores.Get("/me", storeHandler.GetMyStore)
	stores.Put("/me", storeHandler.UpdateStore)
	stores.Post("/me/photo", storeHandler.UploadStorePhoto)
	stores.Get("/:id", storeHandler.GetStore)
	stores.Get("/:id/experts", expertHandler.ListForStore)
	stores.Get("/:id/services", serviceHandler.ListForStore)

	experts := authProtected.Group("/experts")
	experts.Post("", expertHandler.Create)
	experts.Get("", expertHandler.ListMine)
	experts.Put("/:id", expertHandler.Update)
	experts.Post("/:id/avatar", expertHandler.UploadAvatar)

	storeServices := authProtected.Group("/services")
	storeServices.Post("", serviceHandler.Create)
	storeServices.Get("", serviceHandler.ListMine)
	storeServices.Put("/:id", serviceHandler.Update)

	reservations := authProtected.Group("/reservations")
	reservations.Post("/book", reservationHandler.Book)
	reservations.Get("", reservationHandler.ListMine)
	reservations.Get("/mine", reservationHandler.ListForCustomer)
	reservations.Get("/:id", reservationHandler.Get)
	reservations.Put("/:id/status", reservationHandler.UpdateStatus)

	conversations := authProtected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.CreateConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)
	conversations.Post("/:id/read", chatHandler.MarkRead)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))
	api.Get("/v1/ws/reservations", websocket.New(feedHandler.HandleReservationFeed))
	api.Get("/v1/ws/conversations", websocket.New(chatFeedHandler.HandleConversationFeed))
	api.Get("/v1/ws/conversations/:id/messages", websocket.New(chatFeedHandler.HandleMessageFeed))

	return registerDocsRoutes(app, cfg)
}
