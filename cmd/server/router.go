package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/thereayou/lovenest/internal/handlers"
	"github.com/thereayou/lovenest/internal/models"
	"github.com/thereayou/lovenest/internal/storage"
)

// Handlers bundles everything APIEndpoints mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	User      *handlers.UserHandler
	Message   *handlers.MessageHandler
	Memory    *handlers.MemoryHandler
	Gift      *handlers.GiftHandler
	Game      *handlers.GameHandler
	Upload    *handlers.UploadHandler
	Room      *handlers.RoomHandler
	WebSocket *handlers.WebSocketHandler
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}

	for _, o := range origins {
		if o == "*" {
			config.AllowAllOrigins = true
			return config
		}
	}
	if len(origins) == 0 {
		config.AllowAllOrigins = true
		return config
	}
	config.AllowOrigins = origins
	return config
}

func APIEndpoints(r *gin.Engine, h *Handlers, authMW, wsMW gin.HandlerFunc, uploadDir string) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.Static(storage.URLPrefix, uploadDir)
	r.GET("/ws", wsMW, h.WebSocket.HandleWebSocket)

	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", authMW, h.Auth.Logout)
	}

	api := r.Group("/api/v1")
	api.Use(authMW)
	{
		api.GET("/profile", h.User.GetProfile)
		api.PUT("/profile", h.User.UpdateProfile)

		api.POST("/uploads", h.Upload.UploadImage)

		rooms := api.Group("/rooms/:code")
		{
			rooms.GET("", h.Room.GetRoom)
			rooms.GET("/qr", h.Room.GetRoomQR)

			rooms.GET("/"+models.TableChatMessages, h.Message.GetRoomMessages)
			rooms.POST("/"+models.TableChatMessages, h.Message.SendMessage)
			rooms.GET("/"+models.TableLetters, h.Message.GetRoomLetters)
			rooms.POST("/"+models.TableLetters, h.Message.WriteLetter)
			rooms.GET("/"+models.TableMemories, h.Memory.GetRoomMemories)
			rooms.POST("/"+models.TableMemories, h.Memory.CreateMemory)
			rooms.GET("/"+models.TableBouquets, h.Gift.GetRoomBouquets)
			rooms.POST("/"+models.TableBouquets, h.Gift.SendBouquet)
			rooms.GET("/"+models.TableWishlist, h.Gift.GetRoomWishlist)
			rooms.POST("/"+models.TableWishlist, h.Gift.AddWish)
			rooms.GET("/"+models.TableGames, h.Game.GetRoomGame)
			rooms.GET("/"+models.TableGameHistory, h.Game.GetRoomHistory)
		}

		api.DELETE("/"+models.TableChatMessages+"/:id", h.Message.DeleteMessage)

		letters := api.Group("/" + models.TableLetters)
		{
			letters.PATCH("/:id", h.Message.UpdateLetter)
			letters.DELETE("/:id", h.Message.DeleteLetter)
			letters.POST("/:id/read", h.Message.MarkLetterRead)
		}

		memories := api.Group("/" + models.TableMemories)
		{
			memories.PATCH("/:id", h.Memory.UpdateMemory)
			memories.DELETE("/:id", h.Memory.DeleteMemory)
		}

		story := api.Group("/" + models.TableStoryEvents)
		{
			story.GET("", h.Memory.GetStory)
			story.POST("", h.Memory.CreateStoryEvent)
			story.PATCH("/:id", h.Memory.UpdateStoryEvent)
			story.DELETE("/:id", h.Memory.DeleteStoryEvent)
		}

		api.DELETE("/"+models.TableBouquets+"/:id", h.Gift.DeleteBouquet)

		wishlist := api.Group("/" + models.TableWishlist)
		{
			wishlist.PATCH("/:id", h.Gift.UpdateWish)
			wishlist.DELETE("/:id", h.Gift.DeleteWish)
			wishlist.POST("/:id/toggle", h.Gift.ToggleWish)
		}

		games := api.Group("/games")
		{
			games.POST("", h.Game.CreateGame)
			games.POST("/join", h.Game.JoinGame)
			games.POST("/:id/moves", h.Game.Move)
			games.POST("/:id/restart", h.Game.Restart)
		}
	}
}
