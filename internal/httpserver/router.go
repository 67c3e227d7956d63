package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/adityaverma/campus-connect/internal/handlers"
	"github.com/adityaverma/campus-connect/internal/middleware"
)

type Deps struct {
	DB              *gorm.DB
	Auth            *middleware.Auth
	AuthHandler     *handlers.AuthHandler
	UserHandler     *handlers.UserHandler
	PostHandler     *handlers.PostHandler
	CommentHandler  *handlers.CommentHandler
	FollowHandler   *handlers.FollowHandler
	MessageHandler  *handlers.MessageHandler
	ResourceHandler *handlers.ResourceHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	users := v1.Group("/users")
	users.POST("/register", d.AuthHandler.Register)
	users.POST("/login", d.AuthHandler.Login)
	users.POST("/refresh-token", d.AuthHandler.RefreshToken)

	usersAuth := users.Group("", d.Auth.RequireAuth)
	usersAuth.POST("/logout", d.AuthHandler.Logout)
	usersAuth.POST("/change-password", d.AuthHandler.ChangePassword)
	usersAuth.GET("/profile", d.UserHandler.Profile)
	usersAuth.GET("/profile/:userId", d.UserHandler.GetUserByID)
	usersAuth.PATCH("/update-profile", d.UserHandler.UpdateProfile)
	usersAuth.GET("/search", d.UserHandler.SearchUsers)
	usersAuth.GET("/admin/users", d.UserHandler.GetAllUsers)
	usersAuth.PATCH("/admin/users/:userId/role", d.UserHandler.ChangeUserRole)

	posts := v1.Group("/posts", d.Auth.RequireAuth)
	posts.POST("", d.PostHandler.CreatePost)
	posts.GET("", d.PostHandler.GetAllPosts)
	posts.GET("/:postId", d.PostHandler.GetPostByID)
	posts.GET("/user/:userId", d.PostHandler.GetUserPosts)
	posts.PATCH("/:postId", d.PostHandler.UpdatePost)
	posts.DELETE("/:postId", d.PostHandler.DeletePost)
	posts.POST("/:postId/like", d.PostHandler.LikeUnlikePost)

	comments := v1.Group("/comments", d.Auth.RequireAuth)
	comments.POST("", d.CommentHandler.CreateComment)
	comments.GET("/post/:postId", d.CommentHandler.GetPostComments)
	comments.PATCH("/:commentId", d.CommentHandler.UpdateComment)
	comments.DELETE("/:commentId", d.CommentHandler.DeleteComment)

	follows := v1.Group("/follows", d.Auth.RequireAuth)
	follows.POST("/:userId", d.FollowHandler.FollowUser)
	follows.DELETE("/:userId", d.FollowHandler.UnfollowUser)
	follows.GET("/following", d.FollowHandler.GetFollowing)
	follows.GET("/following/:userId", d.FollowHandler.GetFollowing)
	follows.GET("/followers", d.FollowHandler.GetFollowers)
	follows.GET("/followers/:userId", d.FollowHandler.GetFollowers)
	follows.GET("/status/:targetUserId", d.FollowHandler.CheckFollowStatus)

	messages := v1.Group("/messages", d.Auth.RequireAuth)
	messages.POST("", d.MessageHandler.SendMessage)
	messages.GET("/conversations", d.MessageHandler.GetAllConversations)
	messages.GET("/conversation/:userId", d.MessageHandler.GetConversation)
	messages.DELETE("/:messageId", d.MessageHandler.DeleteMessage)

	resources := v1.Group("/resources", d.Auth.RequireAuth)
	resources.POST("", d.ResourceHandler.AddResource)
	resources.GET("/post/:postId", d.ResourceHandler.GetPostResources)
	resources.DELETE("/:resourceId", d.ResourceHandler.DeleteResource)
	resources.PATCH("/:resourceId/title", d.ResourceHandler.UpdateResourceTitle)
}
