package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/biblio-app/biblio-api/config"
	"github.com/biblio-app/biblio-api/database"
	"github.com/biblio-app/biblio-api/handlers"
	admin_handlers "github.com/biblio-app/biblio-api/handlers/admin"
	auth_handlers "github.com/biblio-app/biblio-api/handlers/auth"
	author_handlers "github.com/biblio-app/biblio-api/handlers/author"
	book_handlers "github.com/biblio-app/biblio-api/handlers/book"
	category_handlers "github.com/biblio-app/biblio-api/handlers/category"
	fine_handlers "github.com/biblio-app/biblio-api/handlers/fine"
	loan_handlers "github.com/biblio-app/biblio-api/handlers/loan"
	reservation_handlers "github.com/biblio-app/biblio-api/handlers/reservation"
	"github.com/biblio-app/biblio-api/model"
	"github.com/biblio-app/biblio-api/services/storage"
	"github.com/biblio-app/biblio-api/utils"
	"github.com/biblio-app/biblio-api/utils/auth"
	"github.com/biblio-app/biblio-api/utils/cache"
	"github.com/biblio-app/biblio-api/utils/middleware"
)

// SetupRoutes wires every handler into the fiber app. statsStore may be
// nil; the admin stats endpoint then reports unavailable.
func SetupRoutes(app *fiber.App, store database.Storage, statsStore *database.PostgreSQLStore, env *config.EnviornmentVariable) {
	if env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	issuer := env.JWT_ISSUER
	if issuer == "" {
		issuer = "biblio-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: env.JWT_SECRET,
		Expiry: env.JWT_EXPIRY,
		Issuer: issuer,
	})

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis backs brute force protection; the API works without it
	redisURL := env.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Cover storage is optional as well
	var covers *storage.SpacesService
	if env.DO_SPACES_KEY != "" {
		covers, err = storage.NewSpacesService(storage.SpacesConfig{
			AccessKey: env.DO_SPACES_KEY,
			SecretKey: env.DO_SPACES_SECRET,
			Bucket:    env.DO_SPACES_BUCKET,
			Region:    env.DO_SPACES_REGION,
			Endpoint:  env.DO_SPACES_ENDPOINT,
			CDNURL:    env.DO_SPACES_CDN_URL,
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize Spaces client: %v. Cover uploads will be disabled.", err)
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, env.REFRESH_EXPIRY, bruteForceProtection)
	bookHandler := book_handlers.NewBookHandler(db, covers)
	authorHandler := author_handlers.NewAuthorHandler(db)
	categoryHandler := category_handlers.NewCategoryHandler(db)
	loanHandler := loan_handlers.NewLoanHandler(db)
	reservationHandler := reservation_handlers.NewReservationHandler(db)
	fineHandler := fine_handlers.NewFineHandler(db)
	adminHandler := admin_handlers.NewAdminHandler(db)
	statsHandler := admin_handlers.NewStatsHandler(statsStore)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	api := app.Group("/api")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckLockout(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Post("/forgot-password", authHandler.ForgotPassword)
	authGroup.Post("/reset-password", authHandler.ResetPassword)
	authGroup.Get("/validate", authHandler.Validate)

	// Logout resolves the token itself so expired sessions can still end
	authGroup.Post("/logout", authHandler.Logout)
	authGroup.Post("/logout-all", authHandler.LogoutAll)

	// Authenticated profile routes
	authGroup.Get("/me", authMiddleware.Required(), authHandler.Me)
	authGroup.Put("/me", authMiddleware.Required(), authHandler.UpdateProfile)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)

	// Catalog routes: public reads, staff writes
	books := api.Group("/books")
	books.Get("/", bookHandler.ListBooks)
	books.Get("/:id", bookHandler.GetBook)
	books.Post("/", authMiddleware.RequireStaff(), bookHandler.CreateBook)
	books.Put("/:id", authMiddleware.RequireStaff(), bookHandler.UpdateBook)
	books.Delete("/:id", authMiddleware.RequireStaff(), bookHandler.DeleteBook)
	books.Post("/:id/cover", authMiddleware.RequireStaff(), bookHandler.UploadCover)

	authors := api.Group("/authors")
	authors.Get("/", authorHandler.ListAuthors)
	authors.Get("/:id", authorHandler.GetAuthor)
	authors.Post("/", authMiddleware.RequireStaff(), authorHandler.CreateAuthor)
	authors.Put("/:id", authMiddleware.RequireStaff(), authorHandler.UpdateAuthor)
	authors.Delete("/:id", authMiddleware.RequireStaff(), authorHandler.DeleteAuthor)

	categories := api.Group("/categories")
	categories.Get("/", categoryHandler.ListCategories)
	categories.Get("/:id", categoryHandler.GetCategory)
	categories.Post("/", authMiddleware.RequireStaff(), categoryHandler.CreateCategory)
	categories.Put("/:id", authMiddleware.RequireStaff(), categoryHandler.UpdateCategory)
	categories.Delete("/:id", authMiddleware.RequireStaff(), categoryHandler.DeleteCategory)

	// Circulation routes
	loans := api.Group("/loans", authMiddleware.Required())
	loans.Get("/", loanHandler.ListLoans)
	loans.Get("/:id", loanHandler.GetLoan)
	loans.Post("/", authMiddleware.RequireStaff(), loanHandler.Checkout)
	loans.Post("/:id/return", authMiddleware.RequireStaff(), loanHandler.Return)

	reservations := api.Group("/reservations", authMiddleware.Required())
	reservations.Get("/", reservationHandler.ListReservations)
	reservations.Post("/", reservationHandler.Reserve)
	reservations.Delete("/:id", reservationHandler.Cancel)

	fines := api.Group("/fines", authMiddleware.Required())
	fines.Get("/", fineHandler.ListFines)
	fines.Post("/", authMiddleware.RequireStaff(), fineHandler.Issue)
	fines.Post("/:id/pay", authMiddleware.RequireStaff(), fineHandler.Pay)
	fines.Post("/:id/waive", authMiddleware.RequireRole(model.RoleAdmin), fineHandler.Waive)

	// Admin routes
	adminGroup := api.Group("/admin", authMiddleware.RequireAdmin())
	adminGroup.Get("/users", adminHandler.ListUsers)
	adminGroup.Get("/users/:id", adminHandler.GetUser)
	adminGroup.Put("/users/:id", adminHandler.UpdateUser)
	adminGroup.Delete("/users/:id", adminHandler.DeleteUser)
	adminGroup.Get("/audit-logs", adminHandler.ListAuditLogs)
	adminGroup.Get("/stats", statsHandler.GetStats)
}
