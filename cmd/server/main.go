package main

import (
	"context"
	"log"
	"os"

	"github.com/haatos/shipyard/internal"
	"github.com/haatos/shipyard/internal/forge"
	"github.com/haatos/shipyard/internal/handler"
	"github.com/haatos/shipyard/internal/hosting"
	"github.com/haatos/shipyard/internal/security"
	"github.com/haatos/shipyard/internal/service"
	"github.com/haatos/shipyard/internal/settings"
	"github.com/haatos/shipyard/internal/store"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "modernc.org/sqlite"
)

func main() {
	internal.InitializeConfiguration("config.yaml")
	settings.ReadDotenv(internal.DotEnvPath)
	settings.Settings = settings.NewSettings()
	hashKey, blockKey := security.NewKeys()
	rdb := store.InitDatabase(true)
	defer rdb.Close()
	rwdb := store.InitDatabase(false)
	defer rwdb.Close()
	store.RunMigrations(rwdb, internal.MigrationsDir)

	scheduler := service.NewScheduler()
	defer scheduler.Shutdown()

	var cache store.CacheStore
	if settings.Settings.RedisAddr != "" {
		cache = store.NewCacheRedisStore(settings.Settings.RedisAddr)
	} else {
		sqliteCache := store.NewCacheSQLiteStore()
		sqliteCache.ScheduleCleanUp(scheduler)
		cache = sqliteCache
	}
	scheduler.Start()

	userStore := store.NewUserSQLiteStore(rdb, rwdb)
	projectStore := store.NewProjectSQLiteStore(rdb, rwdb)
	deploymentStore := store.NewDeploymentSQLiteStore(rdb, rwdb)
	apiKeyStore := store.NewAPIKeySQLiteStore(rdb, rwdb)
	aesEncrypter := security.NewAESEncrypter([]byte(os.Getenv("SHIPYARD_HASH_KEY")))

	forgeClient := forge.NewClient(settings.Settings.ForgeBaseURL)
	hostingClient := hosting.NewClient(
		settings.Settings.HostingBaseURL,
		settings.Settings.HostingToken,
	)

	cookieSvc := service.NewCookieService(hashKey, blockKey)
	userSvc := service.NewUserService(userStore)
	projectSvc := service.NewProjectService(projectStore, aesEncrypter)
	apiKeySvc := service.NewAPIKeyService(apiKeyStore, service.NewUUIDGen())
	reconcileSvc := service.NewReconcileService(deploymentStore, cache, forgeClient, aesEncrypter)
	deploySvc := service.NewDeployService(deploymentStore, cache, forgeClient, aesEncrypter)
	rollbackSvc := service.NewRollbackService(deploymentStore, cache, hostingClient)

	userSvc.InitializeSuperuser(context.Background())

	authH := handler.NewAuthHandler(userSvc, cookieSvc)
	userH := handler.NewUserHandler(userSvc)
	projectH := handler.NewProjectHandler(projectSvc)
	deploymentH := handler.NewDeploymentHandler(
		projectSvc, reconcileSvc, deploySvc, rollbackSvc, apiKeySvc,
	)
	apiKeyH := handler.NewAPIKeyHandler(apiKeySvc)

	e := setupEcho()
	router := e.Group("", authH.SessionMiddleware)

	router.POST("/auth/login", authH.PostLogin)
	router.POST("/auth/logout", authH.PostLogout)

	app := router.Group("/app", handler.IsAuthenticated)

	app.GET("/users", userH.GetUsers, handler.RoleMiddleware(store.Admin))
	app.POST("/users", userH.PostUser, handler.RoleMiddleware(store.Admin))
	app.DELETE("/users/:user_id", userH.DeleteUser, handler.RoleMiddleware(store.Admin))
	app.PATCH("/users/:user_id/password", userH.PatchUserPassword)

	app.GET("/projects", projectH.GetProjects)
	app.POST("/projects", projectH.PostProject, handler.RoleMiddleware(store.Admin))
	app.GET("/projects/:project_id", projectH.GetProject)
	app.PATCH(
		"/projects/:project_id/forge-token",
		projectH.PatchProjectForgeToken,
		handler.RoleMiddleware(store.Admin),
	)
	app.DELETE(
		"/projects/:project_id",
		projectH.DeleteProject,
		handler.RoleMiddleware(store.Admin),
	)

	app.GET("/projects/:project_id/deployments", deploymentH.GetProjectDeployments)
	app.GET("/projects/:project_id/deployments/history", deploymentH.GetProjectDeploymentHistory)
	app.POST("/projects/:project_id/deployments", deploymentH.PostProjectDeployment)
	app.POST("/projects/:project_id/rollback", deploymentH.PostProjectRollback)

	app.GET("/api-keys", apiKeyH.GetAPIKeys, handler.RoleMiddleware(store.Admin))
	app.POST("/api-keys", apiKeyH.PostAPIKey, handler.RoleMiddleware(store.Admin))
	app.DELETE(
		"/api-keys/:api_key_id",
		apiKeyH.DeleteAPIKey,
		handler.RoleMiddleware(store.Admin),
	)

	// webhook trigger authenticates with an api key, not a session
	e.POST(
		"/webhooks/projects/:project_id/deployments",
		deploymentH.PostWebhookDeployTrigger,
	)

	internal.GracefulShutdown(e, settings.Settings.Port)
}

func setupEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(
		middleware.CORSWithConfig(internal.GetCORSConfig()),
		middleware.RateLimiterWithConfig(internal.GetRateLimiterConfig()),
	)
	return e
}

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
