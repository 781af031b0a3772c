package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"testhub/internal/auth"
	"testhub/internal/handler"
	"testhub/internal/logger"
	"testhub/internal/model"
	"testhub/internal/service"
)

// cors answers preflights and lets any origin call the API with credentials.
// The origin is echoed back because browsers refuse "*" for cookie requests.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func SetupRouter(svc *service.ServiceContext) *gin.Engine {
	r := gin.New()
	r.Use(logger.GinLogger(), logger.GinRecovery(), cors())

	cookie := auth.Cookie{Name: svc.Config.Auth.CookieName, Production: svc.Config.Auth.Production}
	mw := auth.NewMiddleware(svc.Tokens, cookie)
	protect := mw.Protect()
	managers := auth.Authorize(model.RoleAdmin, model.RoleTestManager)
	admins := auth.Authorize(model.RoleAdmin)

	authHandler := handler.NewAuthHandler(svc.Auth, svc.Users, cookie, int(svc.Tokens.TTL().Seconds()))
	userHandler := handler.NewUserHandler(svc.Users)
	projectHandler := handler.NewProjectHandler(svc.Projects, svc.Stats, svc.TestCases)
	moduleHandler := handler.NewModuleHandler(svc.Modules)
	suiteHandler := handler.NewTestSuiteHandler(svc.TestSuites)
	caseHandler := handler.NewTestCaseHandler(svc.TestCases)
	runHandler := handler.NewTestRunHandler(svc.TestRuns)

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "API is running")
	})

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.GET("/me", protect, authHandler.Me)
		}

		users := api.Group("/users", protect)
		{
			users.GET("", admins, userHandler.List)
			users.POST("", admins, userHandler.Create)
			users.GET("/:id", userHandler.Get)
			users.PUT("/:id", admins, userHandler.Update)
			users.PUT("/:id/role", admins, userHandler.UpdateRole)
			users.PUT("/:id/profile", userHandler.UpdateProfile)
			users.DELETE("/:id", admins, userHandler.Delete)
		}

		projects := api.Group("/projects", protect)
		{
			projects.GET("/allprojects", projectHandler.List)
			projects.POST("/createProject", managers, projectHandler.Create)
			projects.GET("/project/:id", projectHandler.Get)
			projects.PUT("/:id", managers, projectHandler.Update)
			projects.DELETE("/:id", admins, projectHandler.Delete)
			projects.GET("/:id/testcases", projectHandler.TestCases)
		}

		modules := api.Group("/modules", protect)
		{
			modules.GET("/getModules", moduleHandler.List)
			modules.POST("/createModule", moduleHandler.Create)
			modules.GET("/:id", moduleHandler.Get)
			modules.PUT("/:id", moduleHandler.Update)
			modules.DELETE("/:id", managers, moduleHandler.Delete)
		}

		suites := api.Group("/testsuites", protect)
		{
			suites.GET("/getTestSuites", suiteHandler.List)
			suites.POST("/createTestSuite", suiteHandler.Create)
			suites.GET("/:id", suiteHandler.Get)
			suites.PUT("/:id", suiteHandler.Update)
			suites.DELETE("/:id", managers, suiteHandler.Delete)
		}

		cases := api.Group("/testcases", protect)
		{
			cases.GET("/getAllTestCases", caseHandler.List)
			cases.POST("/createTestCase", caseHandler.Create)
			cases.POST("/import", caseHandler.Import)
			cases.GET("/reference/:testCaseId", caseHandler.GetByReference)
			cases.PUT("/updateTestCase/:id", caseHandler.Update)
			cases.GET("/:id", caseHandler.Get)
			cases.DELETE("/:id", managers, caseHandler.Delete)
			cases.POST("/:id/execute", caseHandler.Execute)
			cases.GET("/:id/executions", caseHandler.Executions)
			cases.POST("/:id/move", caseHandler.Move)
			cases.POST("/:id/copy", caseHandler.Copy)
		}

		runs := api.Group("/testruns", protect)
		{
			runs.GET("/project/:projectId", runHandler.ListByProject)
			runs.POST("/create", runHandler.Create)
			runs.GET("/:id", runHandler.Get)
			runs.PUT("/:id", runHandler.Update)
			runs.DELETE("/:id", runHandler.Delete)
			runs.POST("/:id/test-cases", runHandler.AddTestCases)
			runs.DELETE("/:id/test-cases/:testCaseId", runHandler.RemoveTestCase)
			runs.POST("/:id/test-cases/:testCaseId/execute", runHandler.Execute)
			runs.GET("/:id/test-cases/:testCaseId/history", runHandler.History)
			runs.GET("/:id/metrics", runHandler.Metrics)
			runs.PUT("/:id/complete", runHandler.Complete)
		}
	}

	return r
}
