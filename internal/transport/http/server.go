package http

import (
	"path/filepath"

	"github.com/gin-gonic/gin"

	"gopherai-interview/internal/bootstrap"
	"gopherai-interview/internal/transport/http/handler"
	"gopherai-interview/internal/transport/http/middleware"
)

// maxMultipartMemory keeps ten 20 MB uploads mostly in memory.
const maxMultipartMemory = 64 << 20

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.AccessLog(nil), gin.Recovery())
	router.MaxMultipartMemory = maxMultipartMemory

	healthHandler := handler.NewHealthHandler(app)
	router.StaticFile("/", filepath.Join(app.Config.App.WebDir, "index.html"))
	router.GET("/healthz", healthHandler.Check)

	authHandler := handler.NewAuthHandler(app.Auth)
	bankHandler := handler.NewBankHandler(app.Bank)
	materialsHandler := handler.NewMaterialsHandler(app.Knowledge, app.Bank)
	profileHandler := handler.NewProfileHandler(app.Profiles)
	practiceHandler := handler.NewPracticeHandler(app.Practice, app.Archive)
	speechHandler := handler.NewSpeechHandler(app.Practice)
	reportHandler := handler.NewReportHandler(app.Reports, app.Auth)
	simulatorHandler := handler.NewSimulatorHandler()

	authJWT := middleware.AuthJWT(app.Config.Auth.JWTSecret)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authJWT, authHandler.Me)
	authGroup.PUT("/me", authJWT, authHandler.UpdateMe)

	bankGroup := v1.Group("/bank")
	bankGroup.Use(authJWT)
	bankGroup.POST("/chat", bankHandler.Chat)
	bankGroup.POST("/chat/stream", bankHandler.StreamChat)
	bankGroup.DELETE("/chat", bankHandler.ResetChat)
	bankGroup.POST("/generate", bankHandler.Generate)
	bankGroup.POST("/from-document", bankHandler.FromDocument)
	bankGroup.GET("/stats", bankHandler.Stats)

	materialsGroup := v1.Group("/materials")
	materialsGroup.Use(authJWT)
	materialsGroup.POST("/upload", materialsHandler.Upload)
	materialsGroup.POST("/seed", materialsHandler.Seed)

	profileGroup := v1.Group("/profile")
	profileGroup.Use(authJWT)
	profileGroup.GET("", profileHandler.Get)
	profileGroup.POST("", profileHandler.Analyze)
	profileGroup.POST("/detailed", profileHandler.Detailed)
	profileGroup.POST("/personalized", profileHandler.Personalized)
	profileGroup.POST("/deep-dive", profileHandler.DeepDive)

	practiceGroup := v1.Group("/practice")
	practiceGroup.Use(authJWT)
	practiceGroup.POST("/study", practiceHandler.Study)
	practiceGroup.POST("/interview", practiceHandler.Interview)
	practiceGroup.POST("/bank-question", practiceHandler.BankQuestion)
	practiceGroup.POST("/answer", practiceHandler.Answer)
	practiceGroup.POST("/evaluate", practiceHandler.Evaluate)
	practiceGroup.POST("/search", practiceHandler.Search)
	practiceGroup.GET("/session", practiceHandler.Session)
	practiceGroup.DELETE("/session", practiceHandler.ClearSession)
	practiceGroup.POST("/session/archive", practiceHandler.ArchiveSession)
	practiceGroup.GET("/history", practiceHandler.History)

	speechGroup := v1.Group("/speech")
	speechGroup.Use(authJWT)
	speechGroup.POST("/tts", speechHandler.TTS)
	speechGroup.POST("/stt", speechHandler.STT)

	v1.GET("/report", authJWT, reportHandler.Download)

	simulatorGroup := v1.Group("/simulator")
	simulatorGroup.POST("/cvd", simulatorHandler.CVD)
	simulatorGroup.POST("/rie", simulatorHandler.RIE)
	simulatorGroup.POST("/sputtering", simulatorHandler.Sputtering)

	return router
}
