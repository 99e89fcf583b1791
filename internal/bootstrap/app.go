package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"gopherai-interview/internal/ai"
	"gopherai-interview/internal/app"
	"gopherai-interview/internal/blobstore"
	"gopherai-interview/internal/config"
	"gopherai-interview/internal/model"
	mysqlClient "gopherai-interview/internal/platform/mysql"
	rabbitmqClient "gopherai-interview/internal/platform/rabbitmq"
	redisClient "gopherai-interview/internal/platform/redis"
	"gopherai-interview/internal/repository"
	"gopherai-interview/internal/search"
	"gopherai-interview/internal/session"
	"gopherai-interview/internal/speech"
	"gopherai-interview/internal/worker"
)

// Clients are the managed service clients shared by the server and prepctl.
type Clients struct {
	LLM    *ai.OpenAICompatibleClient
	Search *search.Client
	Speech *speech.Client
	Models app.Models
}

func NewClients(cfg *config.Config, logger *slog.Logger) Clients {
	chat := ai.ChatConfig{
		BaseURL:    cfg.LLM.Endpoint,
		APIKey:     cfg.LLM.APIKey,
		Model:      cfg.LLM.ChatDeployment,
		Azure:      cfg.LLM.Azure,
		APIVersion: cfg.LLM.APIVersion,
	}
	embedding := chat
	embedding.Model = cfg.LLM.EmbeddingDeployment

	var image ai.ChatConfig
	if cfg.ImageEnabled() {
		image = chat
		image.Model = cfg.LLM.ImageDeployment
		if cfg.LLM.ImageEndpoint != "" {
			image.BaseURL = cfg.LLM.ImageEndpoint
		}
		if cfg.LLM.ImageAPIKey != "" {
			image.APIKey = cfg.LLM.ImageAPIKey
		}
	}

	return Clients{
		LLM: ai.NewOpenAICompatibleClient(),
		Search: search.NewClient(search.Config{
			Endpoint:   cfg.Search.Endpoint,
			APIKey:     cfg.Search.APIKey,
			APIVersion: cfg.Search.APIVersion,
		}, logger.With("client", "search")),
		Speech: speech.NewClient(speech.Config{
			Key:      cfg.Speech.Key,
			Region:   cfg.Speech.Region,
			Voice:    cfg.Speech.Voice,
			Language: cfg.Speech.Language,
			Rate:     cfg.Speech.Rate,
		}, logger.With("client", "speech")),
		Models: app.Models{
			Chat:      chat,
			Embedding: embedding,
			Image:     image,
			MaxTokens: cfg.LLM.MaxTokens,
		},
	}
}

// ContentServices builds the two index owning services. prepctl needs only these.
func ContentServices(cfg *config.Config, c Clients, sessions session.Store, logger *slog.Logger) (*app.QuestionBankService, *app.KnowledgeService) {
	dims := cfg.Search.VectorDimensions
	bank := app.NewQuestionBankService(c.LLM, c.Search, sessions, c.Models, cfg.Search.QuestionIndex, dims, logger)
	knowledge := app.NewKnowledgeService(c.LLM, c.Search, c.Models, cfg.Search.KnowledgeIndex, dims, logger)
	return bank, knowledge
}

type App struct {
	Config *config.Config
	Logger *slog.Logger

	MySQL         *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	ArchiveWorker *worker.ArchiveWorker

	Clients  Clients
	Sessions session.Store
	Blobs    blobstore.Store

	Auth      *app.AuthService
	Bank      *app.QuestionBankService
	Knowledge *app.KnowledgeService
	Profiles  *app.ProfileService
	Practice  *app.PracticeService
	Reports   *app.ReportService
	Archive   *app.ArchiveService

	StartedAt time.Time
}

// New connects the enabled infrastructure and wires every service.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}
	if err := a.connect(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.wire()

	if a.MQConn != nil {
		records := repository.NewPracticeRecordRepository(a.MySQL)
		a.ArchiveWorker = worker.NewArchiveWorker(a.MQConn, records, a.Blobs, cfg.RabbitMQ.ArchiveQueue, logger)
		if err := a.ArchiveWorker.Start(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("start archive worker failed: %w", err)
		}
	}

	logger.Info("application ready",
		"mysql", a.MySQL != nil,
		"redis", a.Redis != nil,
		"rabbitmq", a.MQConn != nil,
		"search", cfg.SearchEnabled(),
		"speech", cfg.SpeechEnabled(),
		"storage", cfg.StorageEnabled(),
		"image", cfg.ImageEnabled(),
	)
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	cfg := a.Config

	if cfg.MySQL.Enabled {
		db, err := mysqlClient.New(ctx, cfg.MySQLDSN(), a.Logger)
		if err != nil {
			return err
		}
		a.MySQL = db
		if err := mysqlClient.Migrate(db, &model.User{}, &model.StudentProfileRecord{}, &model.PracticeRecord{}); err != nil {
			return err
		}
	}

	if cfg.Redis.Enabled {
		cli, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		a.Redis = cli
	}

	// The archive worker writes to MySQL, so the queue is useless without it.
	if cfg.RabbitMQ.Enabled && a.MySQL != nil {
		conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.ArchiveQueue)
		if err != nil {
			return err
		}
		a.MQConn = conn
	}

	a.Blobs = blobstore.Nop{}
	if cfg.StorageEnabled() {
		store, err := blobstore.NewAzureStore(ctx, cfg.Storage.ConnectionString, cfg.Storage.Container, a.Logger)
		if err != nil {
			// Blob archiving is best-effort; the rest of the app works without it.
			a.Logger.Warn("blob storage disabled", "error", err)
		} else {
			a.Blobs = store
		}
	}
	return nil
}

func (a *App) wire() {
	cfg := a.Config
	logger := a.Logger

	if a.Redis != nil {
		a.Sessions = session.NewRedisStore(a.Redis, redisClient.SessionTTL(cfg.Redis))
	} else {
		a.Sessions = session.NewMemoryStore()
	}

	var (
		users    app.UserStore
		profiles app.ProfileStore
		records  app.RecordLister
	)
	if a.MySQL != nil {
		users = repository.NewUserRepository(a.MySQL)
		profiles = repository.NewProfileRepository(a.MySQL)
		records = repository.NewPracticeRecordRepository(a.MySQL)
	} else {
		users = repository.NewMemoryUserRepository()
	}

	var publisher app.ArchivePublisher
	if a.MQConn != nil {
		publisher = rabbitmqClient.NewArchivePublisher(a.MQConn, cfg.RabbitMQ.ArchiveQueue)
	}

	a.Clients = NewClients(cfg, logger)
	a.Auth = app.NewAuthService(users, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute)
	a.Bank, a.Knowledge = ContentServices(cfg, a.Clients, a.Sessions, logger)
	a.Profiles = app.NewProfileService(a.Clients.LLM, a.Sessions, profiles, a.Clients.Models, logger)
	a.Practice = app.NewPracticeService(
		a.Clients.LLM,
		a.Clients.Search,
		a.Clients.Speech,
		a.Sessions,
		a.Profiles,
		a.Blobs,
		a.Clients.Models,
		app.PracticeIndexes{Knowledge: cfg.Search.KnowledgeIndex, Questions: cfg.Search.QuestionIndex},
		logger,
	)
	a.Reports = app.NewReportService(a.Sessions, cfg.Report.FontPath, cfg.Report.OutputDir, logger)
	a.Archive = app.NewArchiveService(a.Sessions, publisher, records, logger)
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.ArchiveWorker != nil {
		a.ArchiveWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
