package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/db"
	"github.com/clipforge/clipforge/internal/repository"
	"github.com/clipforge/clipforge/internal/service"
	"github.com/clipforge/clipforge/internal/service/payment"
	"github.com/clipforge/clipforge/internal/storage"
)

type App struct {
	Cfg                 *config.Config
	DB                  *sqlx.DB
	UserRepository      repository.UserRepository
	AuthService         *service.AuthService
	VerificationService *service.VerificationService
	EmailService        *service.EmailService
	CreditService       *service.CreditService
	BillingService      *service.BillingService
	VideoService        *service.VideoService
	PaymentService      payment.Provider
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	creditRepository := repository.NewCreditRepository(database)
	billingEventRepository := repository.NewBillingEventRepository(database)
	videoRepository := repository.NewVideoRepository(database)

	// Storage
	videoStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	verificationService := service.NewVerificationService(userRepository, emailService, cfg.TokenEmailVerifyExpiry)
	creditService := service.NewCreditService(creditRepository)
	billingService := service.NewBillingService(
		database,
		userRepository,
		creditRepository,
		billingEventRepository,
		cfg.ProductCatalog(),
	)

	// Initialize payment provider based on config
	paymentProvider, err := payment.NewProvider(cfg, billingService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payment provider: %v", err)
	}

	authService := service.NewAuthService(
		userRepository,
		verificationService,
		cfg.JWTSecret,
		cfg.IsProduction(),
		cfg.JWTExpiry,
		cfg.SignupCredits,
	)
	videoService := service.NewVideoService(videoRepository, creditService, videoStorage, cfg.VideoCreditCost)

	return &App{
		Cfg:                 cfg,
		DB:                  database,
		UserRepository:      userRepository,
		AuthService:         authService,
		VerificationService: verificationService,
		EmailService:        emailService,
		CreditService:       creditService,
		BillingService:      billingService,
		VideoService:        videoService,
		PaymentService:      paymentProvider,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
