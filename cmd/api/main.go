package main

import (
	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/events"
	"app/internal/handler"
	"app/internal/infra/db"
	"app/internal/infra/payment"
	infraRepo "app/internal/infra/repository"
	"app/internal/logging"
	"app/internal/server"
	"app/internal/usecase"

	"github.com/joho/godotenv"
)

// 税・送料は外部ポリシー。差し替え前提のプレースホルダを置いておく。
func flatTax(taxableCents int64) int64 {
	//10%（端数切り捨て）
	return taxableCents / 10
}

func flatShipping(subtotalCents int64, country string) int64 {
	//一定額以上は送料無料
	if subtotalCents >= 10000 {
		return 0
	}
	return 500
}

func main() {
	//.envは無くてもよい（コンテナでは環境変数で渡す）
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New("checkout-api", cfg.LogLevel)

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connect")
	}
	if err := gormDB.AutoMigrate(
		&model.Product{},
		&model.ProductVariant{},
		&model.Cart{},
		&model.CartItem{},
		&model.DiscountCode{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderEvent{},
		&model.PaymentRecord{},
		&model.ProcessedWebhookEvent{},
	); err != nil {
		logger.Fatal().Err(err).Msg("db migrate")
	}

	//Tx管理（リポジトリはこの中で生成される）
	tx := infraRepo.NewTxManagerGorm(gormDB)

	//決済プロバイダ（ブレーカー・リトライ込み）
	provider := payment.NewClient(cfg.PaymentProviderURL, cfg.PaymentProviderKey, cfg.PaymentTimeout, logger)

	//注文イベント配信（ブローカー未設定ならnilのまま動く）
	publisher := events.NewPublisher(cfg.KafkaBrokers, "order-events", logger)
	defer publisher.Close()

	//Usecase生成
	cartUC := usecase.NewCartUsecase(tx)
	discountUC := usecase.NewDiscountUsecase(tx)
	checkoutUC := usecase.NewCheckoutUsecase(tx, publisher, logger, cfg.Currency, flatTax, flatShipping)
	intentUC := usecase.NewPaymentIntentUsecase(tx, provider, logger, cfg.PaymentTimeout)
	webhookUC := usecase.NewWebhookUsecase(tx, publisher, logger)
	orderUC := usecase.NewOrderUsecase(tx, publisher, logger)

	//Handler生成
	handlers := server.Handlers{
		Cart:     handler.NewCartHandler(cartUC),
		Checkout: handler.NewCheckoutHandler(checkoutUC),
		Discount: handler.NewDiscountHandler(discountUC),
		Payment:  handler.NewPaymentHandler(intentUC),
		Webhook:  handler.NewWebhookHandler(webhookUC, cfg.WebhookSecret),
		Order:    handler.NewOrderHandler(orderUC),
	}

	//Server起動
	e := server.New(cfg, handlers)

	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	logger.Info().Str("addr", addr).Msg("starting checkout api")
	if err := server.Start(e, addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
