package main

import (
	"log"
	"net/http"

	"vietcart-be/internal/config"
	"vietcart-be/internal/db"
	"vietcart-be/internal/events"
	"vietcart-be/internal/logger"
	"vietcart-be/internal/middleware"
	"vietcart-be/internal/order"
	"vietcart-be/internal/payment"
	"vietcart-be/internal/utils"
	"vietcart-be/internal/vnpay"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	signer, err := vnpay.NewSigner(cfg.VNPHashSecret)
	if err != nil {
		logger.L().Fatal("invalid vnpay configuration", zap.Error(err))
	}

	store := order.NewRepository(database)

	var sink order.EventSink
	if pub := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic); pub != nil {
		defer pub.Close()
		sink = pub
	}

	reconciler := order.NewReconciler(store, sink)
	builder := vnpay.NewBuilder(vnpay.Config{
		TmnCode:   cfg.VNPTmnCode,
		PayURL:    cfg.VNPPayURL,
		ReturnURL: cfg.VNPReturnURL,
		IpnURL:    cfg.VNPIpnURL,
	}, signer, reconciler)
	verifier := vnpay.NewVerifier(signer)

	h := payment.NewHandler(builder, verifier, reconciler)

	r := mux.NewRouter()
	r.HandleFunc("/payment/create_payment_url", h.CreatePaymentURL).Methods(http.MethodPost)
	r.HandleFunc("/payment/vnpay_return", h.Return).Methods(http.MethodGet)
	r.HandleFunc("/payment/vnpay_ipn", h.IPN).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := database.Ping(); err != nil {
			utils.WriteJSONError(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	var handler http.Handler = r
	handler = middleware.RateLimitMiddleware(handler)
	handler = logger.LoggingMiddleware(handler)
	handler = logger.RequestIDMiddleware(handler)
	handler = cors.Default().Handler(handler)

	logger.L().Info("payment service listening", zap.String("port", cfg.AppPort))
	log.Fatal(http.ListenAndServe(":"+cfg.AppPort, handler))
}
