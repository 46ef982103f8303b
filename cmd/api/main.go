package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/lumenpay/wallet-api/internal/balance"
	"github.com/lumenpay/wallet-api/internal/bundler"
	"github.com/lumenpay/wallet-api/internal/chain"
	"github.com/lumenpay/wallet-api/internal/config"
	"github.com/lumenpay/wallet-api/internal/dispatch"
	"github.com/lumenpay/wallet-api/internal/handlers"
	"github.com/lumenpay/wallet-api/internal/logger"
	"github.com/lumenpay/wallet-api/internal/server"
	"github.com/lumenpay/wallet-api/internal/session"
	"github.com/lumenpay/wallet-api/internal/store"
	"github.com/lumenpay/wallet-api/internal/wallet"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	if err := config.Init(); err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	logger.Init(cfg.Stage)
	defer logger.Sync()

	ctx := context.Background()

	// Persistence backend
	st, err := newStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer st.Close()

	// Chain and bundler clients
	chainClient, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		logger.Fatal("Failed to connect to chain RPC", zap.Error(err))
	}
	defer chainClient.Close()

	bundlerClient, err := bundler.NewClient(ctx, bundler.ClientConfig{
		BundlerURL: cfg.BundlerURL,
		EntryPoint: common.HexToAddress(cfg.EntryPointAddress),
	})
	if err != nil {
		logger.Fatal("Failed to connect to bundler", zap.Error(err))
	}
	defer bundlerClient.Close()

	// Account derivation and session management
	net := buildNetwork(cfg)
	deriver := wallet.NewDeriver(net, chainClient)
	linker := wallet.NewLinker(deriver)
	sessions := session.NewManager(st, deriver, linker, cfg.AccountIndex)

	// Balance gating and transfer dispatch
	assets, err := buildRegistry(cfg)
	if err != nil {
		logger.Fatal("Failed to build asset registry", zap.Error(err))
	}
	gate := balance.NewGate(chainClient)
	dispatcher := dispatch.NewDispatcher(bundlerClient, chainClient, gate, net, cfg.SponsorGas)

	// HTTP surface
	router := gin.Default()
	server.InitializeHandlers(handlers.NewCommonServices(sessions, dispatcher, gate, assets))
	server.InitializeRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting",
			zap.String("port", cfg.Port),
			zap.String("network", cfg.NetworkName))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

// newStore selects the persistence backend. Memory is for local development
// only; records do not survive a restart.
func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "postgres":
		return store.NewPostgresStore(ctx, cfg.DatabaseURL)
	case "badger":
		return store.NewBadgerStore(cfg.BadgerDir)
	case "memory":
		logger.Warn("Using in-memory wallet store, records will not survive a restart")
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND: %s", cfg.StoreBackend)
	}
}

func buildNetwork(cfg *config.Config) wallet.Network {
	implementations := make(map[string]common.Address, len(cfg.AccountImplementations))
	for version, address := range cfg.AccountImplementations {
		implementations[version] = common.HexToAddress(address)
	}

	return wallet.Network{
		Name:            cfg.NetworkName,
		ChainID:         cfg.ChainID,
		EntryPoint:      common.HexToAddress(cfg.EntryPointAddress),
		Factory:         common.HexToAddress(cfg.FactoryAddress),
		Version:         cfg.AccountVersion,
		Implementations: implementations,
	}
}

func buildRegistry(cfg *config.Config) (*balance.Registry, error) {
	tokenConfigs, err := cfg.TokenList()
	if err != nil {
		return nil, err
	}

	tokens := make([]balance.Asset, 0, len(tokenConfigs))
	for _, tc := range tokenConfigs {
		tokens = append(tokens, balance.TokenAsset(tc.Symbol, common.HexToAddress(tc.Address), tc.Decimals))
	}

	native := balance.NativeAsset(cfg.NativeSymbol, cfg.NativeDecimals)
	return balance.NewRegistry(native, tokens), nil
}
