// Package testutil provides shared test doubles and HTTP test helpers.
package testutil

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"github.com/lumenpay/wallet-api/internal/bundler"
)

// MockChainReader provides a mock for the chain read surface
type MockChainReader struct {
	mock.Mock
}

func (m *MockChainReader) ChainID(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockChainReader) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockChainReader) TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	args := m.Called(ctx, token, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockChainReader) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockChainReader) AccountNonce(ctx context.Context, entryPoint, account common.Address) (*big.Int, error) {
	args := m.Called(ctx, entryPoint, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockChainReader) GasFees(ctx context.Context) (*big.Int, *big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*big.Int), args.Get(1).(*big.Int), args.Error(2)
}

// MockSubmitter provides a mock for the bundler submission surface
type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) EstimateUserOperationGas(ctx context.Context, op *bundler.UserOperation) (*bundler.GasEstimate, error) {
	args := m.Called(ctx, op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bundler.GasEstimate), args.Error(1)
}

func (m *MockSubmitter) SponsorUserOperation(ctx context.Context, op *bundler.UserOperation) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

func (m *MockSubmitter) SendUserOperation(ctx context.Context, op *bundler.UserOperation) (common.Hash, error) {
	args := m.Called(ctx, op)
	return args.Get(0).(common.Hash), args.Error(1)
}

// TestServer creates a test HTTP server with Gin
func TestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return server
}

// TestContext creates a test Gin context
func TestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)

	return ctx, recorder
}

// AssertStatusCode checks HTTP status code
func AssertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()

	if recorder.Code != expected {
		t.Errorf("Expected status code %d, got %d. Response body: %s",
			expected, recorder.Code, recorder.Body.String())
	}
}
