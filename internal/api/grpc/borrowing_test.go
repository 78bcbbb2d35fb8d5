package grpc_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	lendinggrpc "warehouse-lending-backend/internal/api/grpc"
	"warehouse-lending-backend/internal/api/grpc/interceptor"
	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/repository/memory"
	"warehouse-lending-backend/internal/security"
	"warehouse-lending-backend/internal/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testServer struct {
	client *lendinggrpc.BorrowingServiceClient
	health healthpb.HealthClient
	tokens security.TokenManager
}

func startServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	store.AddItemType(domain.ItemType{ID: 5, Name: "Cordless drill", Unit: "pcs", UnitPrice: decimal.RequireFromString("10.00")})

	clock := service.SystemClock()
	ledger := service.NewInventoryLedger(store.InventoryRepository, store, service.DefaultLockRetryPolicy())
	resolver := service.NewItemLineResolver(store.CatalogRepository, store.RequestRepository)
	recorder := service.NewTransactionRecorder(store.TransactionRepository, store.RequestRepository, service.NewULIDGenerator(clock), clock)
	requests := service.NewRequestService(store, store.RequestRepository, resolver, ledger, recorder, clock, service.LendingPolicy{DefaultLocationID: 1})
	reporting := service.NewReportingService(store.InventoryRepository, store.RequestRepository, resolver, clock)

	tokens := security.NewTokenManager(testSecret, time.Hour)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		interceptor.RequestLogging(),
		interceptor.NewAuthInterceptor(tokens).Unary(),
	))
	lendinggrpc.RegisterBorrowingServiceServer(srv, lendinggrpc.NewBorrowingHandler(requests, reporting, ledger, clock))
	healthpb.RegisterHealthServer(srv, health.NewServer())

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &testServer{
		client: lendinggrpc.NewBorrowingServiceClient(conn),
		health: healthpb.NewHealthClient(conn),
		tokens: tokens,
	}
}

func (s *testServer) as(t *testing.T, userID int32, role domain.Role) context.Context {
	t.Helper()
	token, err := s.tokens.GenerateAccessToken(userID, role)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func TestBorrowingService_Lifecycle(t *testing.T) {
	s := startServer(t)
	customer := s.as(t, 42, domain.RoleCustomer)
	stranger := s.as(t, 43, domain.RoleCustomer)
	staff := s.as(t, 7, domain.RoleEmployee)

	stock, err := s.client.ReceiveStock(staff, &lendinggrpc.ReceiveStockRequest{MaterialID: 5, LocationID: 1, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, int32(5), stock.Record.Available)

	submitted, err := s.client.SubmitRequest(customer, &lendinggrpc.SubmitRequestRequest{
		Purpose:    "Shelf install",
		RequiredBy: time.Now().Add(24 * time.Hour),
		Lines:      []lendinggrpc.LineInput{{ItemTypeID: domain.Int32Ptr(5), Quantity: 3}},
	})
	require.NoError(t, err)
	req := submitted.Request
	assert.Equal(t, int32(42), req.RequesterID)
	assert.Equal(t, "PENDING", req.Status)
	assert.Equal(t, "30.00", req.EstimatedValue)

	_, err = s.client.ApproveRequest(customer, &lendinggrpc.ApproveRequestRequest{RequestID: req.ID})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = s.client.GetRequest(stranger, &lendinggrpc.GetRequestRequest{RequestID: req.ID})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "belongs to another user")

	_, err = s.client.GetHistory(stranger, &lendinggrpc.GetHistoryRequest{RequestID: req.ID})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	approved, err := s.client.ApproveRequest(staff, &lendinggrpc.ApproveRequestRequest{RequestID: req.ID})
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", approved.Request.Status)
	require.NotNil(t, approved.Request.ApproverID)
	assert.Equal(t, int32(7), *approved.Request.ApproverID)

	handed, err := s.client.HandOut(staff, &lendinggrpc.HandOutRequest{RequestID: req.ID})
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", handed.Request.Status)
	assert.Equal(t, "BORROW", handed.Event.Kind)

	lineID := req.Lines[0].ID
	returned, err := s.client.ReturnItems(staff, &lendinggrpc.ReturnItemsRequest{RequestID: req.ID, Quantities: map[int32]int32{lineID: 1}})
	require.NoError(t, err)
	assert.Equal(t, "PARTIAL_RETURN", returned.Event.Kind)

	outstanding, err := s.client.GetOutstanding(customer, &lendinggrpc.GetOutstandingRequest{RequestID: req.ID})
	require.NoError(t, err)
	assert.Equal(t, int32(2), outstanding.Lines[0].Outstanding)

	history, err := s.client.GetHistory(customer, &lendinggrpc.GetHistoryRequest{RequestID: req.ID})
	require.NoError(t, err)
	assert.Len(t, history.Events, 2)

	inv, err := s.client.GetInventory(staff, &lendinggrpc.GetInventoryRequest{MaterialID: 5, LocationID: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(3), inv.Record.OnHand)
	assert.Equal(t, int32(2), inv.Record.OnLoan)

	mine, err := s.client.ListRequests(stranger, &lendinggrpc.ListRequestsRequest{})
	require.NoError(t, err)
	assert.Equal(t, int32(0), mine.TotalCount)
}

func TestBorrowingService_ErrorCodes(t *testing.T) {
	s := startServer(t)
	customer := s.as(t, 42, domain.RoleCustomer)
	staff := s.as(t, 7, domain.RoleEmployee)

	_, err := s.client.ReceiveStock(staff, &lendinggrpc.ReceiveStockRequest{MaterialID: 5, LocationID: 1, Quantity: 2})
	require.NoError(t, err)

	submitted, err := s.client.SubmitRequest(customer, &lendinggrpc.SubmitRequestRequest{
		RequiredBy: time.Now().Add(time.Hour),
		Lines:      []lendinggrpc.LineInput{{ItemTypeID: domain.Int32Ptr(5), Quantity: 3}},
	})
	require.NoError(t, err)

	_, err = s.client.ApproveRequest(staff, &lendinggrpc.ApproveRequestRequest{RequestID: submitted.Request.ID})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = s.client.SubmitRequest(customer, &lendinggrpc.SubmitRequestRequest{RequiredBy: time.Now().Add(-time.Hour)})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.client.GetRequest(staff, &lendinggrpc.GetRequestRequest{RequestID: 999})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = s.client.GetRequest(context.Background(), &lendinggrpc.GetRequestRequest{RequestID: 1})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = s.client.SubmitRequest(customer, &lendinggrpc.SubmitRequestRequest{
		RequesterID: 99,
		RequiredBy:  time.Now().Add(time.Hour),
		Lines:       []lendinggrpc.LineInput{{Description: "Tape", Quantity: 1}},
	})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	resp, err := s.health.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
