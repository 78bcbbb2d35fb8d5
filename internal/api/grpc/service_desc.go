package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "lending.v1.BorrowingService"

// BorrowingServiceServer is the server API for BorrowingService.
type BorrowingServiceServer interface {
	SubmitRequest(context.Context, *SubmitRequestRequest) (*RequestResponse, error)
	ApproveRequest(context.Context, *ApproveRequestRequest) (*RequestResponse, error)
	RejectRequest(context.Context, *RejectRequestRequest) (*RequestResponse, error)
	CancelRequest(context.Context, *CancelRequestRequest) (*RequestResponse, error)
	HandOut(context.Context, *HandOutRequest) (*TransactionResponse, error)
	ReturnItems(context.Context, *ReturnItemsRequest) (*TransactionResponse, error)
	GetRequest(context.Context, *GetRequestRequest) (*RequestResponse, error)
	GetHistory(context.Context, *GetHistoryRequest) (*GetHistoryResponse, error)
	ListRequests(context.Context, *ListRequestsRequest) (*ListRequestsResponse, error)
	GetOutstanding(context.Context, *GetOutstandingRequest) (*GetOutstandingResponse, error)
	ReceiveStock(context.Context, *ReceiveStockRequest) (*InventoryResponse, error)
	GetInventory(context.Context, *GetInventoryRequest) (*InventoryResponse, error)
}

func RegisterBorrowingServiceServer(s grpc.ServiceRegistrar, srv BorrowingServiceServer) {
	s.RegisterService(&BorrowingServiceDesc, srv)
}

var BorrowingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BorrowingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("SubmitRequest", BorrowingServiceServer.SubmitRequest),
		unaryMethod("ApproveRequest", BorrowingServiceServer.ApproveRequest),
		unaryMethod("RejectRequest", BorrowingServiceServer.RejectRequest),
		unaryMethod("CancelRequest", BorrowingServiceServer.CancelRequest),
		unaryMethod("HandOut", BorrowingServiceServer.HandOut),
		unaryMethod("ReturnItems", BorrowingServiceServer.ReturnItems),
		unaryMethod("GetRequest", BorrowingServiceServer.GetRequest),
		unaryMethod("GetHistory", BorrowingServiceServer.GetHistory),
		unaryMethod("ListRequests", BorrowingServiceServer.ListRequests),
		unaryMethod("GetOutstanding", BorrowingServiceServer.GetOutstanding),
		unaryMethod("ReceiveStock", BorrowingServiceServer.ReceiveStock),
		unaryMethod("GetInventory", BorrowingServiceServer.GetInventory),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lending/v1/borrowing.json",
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unaryMethod builds the descriptor generated stubs would: decode, then run through the interceptor chain.
func unaryMethod[Req, Resp any](name string, call func(BorrowingServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BorrowingServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BorrowingServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// BorrowingServiceClient calls BorrowingService with the JSON codec.
type BorrowingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBorrowingServiceClient(cc grpc.ClientConnInterface) *BorrowingServiceClient {
	return &BorrowingServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BorrowingServiceClient) SubmitRequest(ctx context.Context, in *SubmitRequestRequest, opts ...grpc.CallOption) (*RequestResponse, error) {
	return invoke[RequestResponse](ctx, c.cc, "SubmitRequest", in, opts)
}

func (c *BorrowingServiceClient) ApproveRequest(ctx context.Context, in *ApproveRequestRequest, opts ...grpc.CallOption) (*RequestResponse, error) {
	return invoke[RequestResponse](ctx, c.cc, "ApproveRequest", in, opts)
}

func (c *BorrowingServiceClient) RejectRequest(ctx context.Context, in *RejectRequestRequest, opts ...grpc.CallOption) (*RequestResponse, error) {
	return invoke[RequestResponse](ctx, c.cc, "RejectRequest", in, opts)
}

func (c *BorrowingServiceClient) CancelRequest(ctx context.Context, in *CancelRequestRequest, opts ...grpc.CallOption) (*RequestResponse, error) {
	return invoke[RequestResponse](ctx, c.cc, "CancelRequest", in, opts)
}

func (c *BorrowingServiceClient) HandOut(ctx context.Context, in *HandOutRequest, opts ...grpc.CallOption) (*TransactionResponse, error) {
	return invoke[TransactionResponse](ctx, c.cc, "HandOut", in, opts)
}

func (c *BorrowingServiceClient) ReturnItems(ctx context.Context, in *ReturnItemsRequest, opts ...grpc.CallOption) (*TransactionResponse, error) {
	return invoke[TransactionResponse](ctx, c.cc, "ReturnItems", in, opts)
}

func (c *BorrowingServiceClient) GetRequest(ctx context.Context, in *GetRequestRequest, opts ...grpc.CallOption) (*RequestResponse, error) {
	return invoke[RequestResponse](ctx, c.cc, "GetRequest", in, opts)
}

func (c *BorrowingServiceClient) GetHistory(ctx context.Context, in *GetHistoryRequest, opts ...grpc.CallOption) (*GetHistoryResponse, error) {
	return invoke[GetHistoryResponse](ctx, c.cc, "GetHistory", in, opts)
}

func (c *BorrowingServiceClient) ListRequests(ctx context.Context, in *ListRequestsRequest, opts ...grpc.CallOption) (*ListRequestsResponse, error) {
	return invoke[ListRequestsResponse](ctx, c.cc, "ListRequests", in, opts)
}

func (c *BorrowingServiceClient) GetOutstanding(ctx context.Context, in *GetOutstandingRequest, opts ...grpc.CallOption) (*GetOutstandingResponse, error) {
	return invoke[GetOutstandingResponse](ctx, c.cc, "GetOutstanding", in, opts)
}

func (c *BorrowingServiceClient) ReceiveStock(ctx context.Context, in *ReceiveStockRequest, opts ...grpc.CallOption) (*InventoryResponse, error) {
	return invoke[InventoryResponse](ctx, c.cc, "ReceiveStock", in, opts)
}

func (c *BorrowingServiceClient) GetInventory(ctx context.Context, in *GetInventoryRequest, opts ...grpc.CallOption) (*InventoryResponse, error) {
	return invoke[InventoryResponse](ctx, c.cc, "GetInventory", in, opts)
}
