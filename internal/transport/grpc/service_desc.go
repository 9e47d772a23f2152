package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "lumina.v1.BookingService"

// BookingServiceServer is the server API of lumina.v1.BookingService.
// Messages are google.protobuf.Struct so clients need no generated stubs.
type BookingServiceServer interface {
	Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	OpenBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CloseBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetBookingView(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	NavigateMonth(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SelectDate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SelectSlot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ConfirmBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListBookings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SetBookingStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(srv BookingServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

var BookingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Login", BookingServiceServer.Login),
		unary("OpenBooking", BookingServiceServer.OpenBooking),
		unary("CloseBooking", BookingServiceServer.CloseBooking),
		unary("GetBookingView", BookingServiceServer.GetBookingView),
		unary("NavigateMonth", BookingServiceServer.NavigateMonth),
		unary("SelectDate", BookingServiceServer.SelectDate),
		unary("SelectSlot", BookingServiceServer.SelectSlot),
		unary("ConfirmBooking", BookingServiceServer.ConfirmBooking),
		unary("ListBookings", BookingServiceServer.ListBookings),
		unary("SetBookingStatus", BookingServiceServer.SetBookingStatus),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lumina/v1/booking.proto",
}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&BookingServiceDesc, srv)
}

func unary(name string, call unaryCall) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BookingServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BookingServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// BookingClient calls lumina.v1.BookingService by method name.
type BookingClient struct {
	cc grpc.ClientConnInterface
}

func NewBookingClient(cc grpc.ClientConnInterface) *BookingClient {
	return &BookingClient{cc: cc}
}

func (c *BookingClient) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
