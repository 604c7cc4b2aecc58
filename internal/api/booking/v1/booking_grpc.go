package bookingv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "booking.v1.BookingService"

const (
	BookingService_BookAppointment_FullMethodName        = "/booking.v1.BookingService/BookAppointment"
	BookingService_RescheduleAppointment_FullMethodName  = "/booking.v1.BookingService/RescheduleAppointment"
	BookingService_CancelAppointment_FullMethodName      = "/booking.v1.BookingService/CancelAppointment"
	BookingService_GetAppointment_FullMethodName         = "/booking.v1.BookingService/GetAppointment"
	BookingService_ListUserAppointments_FullMethodName   = "/booking.v1.BookingService/ListUserAppointments"
	BookingService_ListDoctorAppointments_FullMethodName = "/booking.v1.BookingService/ListDoctorAppointments"
	BookingService_AddAvailability_FullMethodName        = "/booking.v1.BookingService/AddAvailability"
	BookingService_DeleteAvailability_FullMethodName     = "/booking.v1.BookingService/DeleteAvailability"
	BookingService_ListAvailability_FullMethodName       = "/booking.v1.BookingService/ListAvailability"
	BookingService_CancelPayment_FullMethodName          = "/booking.v1.BookingService/CancelPayment"
	BookingService_GetPayment_FullMethodName             = "/booking.v1.BookingService/GetPayment"
)

// Метаданные запроса с идентификатором вызывающего пользователя.
const CallerIDMetadataKey = "x-user-id"

type BookingServiceServer interface {
	BookAppointment(context.Context, *BookAppointmentRequest) (*BookAppointmentResponse, error)
	RescheduleAppointment(context.Context, *RescheduleAppointmentRequest) (*RescheduleAppointmentResponse, error)
	CancelAppointment(context.Context, *CancelAppointmentRequest) (*CancelAppointmentResponse, error)
	GetAppointment(context.Context, *GetAppointmentRequest) (*GetAppointmentResponse, error)
	ListUserAppointments(context.Context, *ListUserAppointmentsRequest) (*ListUserAppointmentsResponse, error)
	ListDoctorAppointments(context.Context, *ListDoctorAppointmentsRequest) (*ListDoctorAppointmentsResponse, error)
	AddAvailability(context.Context, *AddAvailabilityRequest) (*AddAvailabilityResponse, error)
	DeleteAvailability(context.Context, *DeleteAvailabilityRequest) (*DeleteAvailabilityResponse, error)
	ListAvailability(context.Context, *ListAvailabilityRequest) (*ListAvailabilityResponse, error)
	CancelPayment(context.Context, *CancelPaymentRequest) (*CancelPaymentResponse, error)
	GetPayment(context.Context, *GetPaymentRequest) (*GetPaymentResponse, error)
	mustEmbedUnimplementedBookingServiceServer()
}

// UnimplementedBookingServiceServer встраивается в реализацию сервера.
type UnimplementedBookingServiceServer struct{}

func (UnimplementedBookingServiceServer) BookAppointment(context.Context, *BookAppointmentRequest) (*BookAppointmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method BookAppointment not implemented")
}
func (UnimplementedBookingServiceServer) RescheduleAppointment(context.Context, *RescheduleAppointmentRequest) (*RescheduleAppointmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RescheduleAppointment not implemented")
}
func (UnimplementedBookingServiceServer) CancelAppointment(context.Context, *CancelAppointmentRequest) (*CancelAppointmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelAppointment not implemented")
}
func (UnimplementedBookingServiceServer) GetAppointment(context.Context, *GetAppointmentRequest) (*GetAppointmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAppointment not implemented")
}
func (UnimplementedBookingServiceServer) ListUserAppointments(context.Context, *ListUserAppointmentsRequest) (*ListUserAppointmentsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListUserAppointments not implemented")
}
func (UnimplementedBookingServiceServer) ListDoctorAppointments(context.Context, *ListDoctorAppointmentsRequest) (*ListDoctorAppointmentsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListDoctorAppointments not implemented")
}
func (UnimplementedBookingServiceServer) AddAvailability(context.Context, *AddAvailabilityRequest) (*AddAvailabilityResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AddAvailability not implemented")
}
func (UnimplementedBookingServiceServer) DeleteAvailability(context.Context, *DeleteAvailabilityRequest) (*DeleteAvailabilityResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteAvailability not implemented")
}
func (UnimplementedBookingServiceServer) ListAvailability(context.Context, *ListAvailabilityRequest) (*ListAvailabilityResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListAvailability not implemented")
}
func (UnimplementedBookingServiceServer) CancelPayment(context.Context, *CancelPaymentRequest) (*CancelPaymentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelPayment not implemented")
}
func (UnimplementedBookingServiceServer) GetPayment(context.Context, *GetPaymentRequest) (*GetPaymentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPayment not implemented")
}
func (UnimplementedBookingServiceServer) mustEmbedUnimplementedBookingServiceServer() {}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&BookingService_ServiceDesc, srv)
}

// unaryHandler заменяет по одному сгенерированному обработчику на метод.
func unaryHandler[Req, Resp any](
	fullMethod string,
	call func(BookingServiceServer, context.Context, *Req) (*Resp, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BookingServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BookingServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var BookingService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "BookAppointment",
			Handler:    unaryHandler(BookingService_BookAppointment_FullMethodName, BookingServiceServer.BookAppointment),
		},
		{
			MethodName: "RescheduleAppointment",
			Handler:    unaryHandler(BookingService_RescheduleAppointment_FullMethodName, BookingServiceServer.RescheduleAppointment),
		},
		{
			MethodName: "CancelAppointment",
			Handler:    unaryHandler(BookingService_CancelAppointment_FullMethodName, BookingServiceServer.CancelAppointment),
		},
		{
			MethodName: "GetAppointment",
			Handler:    unaryHandler(BookingService_GetAppointment_FullMethodName, BookingServiceServer.GetAppointment),
		},
		{
			MethodName: "ListUserAppointments",
			Handler:    unaryHandler(BookingService_ListUserAppointments_FullMethodName, BookingServiceServer.ListUserAppointments),
		},
		{
			MethodName: "ListDoctorAppointments",
			Handler:    unaryHandler(BookingService_ListDoctorAppointments_FullMethodName, BookingServiceServer.ListDoctorAppointments),
		},
		{
			MethodName: "AddAvailability",
			Handler:    unaryHandler(BookingService_AddAvailability_FullMethodName, BookingServiceServer.AddAvailability),
		},
		{
			MethodName: "DeleteAvailability",
			Handler:    unaryHandler(BookingService_DeleteAvailability_FullMethodName, BookingServiceServer.DeleteAvailability),
		},
		{
			MethodName: "ListAvailability",
			Handler:    unaryHandler(BookingService_ListAvailability_FullMethodName, BookingServiceServer.ListAvailability),
		},
		{
			MethodName: "CancelPayment",
			Handler:    unaryHandler(BookingService_CancelPayment_FullMethodName, BookingServiceServer.CancelPayment),
		},
		{
			MethodName: "GetPayment",
			Handler:    unaryHandler(BookingService_GetPayment_FullMethodName, BookingServiceServer.GetPayment),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "booking/v1/booking.proto",
}

type BookingServiceClient interface {
	BookAppointment(ctx context.Context, in *BookAppointmentRequest, opts ...grpc.CallOption) (*BookAppointmentResponse, error)
	RescheduleAppointment(ctx context.Context, in *RescheduleAppointmentRequest, opts ...grpc.CallOption) (*RescheduleAppointmentResponse, error)
	CancelAppointment(ctx context.Context, in *CancelAppointmentRequest, opts ...grpc.CallOption) (*CancelAppointmentResponse, error)
	GetAppointment(ctx context.Context, in *GetAppointmentRequest, opts ...grpc.CallOption) (*GetAppointmentResponse, error)
	ListUserAppointments(ctx context.Context, in *ListUserAppointmentsRequest, opts ...grpc.CallOption) (*ListUserAppointmentsResponse, error)
	ListDoctorAppointments(ctx context.Context, in *ListDoctorAppointmentsRequest, opts ...grpc.CallOption) (*ListDoctorAppointmentsResponse, error)
	AddAvailability(ctx context.Context, in *AddAvailabilityRequest, opts ...grpc.CallOption) (*AddAvailabilityResponse, error)
	DeleteAvailability(ctx context.Context, in *DeleteAvailabilityRequest, opts ...grpc.CallOption) (*DeleteAvailabilityResponse, error)
	ListAvailability(ctx context.Context, in *ListAvailabilityRequest, opts ...grpc.CallOption) (*ListAvailabilityResponse, error)
	CancelPayment(ctx context.Context, in *CancelPaymentRequest, opts ...grpc.CallOption) (*CancelPaymentResponse, error)
	GetPayment(ctx context.Context, in *GetPaymentRequest, opts ...grpc.CallOption) (*GetPaymentResponse, error)
}

type bookingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBookingServiceClient(cc grpc.ClientConnInterface) BookingServiceClient {
	return &bookingServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) BookAppointment(ctx context.Context, in *BookAppointmentRequest, opts ...grpc.CallOption) (*BookAppointmentResponse, error) {
	return invoke[BookAppointmentResponse](ctx, c.cc, BookingService_BookAppointment_FullMethodName, in, opts)
}

func (c *bookingServiceClient) RescheduleAppointment(ctx context.Context, in *RescheduleAppointmentRequest, opts ...grpc.CallOption) (*RescheduleAppointmentResponse, error) {
	return invoke[RescheduleAppointmentResponse](ctx, c.cc, BookingService_RescheduleAppointment_FullMethodName, in, opts)
}

func (c *bookingServiceClient) CancelAppointment(ctx context.Context, in *CancelAppointmentRequest, opts ...grpc.CallOption) (*CancelAppointmentResponse, error) {
	return invoke[CancelAppointmentResponse](ctx, c.cc, BookingService_CancelAppointment_FullMethodName, in, opts)
}

func (c *bookingServiceClient) GetAppointment(ctx context.Context, in *GetAppointmentRequest, opts ...grpc.CallOption) (*GetAppointmentResponse, error) {
	return invoke[GetAppointmentResponse](ctx, c.cc, BookingService_GetAppointment_FullMethodName, in, opts)
}

func (c *bookingServiceClient) ListUserAppointments(ctx context.Context, in *ListUserAppointmentsRequest, opts ...grpc.CallOption) (*ListUserAppointmentsResponse, error) {
	return invoke[ListUserAppointmentsResponse](ctx, c.cc, BookingService_ListUserAppointments_FullMethodName, in, opts)
}

func (c *bookingServiceClient) ListDoctorAppointments(ctx context.Context, in *ListDoctorAppointmentsRequest, opts ...grpc.CallOption) (*ListDoctorAppointmentsResponse, error) {
	return invoke[ListDoctorAppointmentsResponse](ctx, c.cc, BookingService_ListDoctorAppointments_FullMethodName, in, opts)
}

func (c *bookingServiceClient) AddAvailability(ctx context.Context, in *AddAvailabilityRequest, opts ...grpc.CallOption) (*AddAvailabilityResponse, error) {
	return invoke[AddAvailabilityResponse](ctx, c.cc, BookingService_AddAvailability_FullMethodName, in, opts)
}

func (c *bookingServiceClient) DeleteAvailability(ctx context.Context, in *DeleteAvailabilityRequest, opts ...grpc.CallOption) (*DeleteAvailabilityResponse, error) {
	return invoke[DeleteAvailabilityResponse](ctx, c.cc, BookingService_DeleteAvailability_FullMethodName, in, opts)
}

func (c *bookingServiceClient) ListAvailability(ctx context.Context, in *ListAvailabilityRequest, opts ...grpc.CallOption) (*ListAvailabilityResponse, error) {
	return invoke[ListAvailabilityResponse](ctx, c.cc, BookingService_ListAvailability_FullMethodName, in, opts)
}

func (c *bookingServiceClient) CancelPayment(ctx context.Context, in *CancelPaymentRequest, opts ...grpc.CallOption) (*CancelPaymentResponse, error) {
	return invoke[CancelPaymentResponse](ctx, c.cc, BookingService_CancelPayment_FullMethodName, in, opts)
}

func (c *bookingServiceClient) GetPayment(ctx context.Context, in *GetPaymentRequest, opts ...grpc.CallOption) (*GetPaymentResponse, error) {
	return invoke[GetPaymentResponse](ctx, c.cc, BookingService_GetPayment_FullMethodName, in, opts)
}
