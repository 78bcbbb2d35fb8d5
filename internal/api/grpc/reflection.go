package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
	reflectionpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
)

// listedServices narrows the services reflection advertises. BorrowingService uses the JSON
// codec and has no protobuf descriptors, so reflection clients cannot describe it.
type listedServices struct {
	server *grpc.Server
	names  map[string]bool
}

func (l listedServices) GetServiceInfo() map[string]grpc.ServiceInfo {
	out := make(map[string]grpc.ServiceInfo, len(l.names))
	for name, info := range l.server.GetServiceInfo() {
		if l.names[name] {
			out[name] = info
		}
	}
	return out
}

// RegisterReflection serves grpc.reflection.v1 for the named services and itself.
func RegisterReflection(s *grpc.Server, services ...string) {
	names := map[string]bool{reflectionpb.ServerReflection_ServiceDesc.ServiceName: true}
	for _, name := range services {
		names[name] = true
	}
	reflectionpb.RegisterServerReflectionServer(s, reflection.NewServerV1(reflection.ServerOptions{
		Services: listedServices{server: s, names: names},
	}))
}
