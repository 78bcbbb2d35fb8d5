package config

type SecurityLevel int

const (
	SecurityPublic   SecurityLevel = iota // No authentication
	SecurityCustomer                      // Any authenticated caller
	SecurityStaff                         // Employee or admin
)

const borrowingService = "/lending.v1.BorrowingService/"

// EndpointSecurityConfig maps methods to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Health and reflection - Public
	"/grpc.health.v1.Health/Check": SecurityPublic,
	"/grpc.health.v1.Health/Watch": SecurityPublic,

	// BorrowingService - Customer (ownership is checked by the handler)
	borrowingService + "SubmitRequest":  SecurityCustomer,
	borrowingService + "CancelRequest":  SecurityCustomer,
	borrowingService + "GetRequest":     SecurityCustomer,
	borrowingService + "GetHistory":     SecurityCustomer,
	borrowingService + "ListRequests":   SecurityCustomer,
	borrowingService + "GetOutstanding": SecurityCustomer,

	// BorrowingService - Staff
	borrowingService + "ApproveRequest": SecurityStaff,
	borrowingService + "RejectRequest":  SecurityStaff,
	borrowingService + "HandOut":        SecurityStaff,
	borrowingService + "ReturnItems":    SecurityStaff,
	borrowingService + "ReceiveStock":   SecurityStaff,
	borrowingService + "GetInventory":   SecurityStaff,
}

// GetSecurityLevel returns the security level for a given method
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityStaff
}
