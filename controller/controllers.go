// api/controller/controllers.go
package controller

import "github.com/warden-labs/zerotrust/api/service"

type Controllers struct {
	Policy *PolicyController
	Access *AccessController
}

func InitializeControllers(services *service.Services) *Controllers {
	return &Controllers{
		Policy: NewPolicyController(services.Policy),
		Access: NewAccessController(services.Access),
	}
}
