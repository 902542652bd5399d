// api/controller/access_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	ztx_errors "github.com/warden-labs/zerotrust/api/errors"
	"github.com/warden-labs/zerotrust/api/model"
	"github.com/warden-labs/zerotrust/api/service"
	"github.com/warden-labs/zerotrust/api/util"
)

type AccessController struct {
	accessService service.IAccessService
}

func NewAccessController(accessService service.IAccessService) *AccessController {
	return &AccessController{
		accessService: accessService,
	}
}

// RegisterRoutes registers the API routes
func (ac *AccessController) RegisterRoutes(r *gin.RouterGroup) {
	access := r.Group("/access")
	{
		access.POST("/evaluate", ac.EvaluateAccess)
	}
	trust := r.Group("/trust")
	{
		trust.POST("/signals", ac.RecordTrustSignal)
	}
}

// EvaluateAccess endpoint. A deny is a successful evaluation, not an error:
// the response is 200 regardless of the verdict.
func (ac *AccessController) EvaluateAccess(c *gin.Context) {
	var request model.AccessRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid access request", ztx_errors.ErrInvalidAccessRequest)
		return
	}

	decision, err := ac.accessService.EvaluateAccess(c, request)
	if err != nil {
		if errors.Is(err, ztx_errors.ErrInvalidAccessRequest) {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid access request", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to evaluate access", ztx_errors.ErrInternalServer)
		}
		return
	}

	c.JSON(http.StatusOK, decision)
}

// RecordTrustSignal endpoint
func (ac *AccessController) RecordTrustSignal(c *gin.Context) {
	var signal model.TrustSignal
	if err := c.ShouldBindJSON(&signal); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid trust signal", ztx_errors.ErrInvalidTrustSignal)
		return
	}

	if err := ac.accessService.RecordTrustSignal(c, signal); err != nil {
		if errors.Is(err, ztx_errors.ErrInvalidTrustSignal) {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid trust signal", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to record trust signal", ztx_errors.ErrInternalServer)
		}
		return
	}

	c.Status(http.StatusAccepted)
}
