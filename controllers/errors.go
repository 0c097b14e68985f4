package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tablebook/reservation-app/services"
	"github.com/tablebook/reservation-app/utils"
)

// respondServiceError translates an engine rejection into the HTTP
// envelope, carrying its structured details through to the client.
func respondServiceError(c *gin.Context, err error) {
	if engineErr, ok := services.AsEngineError(err); ok {
		utils.RespondErrorDetails(c, services.HTTPStatus(err), err, gin.H{
			"kind":    engineErr.Kind,
			"details": engineErr.Details,
		})
		return
	}
	utils.ErrorLogger.Printf("internal error: %v", err)
	utils.RespondError(c, http.StatusInternalServerError, err)
}
