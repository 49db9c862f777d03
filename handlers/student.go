package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/QuickRoll12/quickroll-backend/models"
	"github.com/QuickRoll12/quickroll-backend/redemption"
)

// Redeem submits one code-redemption attempt.
func (a *API) Redeem(c *gin.Context) {
	var req models.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.IP == "" {
		req.IP = c.ClientIP()
	}

	result, err := a.pipeline.Redeem(c.Request.Context(), req)
	if err != nil {
		var rejection *redemption.Rejection
		if errors.As(err, &rejection) {
			log.Println("redemption rejected for", req.UserID, ":", rejection.Message)
			c.JSON(rejectionStatus(rejection.Kind), gin.H{
				"status":  "error",
				"kind":    rejection.Kind,
				"message": rejection.Message,
			})
			return
		}
		log.Printf("redemption failed for %s: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "OK",
		"message":    "attendance marked successfully",
		"identifier": result.Identifier,
		"grid":       result.Grid,
	})
}

func rejectionStatus(kind redemption.Kind) int {
	switch kind {
	case redemption.InvalidInput:
		return http.StatusBadRequest
	case redemption.SessionInactive:
		return http.StatusNotFound
	case redemption.AlreadyMarked, redemption.InvalidOrUsedCode:
		return http.StatusConflict
	}
	// Fraud rejections and verification failures.
	return http.StatusForbidden
}
