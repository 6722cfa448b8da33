package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Aisenh037/dept-mgmt-api/internal/middleware"
	"github.com/Aisenh037/dept-mgmt-api/internal/models"
	"github.com/Aisenh037/dept-mgmt-api/internal/policy"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext builds the policy actor for the authenticated account.
// Returns a zero actor when the request carries no claims; policy denies
// zero-role actors everywhere.
func actorFromContext(c *gin.Context) policy.Actor {
	claims := claimsFromContext(c)
	if claims == nil {
		return policy.Actor{}
	}
	return policy.Actor{
		ID:         claims.AccountID,
		Role:       claims.Role,
		Department: claims.Department,
	}
}
