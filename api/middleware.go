package api

import (
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/okwaro/safaribook/internal/identity"
)

// AuthMiddleware keeps the session store in sync with the bearer token
// on incoming requests. Changes flow through the store's change
// notifications; handlers only read.
func AuthMiddleware(provider *identity.Provider, store *identity.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		current := store.Current()

		switch {
		case token == "" && current != nil:
			store.Set(nil)
		case token != "" && (current == nil || current.AccessToken != token):
			if _, err := provider.Refresh(c.Request.Context(), token); err != nil {
				log.Printf("session refresh failed: %v", err)
			}
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
