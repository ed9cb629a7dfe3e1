package handlers

import "github.com/gin-gonic/gin"

// guarded returns the guard chain followed by h in a fresh slice, so routes
// never share a backing array.
func guarded(guard []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(guard)+1)
	chain = append(chain, guard...)
	return append(chain, h)
}
