package tool

import (
	"github.com/gin-gonic/gin"

	"github.com/moyoez/batchupload/types"
)

func FastReturnError(msg string) gin.H {
	return gin.H{
		"error": msg,
	}
}

func FastReturnSuccess() gin.H {
	return gin.H{
		"status": "ok",
	}
}

func FastReturnSuccessWithData(data any) gin.H {
	return gin.H{
		"data": data,
	}
}

// FastReturnEnvelope builds the intake endpoint body {"data":{"message":msg}}.
func FastReturnEnvelope(msg string) types.Envelope {
	return types.NewEnvelope(msg)
}
