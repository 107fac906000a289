package controllers

import (
	"net/http"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/gin-gonic/gin"

	"github.com/moyoez/batchupload/tool"
	"github.com/moyoez/batchupload/types"
)

const DefaultReceiptTTL = 10 * time.Minute

// ReceiptIdHeader carries the id of the receipt recorded for an accepted file.
const ReceiptIdHeader = "X-Receipt-Id"

// IntakeController accepts one file per request and acknowledges it.
// Nothing is persisted; receipts only live in an expiring cache.
type IntakeController struct {
	fieldName string
	receipts  *ttlworker.Cache[string, types.IntakeReceipt]
}

func NewIntakeController(fieldName string, receiptTTL time.Duration) *IntakeController {
	if fieldName == "" {
		fieldName = "file"
	}
	if receiptTTL <= 0 {
		receiptTTL = DefaultReceiptTTL
	}
	return &IntakeController{
		fieldName: fieldName,
		receipts:  ttlworker.NewCache[string, types.IntakeReceipt](receiptTTL),
	}
}

// HandleIndex
// GET /
func (ctrl *IntakeController) HandleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, tool.FastReturnEnvelope("Hello World!"))
}

// HandleFile acknowledges a single multipart file.
// POST /file
func (ctrl *IntakeController) HandleFile(c *gin.Context) {
	fileHeader, err := c.FormFile(ctrl.fieldName)
	if err != nil || fileHeader == nil {
		tool.DefaultLogger.Errorf("[Intake] Missing %q field: %v", ctrl.fieldName, err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnEnvelope("Internal Server Error"))
		return
	}

	receipt := types.IntakeReceipt{
		ID:         tool.GenerateRandomUUID(),
		FileName:   fileHeader.Filename,
		Size:       fileHeader.Size,
		FileType:   fileHeader.Header.Get("Content-Type"),
		ReceivedAt: time.Now().UTC().Format(time.RFC3339),
	}
	ctrl.receipts.Set(receipt.ID, receipt)
	tool.DefaultLogger.Infof("[Intake] Received %s (%d bytes, receipt %s)", receipt.FileName, receipt.Size, receipt.ID)

	c.Header(ReceiptIdHeader, receipt.ID)
	c.JSON(http.StatusOK, tool.FastReturnEnvelope("Success"))
}

// HandleReceipt returns a receipt while it has not expired.
// GET /file/receipts/:id
func (ctrl *IntakeController) HandleReceipt(c *gin.Context) {
	receipt := ctrl.receipts.Get(c.Param("id"))
	if receipt.ID == "" {
		c.JSON(http.StatusNotFound, tool.FastReturnEnvelope("Receipt not found or expired"))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(receipt))
}
