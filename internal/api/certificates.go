package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

func (h *Handler) verifyCertificate(c *gin.Context) {
	cert, err := h.svc.VerifyCertificate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "certificate": cert})
}

// certificateQRCode renders a PNG pointing at the public verification URL.
// Unknown certificates get a 404 rather than a code for a dead link.
func (h *Handler) certificateQRCode(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.svc.VerifyCertificate(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	png, err := qrcode.Encode(h.publicURL+"/certificates/"+id+"/verify", qrcode.Medium, qrSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", "inline; filename=\"certificate-qr.png\"")
	c.Data(http.StatusOK, "image/png", png)
}
