package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fleet-ledger/backend/pkg/response"
)

// BodyLimit 请求体大小限制
// 票据上传（multipart）使用 uploadMax，其余请求使用 jsonMax
// Content-Length 已超限时直接拒绝；分块传输在读取时由 MaxBytesReader 截断
func BodyLimit(jsonMax, uploadMax int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}

		upload := strings.HasPrefix(c.ContentType(), "multipart/")
		limit := jsonMax
		if upload {
			limit = uploadMax
		}

		if c.Request.ContentLength > limit {
			rejectTooLarge(c, upload, limit)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

		c.Next()

		if c.Writer.Written() {
			return
		}
		for _, ginErr := range c.Errors {
			var maxErr *http.MaxBytesError
			if errors.As(ginErr.Err, &maxErr) {
				rejectTooLarge(c, upload, limit)
				return
			}
		}
	}
}

func rejectTooLarge(c *gin.Context, upload bool, limit int64) {
	if upload {
		response.Error(c, http.StatusRequestEntityTooLarge, 15004,
			fmt.Sprintf("上传内容超过 %dMB，请压缩票据图片后重试", limit>>20))
	} else {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005,
			fmt.Sprintf("请求体超过 %dMB", limit>>20))
	}
	c.Abort()
}
