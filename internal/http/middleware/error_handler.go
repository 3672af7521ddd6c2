package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/waniqbal01/freetask-app-3-sub000/internal/logger"
	"github.com/waniqbal01/freetask-app-3-sub000/internal/pkg/apperror"
)

// ErrorHandler — последний рубеж обработки ошибок. Обработчики отвечают
// клиенту сами через RespondAppError; сюда попадают только ошибки,
// добавленные в gin.Context и не превращённые в ответ. AppError
// маппится на свой HTTP статус, всё остальное маскируется как 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		logger.Log.WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("Request error")

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message, "code": appErr.Code})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка сервера"})
	}
}
